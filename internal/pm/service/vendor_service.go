package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
)

// VendorService vendor directory maintenance
type VendorService struct {
	vendorRepo *repository.VendorRepository
}

func NewVendorService(vendorRepo *repository.VendorRepository) *VendorService {
	return &VendorService{vendorRepo: vendorRepo}
}

// ListVendors pages through vendors
func (s *VendorService) ListVendors(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Vendor, int64, error) {
	return s.vendorRepo.FindAll(ctx, page, pageSize, filters)
}

// GetVendor fetches one vendor
func (s *VendorService) GetVendor(ctx context.Context, id string) (*entity.Vendor, error) {
	return s.vendorRepo.FindByID(ctx, id)
}

// CreateVendorRequest new vendor payload
type CreateVendorRequest struct {
	CompanyName   string   `json:"company_name" binding:"required,max=200"`
	ContactPerson string   `json:"contact_person" binding:"max=100"`
	Email         string   `json:"email" binding:"omitempty,email"`
	Phone         string   `json:"phone" binding:"max=50"`
	Address       string   `json:"address" binding:"max=500"`
	Specialties   []string `json:"specialties"`
	Notes         string   `json:"notes" binding:"max=2000"`
}

// CreateVendor registers a vendor with a generated code
func (s *VendorService) CreateVendor(ctx context.Context, userID string, req *CreateVendorRequest) (*entity.Vendor, error) {
	code, err := s.vendorRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate vendor code: %w", err)
	}

	vendor := &entity.Vendor{
		ID:            uuid.New().String(),
		Code:          code,
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Specialties:   req.Specialties,
		IsActive:      true,
		CreatedBy:     userID,
		Notes:         req.Notes,
	}
	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// UpdateVendorRequest partial update payload
type UpdateVendorRequest struct {
	CompanyName   *string  `json:"company_name" binding:"omitempty,max=200"`
	ContactPerson *string  `json:"contact_person" binding:"omitempty,max=100"`
	Email         *string  `json:"email" binding:"omitempty,email"`
	Phone         *string  `json:"phone" binding:"omitempty,max=50"`
	Address       *string  `json:"address" binding:"omitempty,max=500"`
	Specialties   []string `json:"specialties"`
	IsActive      *bool    `json:"is_active"`
	Notes         *string  `json:"notes" binding:"omitempty,max=2000"`
}

// UpdateVendor applies the provided fields to a vendor
func (s *VendorService) UpdateVendor(ctx context.Context, id string, req *UpdateVendorRequest) (*entity.Vendor, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CompanyName != nil {
		vendor.CompanyName = *req.CompanyName
	}
	if req.ContactPerson != nil {
		vendor.ContactPerson = *req.ContactPerson
	}
	if req.Email != nil {
		vendor.Email = *req.Email
	}
	if req.Phone != nil {
		vendor.Phone = *req.Phone
	}
	if req.Address != nil {
		vendor.Address = *req.Address
	}
	if req.Specialties != nil {
		vendor.Specialties = req.Specialties
	}
	if req.IsActive != nil {
		vendor.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		vendor.Notes = *req.Notes
	}

	if err := s.vendorRepo.Update(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}
