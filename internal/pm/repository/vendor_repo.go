package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"gorm.io/gorm"
)

// VendorRepository vendors
type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// FindAll lists vendors
func (r *VendorRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Vendor, int64, error) {
	var items []entity.Vendor
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Vendor{})

	if active := filters["is_active"]; active == "true" {
		query = query.Where("is_active = ?", true)
	}
	if search := filters["search"]; search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(company_name) LIKE LOWER(?) OR LOWER(code) LIKE LOWER(?)", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&items).Error
	return items, total, err
}

// FindByID looks up a vendor by id
func (r *VendorRepository) FindByID(ctx context.Context, id string) (*entity.Vendor, error) {
	var vendor entity.Vendor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

// Create inserts a vendor
func (r *VendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

// Update saves a vendor
func (r *VendorRepository) Update(ctx context.Context, vendor *entity.Vendor) error {
	return r.db.WithContext(ctx).Save(vendor).Error
}

// GenerateCode generates the next vendor code VEN-{seq}
func (r *VendorRepository) GenerateCode(ctx context.Context) (string, error) {
	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.Vendor{}).
		Select("COALESCE(MAX(code), '')").
		Where("code LIKE ?", "VEN-%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "VEN-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("VEN-%04d", seq), nil
}
