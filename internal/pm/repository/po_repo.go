package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"gorm.io/gorm"
)

// PORepository purchase orders
type PORepository struct {
	db *gorm.DB
}

func NewPORepository(db *gorm.DB) *PORepository {
	return &PORepository{db: db}
}

// FindAll lists purchase orders, optionally restricted by accessible project ids.
// The project scope lives on the linked purchase request.
func (r *PORepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string, accessibleIDs []string, restrict bool) ([]entity.PurchaseOrder, int64, error) {
	var items []entity.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Joins("JOIN purchase_requests ON purchase_requests.id = purchase_orders.purchase_request_id")

	if restrict {
		if len(accessibleIDs) == 0 {
			return []entity.PurchaseOrder{}, 0, nil
		}
		query = query.Where("purchase_requests.project_id IN ?", accessibleIDs)
	}
	if projectID := filters["project_id"]; projectID != "" {
		query = query.Where("purchase_requests.project_id = ?", projectID)
	}
	if vendorID := filters["vendor_id"]; vendorID != "" {
		query = query.Where("purchase_orders.vendor_id = ?", vendorID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("purchase_orders.status = ?", status)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("LOWER(purchase_orders.po_number) LIKE LOWER(?)", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Vendor").
		Preload("PurchaseRequest").
		Preload("PurchaseRequest.Project").
		Order("purchase_orders.created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID looks up a purchase order with its request and vendor
func (r *PORepository) FindByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Preload("PurchaseRequest").
		Preload("Deliveries", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// Create inserts a purchase order
func (r *PORepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

// Update saves a purchase order
func (r *PORepository) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}

// CountNonCancelledForVendorProject counts non-cancelled orders a vendor holds on a project.
// Used as the rating precondition.
func (r *PORepository) CountNonCancelledForVendorProject(ctx context.Context, vendorID, projectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Joins("JOIN purchase_requests ON purchase_requests.id = purchase_orders.purchase_request_id").
		Where("purchase_orders.vendor_id = ? AND purchase_requests.project_id = ? AND purchase_orders.status <> ?",
			vendorID, projectID, entity.POStatusCancelled).
		Count(&count).Error
	return count, err
}

// CountByStatuses counts orders in any of the given statuses within the scope
func (r *PORepository) CountByStatuses(ctx context.Context, statuses []string, accessibleIDs []string, restrict bool) (int64, error) {
	if restrict && len(accessibleIDs) == 0 {
		return 0, nil
	}
	query := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Joins("JOIN purchase_requests ON purchase_requests.id = purchase_orders.purchase_request_id").
		Where("purchase_orders.status IN ?", statuses)
	if restrict {
		query = query.Where("purchase_requests.project_id IN ?", accessibleIDs)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountOverdue counts open orders whose expected delivery date has passed
func (r *PORepository) CountOverdue(ctx context.Context, now time.Time, accessibleIDs []string, restrict bool) (int64, error) {
	if restrict && len(accessibleIDs) == 0 {
		return 0, nil
	}
	query := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Joins("JOIN purchase_requests ON purchase_requests.id = purchase_orders.purchase_request_id").
		Where("purchase_orders.status IN ?", []string{entity.POStatusSent, entity.POStatusConfirmed}).
		Where("purchase_orders.expected_delivery_date IS NOT NULL AND purchase_orders.expected_delivery_date < ?", now)
	if restrict {
		query = query.Where("purchase_requests.project_id IN ?", accessibleIDs)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// GenerateCode generates the next order number PO-{year}-{seq}
func (r *PORepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("PO-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Select("COALESCE(MAX(po_number), '')").
		Where("po_number LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "PO-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("PO-%s-%04d", year, seq), nil
}
