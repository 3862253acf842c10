package repository

import (
	"context"
	"time"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"gorm.io/gorm"
)

// DeliveryRepository delivery confirmations (append-only)
type DeliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// FindByPO lists delivery confirmations for a purchase order in insertion order
func (r *DeliveryRepository) FindByPO(ctx context.Context, poID string) ([]entity.DeliveryConfirmation, error) {
	var items []entity.DeliveryConfirmation
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", poID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// SumReceivedByPO returns cumulative received quantities keyed by purchase order id
func (r *DeliveryRepository) SumReceivedByPO(ctx context.Context, poIDs []string) (map[string]float64, error) {
	if len(poIDs) == 0 {
		return map[string]float64{}, nil
	}
	var rows []struct {
		PurchaseOrderID string
		Total           float64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.DeliveryConfirmation{}).
		Select("purchase_order_id, COALESCE(SUM(quantity_received), 0) AS total").
		Where("purchase_order_id IN ?", poIDs).
		Group("purchase_order_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[string]float64, len(rows))
	for _, row := range rows {
		sums[row.PurchaseOrderID] = row.Total
	}
	return sums, nil
}

// CountSince counts delivery confirmations recorded after the cutoff, scoped by project
func (r *DeliveryRepository) CountSince(ctx context.Context, cutoff time.Time, accessibleIDs []string, restrict bool) (int64, error) {
	if restrict && len(accessibleIDs) == 0 {
		return 0, nil
	}
	query := r.db.WithContext(ctx).
		Model(&entity.DeliveryConfirmation{}).
		Joins("JOIN purchase_orders ON purchase_orders.id = delivery_confirmations.purchase_order_id").
		Joins("JOIN purchase_requests ON purchase_requests.id = purchase_orders.purchase_request_id").
		Where("delivery_confirmations.created_at >= ?", cutoff)
	if restrict {
		query = query.Where("purchase_requests.project_id IN ?", accessibleIDs)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// Create inserts a delivery confirmation
func (r *DeliveryRepository) Create(ctx context.Context, dc *entity.DeliveryConfirmation) error {
	return r.db.WithContext(ctx).Create(dc).Error
}
