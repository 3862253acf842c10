package repository

import (
	"context"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"gorm.io/gorm"
)

// ActivityLogRepository audit trail entries
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create inserts a log entry
func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity lists entries for one entity, newest first
func (r *ActivityLogRepository) FindByEntity(ctx context.Context, entityType, entityID string, limit int) ([]entity.ActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var items []entity.ActivityLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
