package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"gorm.io/gorm"
)

// PRRepository purchase requests
type PRRepository struct {
	db *gorm.DB
}

func NewPRRepository(db *gorm.DB) *PRRepository {
	return &PRRepository{db: db}
}

// FindAll lists purchase requests, optionally restricted by accessible project ids
func (r *PRRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string, accessibleIDs []string, restrict bool) ([]entity.PurchaseRequest, int64, error) {
	var items []entity.PurchaseRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PurchaseRequest{})

	if restrict {
		if len(accessibleIDs) == 0 {
			return []entity.PurchaseRequest{}, 0, nil
		}
		query = query.Where("project_id IN ?", accessibleIDs)
	}
	if projectID := filters["project_id"]; projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if urgency := filters["urgency"]; urgency != "" {
		query = query.Where("urgency = ?", urgency)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Project").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID looks up a purchase request by id
func (r *PRRepository) FindByID(ctx context.Context, id string) (*entity.PurchaseRequest, error) {
	var pr entity.PurchaseRequest
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("id = ?", id).
		First(&pr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pr, nil
}

// Create inserts a purchase request
func (r *PRRepository) Create(ctx context.Context, pr *entity.PurchaseRequest) error {
	return r.db.WithContext(ctx).Create(pr).Error
}

// Update saves a purchase request
func (r *PRRepository) Update(ctx context.Context, pr *entity.PurchaseRequest) error {
	return r.db.WithContext(ctx).Save(pr).Error
}

// CountByStatus counts purchase requests in a status within the given scope
func (r *PRRepository) CountByStatus(ctx context.Context, status string, accessibleIDs []string, restrict bool) (int64, error) {
	if restrict && len(accessibleIDs) == 0 {
		return 0, nil
	}
	query := r.db.WithContext(ctx).
		Model(&entity.PurchaseRequest{}).
		Where("status = ?", status)
	if restrict {
		query = query.Where("project_id IN ?", accessibleIDs)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// GenerateCode generates the next request code PR-{year}-{seq}
func (r *PRRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("PR-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseRequest{}).
		Select("COALESCE(MAX(code), '')").
		Where("code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "PR-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("PR-%s-%04d", year, seq), nil
}
