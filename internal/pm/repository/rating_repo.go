package repository

import (
	"context"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"gorm.io/gorm"
)

// RatingRepository vendor ratings
type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// FindByVendor returns the full rating history for a vendor, newest first
func (r *RatingRepository) FindByVendor(ctx context.Context, vendorID string) ([]entity.VendorRating, error) {
	var items []entity.VendorRating
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// Exists reports whether a rating exists for the exact (vendor, project, rater) tuple
func (r *RatingRepository) Exists(ctx context.Context, vendorID, projectID, raterID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.VendorRating{}).
		Where("vendor_id = ? AND project_id = ? AND rater_id = ?", vendorID, projectID, raterID).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a rating
func (r *RatingRepository) Create(ctx context.Context, rating *entity.VendorRating) error {
	return r.db.WithContext(ctx).Create(rating).Error
}

// AverageForVendor recomputes sum/count over the full history on demand
func (r *RatingRepository) AverageForVendor(ctx context.Context, vendorID string) (avg float64, count int64, err error) {
	var ratings []entity.VendorRating
	if err = r.db.WithContext(ctx).Where("vendor_id = ?", vendorID).Find(&ratings).Error; err != nil {
		return 0, 0, err
	}
	if len(ratings) == 0 {
		return 0, 0, nil
	}
	var sum float64
	for _, rt := range ratings {
		sum += rt.OverallScore
	}
	return sum / float64(len(ratings)), int64(len(ratings)), nil
}
