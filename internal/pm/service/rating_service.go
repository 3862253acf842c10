package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
)

// RatingService vendor rating submission and on-demand averaging
type RatingService struct {
	ratingRepo  *repository.RatingRepository
	vendorRepo  *repository.VendorRepository
	poRepo      *repository.PORepository
	projectRepo *repository.ProjectRepository
}

func NewRatingService(ratingRepo *repository.RatingRepository, vendorRepo *repository.VendorRepository, poRepo *repository.PORepository, projectRepo *repository.ProjectRepository) *RatingService {
	return &RatingService{
		ratingRepo:  ratingRepo,
		vendorRepo:  vendorRepo,
		poRepo:      poRepo,
		projectRepo: projectRepo,
	}
}

// SubmitRatingRequest inbound rating payload; rater identity comes from the session
type SubmitRatingRequest struct {
	ProjectID    string   `json:"project_id" binding:"required"`
	OverallScore *float64 `json:"overall_score" binding:"required"`
	Comment      string   `json:"comment" binding:"max=1000"`
}

// RatingResult persisted rating plus the recomputed vendor average
type RatingResult struct {
	Rating       *entity.VendorRating `json:"rating"`
	AverageScore float64              `json:"average_score"`
	RatingCount  int64                `json:"rating_count"`
}

// RatingHistory full history plus the current average
type RatingHistory struct {
	Ratings      []entity.VendorRating `json:"ratings"`
	AverageScore float64               `json:"average_score"`
	RatingCount  int64                 `json:"rating_count"`
}

// SubmitRating enforces one rating per (vendor, project, rater) and requires
// the vendor to have actually worked on the project (at least one
// non-cancelled purchase order). The average is recomputed over the full
// history including the new rating; it is never persisted.
func (s *RatingService) SubmitRating(ctx context.Context, vendorID, raterID string, req *SubmitRatingRequest) (*RatingResult, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.FindByID(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	score := *req.OverallScore
	if score < 1 || score > 5 {
		return nil, &ValidationError{Field: "overall_score", Message: "must be between 1 and 5"}
	}

	orders, err := s.poRepo.CountNonCancelledForVendorProject(ctx, vendorID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if orders == 0 {
		return nil, NewBusinessRuleError(
			"vendor %s has no purchase orders on project %s and cannot be rated for it",
			vendor.CompanyName, req.ProjectID,
		)
	}

	exists, err := s.ratingRepo.Exists(ctx, vendorID, req.ProjectID, raterID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, NewBusinessRuleError(
			"a rating for vendor %s on project %s by this user already exists",
			vendor.CompanyName, req.ProjectID,
		)
	}

	rating := &entity.VendorRating{
		ID:           uuid.New().String(),
		VendorID:     vendorID,
		ProjectID:    req.ProjectID,
		RaterID:      raterID,
		OverallScore: score,
		Comment:      req.Comment,
	}
	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		return nil, err
	}

	avg, count, err := s.ratingRepo.AverageForVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	return &RatingResult{Rating: rating, AverageScore: avg, RatingCount: count}, nil
}

// GetVendorRatings returns the rating history and current average
func (s *RatingService) GetVendorRatings(ctx context.Context, vendorID string) (*RatingHistory, error) {
	if _, err := s.vendorRepo.FindByID(ctx, vendorID); err != nil {
		return nil, err
	}
	ratings, err := s.ratingRepo.FindByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	avg, count, err := s.ratingRepo.AverageForVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return &RatingHistory{Ratings: ratings, AverageScore: avg, RatingCount: count}, nil
}
