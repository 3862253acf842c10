package service

import (
	"context"
	"testing"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"github.com/keramy/formulapmv2-sub007/internal/pm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRatingEnv(t *testing.T) (*RatingService, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewRatingService(repos.Rating, repos.Vendor, repos.PO, repos.Project), db
}

func ratingReq(projectID string, score float64) *SubmitRatingRequest {
	return &SubmitRatingRequest{ProjectID: projectID, OverallScore: &score}
}

func TestSubmitRating_RequiresPurchaseOrderOnProject(t *testing.T) {
	svc, db := newRatingEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")

	_, err := svc.SubmitRating(context.Background(), vendor.ID, "rater-1", ratingReq(project.ID, 4))
	require.Error(t, err)

	var businessErr *BusinessRuleError
	require.ErrorAs(t, err, &businessErr)
	assert.Contains(t, err.Error(), "no purchase orders")

	// a cancelled order does not satisfy the precondition
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusCancelled)
	_, err = svc.SubmitRating(context.Background(), vendor.ID, "rater-1", ratingReq(project.ID, 4))
	require.ErrorAs(t, err, &businessErr)
}

func TestSubmitRating_DuplicateRejectedAndAverageUnchanged(t *testing.T) {
	svc, db := newRatingEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)

	first, err := svc.SubmitRating(context.Background(), vendor.ID, "rater-1", ratingReq(project.ID, 4))
	require.NoError(t, err)
	assert.Equal(t, 4.0, first.AverageScore)
	assert.Equal(t, int64(1), first.RatingCount)

	_, err = svc.SubmitRating(context.Background(), vendor.ID, "rater-1", ratingReq(project.ID, 2))
	var businessErr *BusinessRuleError
	require.ErrorAs(t, err, &businessErr)
	assert.Contains(t, err.Error(), "already exists")

	history, err := svc.GetVendorRatings(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, history.AverageScore)
	assert.Equal(t, int64(1), history.RatingCount)
}

func TestSubmitRating_AverageRecomputedAcrossRaters(t *testing.T) {
	svc, db := newRatingEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusConfirmed)

	_, err := svc.SubmitRating(context.Background(), vendor.ID, "rater-1", ratingReq(project.ID, 5))
	require.NoError(t, err)

	result, err := svc.SubmitRating(context.Background(), vendor.ID, "rater-2", ratingReq(project.ID, 2))
	require.NoError(t, err)
	assert.Equal(t, 3.5, result.AverageScore)
	assert.Equal(t, int64(2), result.RatingCount)

	// no average column exists to drift; the history is the source of truth
	history, err := svc.GetVendorRatings(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, history.AverageScore)
	assert.Len(t, history.Ratings, 2)
}

func TestSubmitRating_ScoreBounds(t *testing.T) {
	svc, db := newRatingEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)

	var validationErr *ValidationError
	_, err := svc.SubmitRating(context.Background(), vendor.ID, "rater-1", ratingReq(project.ID, 0.5))
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.SubmitRating(context.Background(), vendor.ID, "rater-1", ratingReq(project.ID, 5.5))
	require.ErrorAs(t, err, &validationErr)

	// boundary scores are accepted
	_, err = svc.SubmitRating(context.Background(), vendor.ID, "rater-1", ratingReq(project.ID, 1))
	require.NoError(t, err)
	_, err = svc.SubmitRating(context.Background(), vendor.ID, "rater-2", ratingReq(project.ID, 5))
	require.NoError(t, err)
}

func TestSubmitRating_UnknownVendorOrProject(t *testing.T) {
	svc, db := newRatingEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")

	_, err := svc.SubmitRating(context.Background(), "missing", "rater-1", ratingReq(project.ID, 3))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.SubmitRating(context.Background(), vendor.ID, "rater-1", ratingReq("missing", 3))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
