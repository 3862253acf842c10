package service

import (
	"context"
	"testing"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"github.com/keramy/formulapmv2-sub007/internal/pm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newProcurementEnv(t *testing.T) (*ProcurementService, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewProcurementService(db, repos.PR, repos.PO, repos.ActivityLog, repos.Notification, zap.NewNop())
	return svc, db
}

func TestCreatePR_DefaultsAndValidation(t *testing.T) {
	svc, db := newProcurementEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")

	pr, err := svc.CreatePR(context.Background(), "user-1", &CreatePRRequest{
		ProjectID:       project.ID,
		ItemDescription: "Rebar 12mm",
		Quantity:        ptr(250),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PRStatusPending, pr.Status)
	assert.Equal(t, "pcs", pr.Unit)
	assert.Equal(t, entity.UrgencyNormal, pr.Urgency)
	assert.NotEmpty(t, pr.Code)
	assert.Equal(t, "user-1", pr.RequestedBy)

	logs, err := svc.ListActivity(context.Background(), "purchase_request", pr.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "create", logs[0].Action)

	var validationErr *ValidationError
	_, err = svc.CreatePR(context.Background(), "user-1", &CreatePRRequest{
		ProjectID:       project.ID,
		ItemDescription: "Cement",
		Quantity:        ptr(0),
	})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "quantity", validationErr.Field)

	_, err = svc.CreatePR(context.Background(), "user-1", &CreatePRRequest{
		ProjectID:       project.ID,
		ItemDescription: "Cement",
		Quantity:        ptr(-3),
	})
	require.ErrorAs(t, err, &validationErr)
}

func TestApprovePR(t *testing.T) {
	svc, db := newProcurementEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusPending)

	approved, err := svc.ApprovePR(context.Background(), pr.ID, "director-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PRStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "director-1", *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	// only pending requests can be approved
	var businessErr *BusinessRuleError
	_, err = svc.ApprovePR(context.Background(), pr.ID, "director-1")
	require.ErrorAs(t, err, &businessErr)

	_, err = svc.ApprovePR(context.Background(), "missing", "director-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreatePO_MarksRequestOrdered(t *testing.T) {
	svc, db := newProcurementEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusApproved)

	po, err := svc.CreatePO(context.Background(), "buyer-1", &CreatePORequest{
		PurchaseRequestID: pr.ID,
		VendorID:          vendor.ID,
		TotalAmount:       ptr(12500),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusDraft, po.Status)
	assert.Equal(t, "USD", po.Currency)
	assert.NotEmpty(t, po.PONumber)

	reloaded, err := svc.GetPR(context.Background(), pr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PRStatusOrdered, reloaded.Status)

	// an already-ordered request cannot be ordered again
	var businessErr *BusinessRuleError
	_, err = svc.CreatePO(context.Background(), "buyer-1", &CreatePORequest{
		PurchaseRequestID: pr.ID,
		VendorID:          vendor.ID,
	})
	require.ErrorAs(t, err, &businessErr)
}

func TestCreatePO_RejectsPendingRequest(t *testing.T) {
	svc, db := newProcurementEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusPending)

	var businessErr *BusinessRuleError
	_, err := svc.CreatePO(context.Background(), "buyer-1", &CreatePORequest{
		PurchaseRequestID: pr.ID,
		VendorID:          vendor.ID,
	})
	require.ErrorAs(t, err, &businessErr)

	reloaded, err := svc.GetPR(context.Background(), pr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PRStatusPending, reloaded.Status)
}

func TestPOLifecycleTransitions(t *testing.T) {
	svc, db := newProcurementEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusDraft)

	sent, err := svc.SendPO(context.Background(), po.ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusSent, sent.Status)
	assert.NotNil(t, sent.SentAt)

	confirmed, err := svc.ConfirmPO(context.Background(), po.ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)

	// confirmed orders reach completed only via delivered
	var businessErr *BusinessRuleError
	_, err = svc.CompletePO(context.Background(), po.ID, "buyer-1")
	require.ErrorAs(t, err, &businessErr)

	require.NoError(t, db.Model(&entity.PurchaseOrder{}).Where("id = ?", po.ID).
		Update("status", entity.POStatusDelivered).Error)
	completed, err := svc.CompletePO(context.Background(), po.ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusCompleted, completed.Status)

	logs, err := svc.ListActivity(context.Background(), "purchase_order", po.ID, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestPOTransition_RejectsWrongSourceState(t *testing.T) {
	svc, db := newProcurementEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusDraft)

	var businessErr *BusinessRuleError
	_, err := svc.ConfirmPO(context.Background(), po.ID, "buyer-1")
	require.ErrorAs(t, err, &businessErr)

	// a draft sent twice only moves once
	_, err = svc.SendPO(context.Background(), po.ID, "buyer-1")
	require.NoError(t, err)
	_, err = svc.SendPO(context.Background(), po.ID, "buyer-1")
	require.ErrorAs(t, err, &businessErr)
}

func TestCancelPO(t *testing.T) {
	svc, db := newProcurementEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)

	cancelled, err := svc.CancelPO(context.Background(), po.ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusCancelled, cancelled.Status)

	var notifications []entity.Notification
	require.NoError(t, db.Where("entity_id = ?", po.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, entity.NotificationPOCancelled, notifications[0].Type)

	// terminal states stay terminal
	var businessErr *BusinessRuleError
	_, err = svc.CancelPO(context.Background(), po.ID, "buyer-1")
	require.ErrorAs(t, err, &businessErr)

	done := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusCompleted)
	_, err = svc.CancelPO(context.Background(), done.ID, "buyer-1")
	require.ErrorAs(t, err, &businessErr)
}
