package service

import (
	"context"
	"testing"
	"time"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"github.com/keramy/formulapmv2-sub007/internal/pm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newDeliveryEnv(t *testing.T) (*DeliveryService, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewDeliveryService(db, repos.PO, repos.Delivery, repos.Notification, zap.NewNop())
	return svc, db
}

func ptr(v float64) *float64 { return &v }

func deliveryReq(received, ordered float64) *RecordDeliveryRequest {
	return &RecordDeliveryRequest{
		DeliveryDate:     time.Now(),
		QuantityReceived: ptr(received),
		QuantityOrdered:  ptr(ordered),
	}
}

func TestRecordDelivery_PartialLeavesOrderOpen(t *testing.T) {
	svc, db := newDeliveryEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)

	result, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", deliveryReq(40, 100))
	require.NoError(t, err)

	assert.True(t, result.IsPartial)
	assert.False(t, result.IsComplete)
	assert.Equal(t, entity.POStatusSent, result.OrderStatus)
	assert.Equal(t, 40.0, result.TotalReceived)
	assert.Equal(t, 40, result.CompletionPercentage)

	var current entity.PurchaseOrder
	require.NoError(t, db.First(&current, "id = ?", po.ID).Error)
	assert.Equal(t, entity.POStatusSent, current.Status)
	assert.Nil(t, current.ActualDeliveryDate)
}

func TestRecordDelivery_FullQuantityMarksDelivered(t *testing.T) {
	svc, db := newDeliveryEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusConfirmed)

	_, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", deliveryReq(60, 100))
	require.NoError(t, err)

	result, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", deliveryReq(40, 40))
	require.NoError(t, err)

	assert.True(t, result.IsComplete)
	assert.Equal(t, entity.POStatusDelivered, result.OrderStatus)
	assert.Equal(t, 100, result.CompletionPercentage)

	var current entity.PurchaseOrder
	require.NoError(t, db.First(&current, "id = ?", po.ID).Error)
	assert.Equal(t, entity.POStatusDelivered, current.Status)
	assert.NotNil(t, current.ActualDeliveryDate)

	// creator gets a completion notification
	var notifications int64
	db.Model(&entity.Notification{}).Where("entity_id = ?", po.ID).Count(&notifications)
	assert.Equal(t, int64(1), notifications)
}

func TestRecordDelivery_OverDeliveryRejected(t *testing.T) {
	svc, db := newDeliveryEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)
	testutil.SeedDelivery(t, db, po.ID, 60, 100)

	_, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", deliveryReq(50, 50))
	require.Error(t, err)

	var overErr *OverDeliveryError
	require.ErrorAs(t, err, &overErr)
	assert.Equal(t, 100.0, overErr.Ordered)
	assert.Equal(t, 60.0, overErr.PreviouslyReceived)
	assert.Equal(t, 50.0, overErr.Attempted)
	assert.Contains(t, err.Error(), "100.00")
	assert.Contains(t, err.Error(), "60.00")
	assert.Contains(t, err.Error(), "50.00")

	// nothing was written
	var count int64
	db.Model(&entity.DeliveryConfirmation{}).Where("purchase_order_id = ?", po.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRecordDelivery_StatusGatePrecedesQuantityCheck(t *testing.T) {
	svc, db := newDeliveryEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")

	for _, status := range []string{
		entity.POStatusDraft,
		entity.POStatusDelivered,
		entity.POStatusCompleted,
		entity.POStatusCancelled,
	} {
		pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
		po := testutil.SeedPO(t, db, pr.ID, vendor.ID, status)

		// the quantity would also over-deliver; the status error must win
		_, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", deliveryReq(500, 500))
		require.Error(t, err, "status %s", status)

		var businessErr *BusinessRuleError
		assert.ErrorAs(t, err, &businessErr, "status %s", status)
	}
}

func TestRecordDelivery_NegativeAndZeroQuantities(t *testing.T) {
	svc, db := newDeliveryEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)

	var validationErr *ValidationError

	_, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", deliveryReq(-1, 100))
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "quantity_received", validationErr.Field)

	_, err = svc.RecordDelivery(context.Background(), po.ID, "user-1", deliveryReq(10, 0))
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "quantity_ordered", validationErr.Field)

	// zero received is a valid no-op shipment record
	result, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", deliveryReq(0, 100))
	require.NoError(t, err)
	assert.True(t, result.IsPartial)
	assert.Equal(t, 0.0, result.TotalReceived)
}

func TestRecordDelivery_IdempotentReplay(t *testing.T) {
	svc, db := newDeliveryEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)

	req := deliveryReq(40, 100)
	req.IdempotencyKey = "retry-abc"

	first, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Confirmation.ID, second.Confirmation.ID)
	assert.Equal(t, 40.0, second.TotalReceived)

	var count int64
	db.Model(&entity.DeliveryConfirmation{}).Where("purchase_order_id = ?", po.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRecordDelivery_ReplayAfterOrderDelivered(t *testing.T) {
	svc, db := newDeliveryEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusConfirmed)

	req := deliveryReq(100, 100)
	req.IdempotencyKey = "retry-full"

	first, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusDelivered, first.OrderStatus)

	// the lost-response retry arrives after the order already moved on
	second, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Confirmation.ID, second.Confirmation.ID)
	assert.Equal(t, entity.POStatusDelivered, second.OrderStatus)
	assert.Equal(t, 100.0, second.TotalReceived)

	var count int64
	db.Model(&entity.DeliveryConfirmation{}).Where("purchase_order_id = ?", po.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRecordDelivery_CapHoldsAgainstCommittedTotal(t *testing.T) {
	svc, db := newDeliveryEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)

	// a competing confirmation commits after our pre-read would have happened;
	// the guard must see the order row's running total, not a stale sum
	require.NoError(t, db.Model(&entity.PurchaseOrder{}).
		Where("id = ?", po.ID).
		Update("quantity_received", 80).Error)

	_, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", deliveryReq(30, 100))
	var overErr *OverDeliveryError
	require.ErrorAs(t, err, &overErr)
	assert.Equal(t, 100.0, overErr.Ordered)
	assert.Equal(t, 80.0, overErr.PreviouslyReceived)
	assert.Equal(t, 30.0, overErr.Attempted)

	var count int64
	db.Model(&entity.DeliveryConfirmation{}).Where("purchase_order_id = ?", po.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	var current entity.PurchaseOrder
	require.NoError(t, db.First(&current, "id = ?", po.ID).Error)
	assert.Equal(t, 80.0, current.QuantityReceived)
}

func TestRecordDelivery_Timeliness(t *testing.T) {
	svc, db := newDeliveryEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")

	expected := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		delivery time.Time
		want     string
		wantDays int
	}{
		{"same day", expected, entity.TimelinessOnTime, 0},
		{"one day late", expected.AddDate(0, 0, 1), entity.TimelinessLate, 1},
		{"one day early", expected.AddDate(0, 0, -1), entity.TimelinessEarly, -1},
		{"late intraday", expected.Add(23 * time.Hour), entity.TimelinessOnTime, 0},
		{
			// local calendar says the 16th, UTC says 21:30 on the 15th
			"next day local same day utc",
			time.Date(2026, 8, 16, 0, 30, 0, 0, time.FixedZone("UTC+3", 3*3600)),
			entity.TimelinessOnTime, 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
			po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)
			require.NoError(t, db.Model(&entity.PurchaseOrder{}).
				Where("id = ?", po.ID).
				Update("expected_delivery_date", expected).Error)

			req := deliveryReq(10, 100)
			req.DeliveryDate = tc.delivery
			result, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Timeliness)
			assert.Equal(t, tc.wantDays, result.DaysEarlyLate)
		})
	}
}

func TestRecordDelivery_NoExpectedDateIsUnknown(t *testing.T) {
	svc, db := newDeliveryEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)

	result, err := svc.RecordDelivery(context.Background(), po.ID, "user-1", deliveryReq(10, 100))
	require.NoError(t, err)
	assert.Equal(t, entity.TimelinessUnknown, result.Timeliness)
	assert.Equal(t, 0, result.DaysEarlyLate)
}
