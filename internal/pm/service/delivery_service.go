package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeliveryService reconciles delivery events against a purchase order's
// remaining ordered quantity and drives the sent|confirmed → delivered edge.
type DeliveryService struct {
	db               *gorm.DB
	poRepo           *repository.PORepository
	deliveryRepo     *repository.DeliveryRepository
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
}

func NewDeliveryService(db *gorm.DB, poRepo *repository.PORepository, deliveryRepo *repository.DeliveryRepository, notificationRepo *repository.NotificationRepository, logger *zap.Logger) *DeliveryService {
	return &DeliveryService{
		db:               db,
		poRepo:           poRepo,
		deliveryRepo:     deliveryRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// RecordDeliveryRequest inbound delivery confirmation payload
type RecordDeliveryRequest struct {
	DeliveryDate     time.Time `json:"delivery_date" binding:"required"`
	QuantityReceived *float64  `json:"quantity_received" binding:"required"`
	QuantityOrdered  *float64  `json:"quantity_ordered" binding:"required"`
	ConditionNotes   string    `json:"condition_notes" binding:"max=1000"`
	Photos           []string  `json:"photos"`
	IdempotencyKey   string    `json:"idempotency_key" binding:"max=64"`
}

// DeliveryResult persisted confirmation plus derived metadata
type DeliveryResult struct {
	Confirmation         *entity.DeliveryConfirmation `json:"confirmation"`
	TotalReceived        float64                      `json:"total_received"`
	CompletionPercentage int                          `json:"completion_percentage"`
	OrderStatus          string                       `json:"order_status"`
	DeliveryStatus       string                       `json:"delivery_status"`
	IsPartial            bool                         `json:"is_partial"`
	IsComplete           bool                         `json:"is_complete"`
	Timeliness           string                       `json:"timeliness"`
	DaysEarlyLate        int                          `json:"days_early_late"`
	Replayed             bool                         `json:"replayed,omitempty"`
}

// RecordDelivery validates a delivery event against the order's remaining
// quantity and persists it. The quantity cap is enforced by a conditional
// update of the running total on the order row, and the confirmation insert
// plus the status rollup happen in the same transaction, so concurrent
// confirmations serialize on the row and a crash cannot leave the order
// status inconsistent with its deliveries. A repeated idempotency key
// replays the original confirmation instead of double-counting, even after
// the order has moved to delivered.
func (s *DeliveryService) RecordDelivery(ctx context.Context, poID, userID string, req *RecordDeliveryRequest) (*DeliveryResult, error) {
	po, err := s.poRepo.FindByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po.PurchaseRequest == nil {
		return nil, fmt.Errorf("purchase order %s has no linked purchase request", po.PONumber)
	}

	received := *req.QuantityReceived
	ordered := *req.QuantityOrdered
	if received < 0 {
		return nil, &ValidationError{Field: "quantity_received", Message: "must be non-negative"}
	}
	if ordered <= 0 {
		return nil, &ValidationError{Field: "quantity_ordered", Message: "must be positive"}
	}

	orderedTotal := po.PurchaseRequest.Quantity
	result := &DeliveryResult{OrderStatus: po.Status}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Idempotent replay first, before any other gate: the common retry is
		// a lost response after commit, and that commit may already have
		// moved the order to delivered. Same key against the same order
		// returns the originally persisted record, no new insert.
		if req.IdempotencyKey != "" {
			var existing entity.DeliveryConfirmation
			findErr := tx.Where("purchase_order_id = ? AND idempotency_key = ?", poID, req.IdempotencyKey).
				First(&existing).Error
			if findErr == nil {
				var current entity.PurchaseOrder
				if err := tx.Select("status", "quantity_received").Where("id = ?", poID).First(&current).Error; err != nil {
					return err
				}
				fillResult(result, &existing, current.QuantityReceived, orderedTotal, current.Status, po.ExpectedDeliveryDate)
				result.Replayed = true
				return nil
			}
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return findErr
			}
		}

		// Status gate comes before any quantity math: draft, delivered,
		// completed and cancelled orders reject deliveries outright.
		if !entity.IsDeliverablePOStatus(po.Status) {
			return NewBusinessRuleError(
				"purchase order %s is not deliverable in status %q (must be sent or confirmed)",
				po.PONumber, po.Status,
			)
		}

		// Quantity cap is enforced on the order row itself: the conditional
		// update takes the row lock, and a concurrent confirmation that
		// committed first is reflected in quantity_received when the blocked
		// update re-evaluates its predicate. The confirmations sum alone
		// cannot give that guarantee under read committed.
		guard := tx.Model(&entity.PurchaseOrder{}).
			Where("id = ? AND quantity_received + ? <= ?", poID, received, orderedTotal).
			UpdateColumn("quantity_received", gorm.Expr("quantity_received + ?", received))
		if guard.Error != nil {
			return guard.Error
		}
		if guard.RowsAffected == 0 {
			var current entity.PurchaseOrder
			if err := tx.Select("quantity_received").Where("id = ?", poID).First(&current).Error; err != nil {
				return err
			}
			return &OverDeliveryError{
				Ordered:            orderedTotal,
				PreviouslyReceived: current.QuantityReceived,
				Attempted:          received,
			}
		}

		status := entity.DeliveryStatusCompleted
		if received < ordered {
			status = entity.DeliveryStatusPartial
		}

		dc := &entity.DeliveryConfirmation{
			ID:               uuid.New().String(),
			PurchaseOrderID:  poID,
			ConfirmedBy:      userID,
			DeliveryDate:     req.DeliveryDate,
			QuantityReceived: received,
			QuantityOrdered:  ordered,
			Status:           status,
			ConditionNotes:   req.ConditionNotes,
			Photos:           entity.StringArray(req.Photos),
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			dc.IdempotencyKey = &key
		}
		if err := tx.Create(dc).Error; err != nil {
			return err
		}

		var current entity.PurchaseOrder
		if err := tx.Select("quantity_received").Where("id = ?", poID).First(&current).Error; err != nil {
			return err
		}
		total := current.QuantityReceived
		orderStatus := po.Status
		if total >= orderedTotal {
			orderStatus = entity.POStatusDelivered
			updates := map[string]interface{}{
				"status":               entity.POStatusDelivered,
				"actual_delivery_date": req.DeliveryDate,
				"updated_at":           time.Now(),
			}
			if err := tx.Model(&entity.PurchaseOrder{}).Where("id = ?", poID).Updates(updates).Error; err != nil {
				return err
			}
		}

		logEntry := &entity.ActivityLog{
			ID:         uuid.New().String(),
			EntityType: "purchase_order",
			EntityID:   poID,
			EntityCode: po.PONumber,
			Action:     "delivery_recorded",
			FromStatus: po.Status,
			ToStatus:   orderStatus,
			Content:    fmt.Sprintf("received %.2f of %.2f", total, orderedTotal),
			Metadata: entity.JSONB{
				"delivery_id":       dc.ID,
				"quantity_received": received,
			},
			OperatorID: userID,
		}
		if err := tx.Create(logEntry).Error; err != nil {
			return err
		}

		fillResult(result, dc, total, orderedTotal, orderStatus, po.ExpectedDeliveryDate)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.OrderStatus == entity.POStatusDelivered && !result.Replayed {
		s.notifyDelivered(ctx, po)
	}

	return result, nil
}

// ListDeliveries returns the confirmations recorded against an order
func (s *DeliveryService) ListDeliveries(ctx context.Context, poID string) ([]entity.DeliveryConfirmation, error) {
	if _, err := s.poRepo.FindByID(ctx, poID); err != nil {
		return nil, err
	}
	return s.deliveryRepo.FindByPO(ctx, poID)
}

// notifyDelivered persists a notification for the order creator. Best effort:
// the delivery itself is already committed.
func (s *DeliveryService) notifyDelivered(ctx context.Context, po *entity.PurchaseOrder) {
	n := &entity.Notification{
		ID:         uuid.New().String(),
		UserID:     po.CreatedBy,
		Type:       entity.NotificationDeliveryCompleted,
		Title:      "Purchase order fully delivered",
		Body:       fmt.Sprintf("Purchase order %s has received its full ordered quantity.", po.PONumber),
		EntityType: "purchase_order",
		EntityID:   po.ID,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to persist delivery notification",
			zap.String("po_id", po.ID), zap.Error(err))
	}
}

func fillResult(result *DeliveryResult, dc *entity.DeliveryConfirmation, total, orderedTotal float64, orderStatus string, expected *time.Time) {
	result.Confirmation = dc
	result.TotalReceived = total
	result.CompletionPercentage = completionPercentage(total, orderedTotal)
	result.OrderStatus = orderStatus
	result.DeliveryStatus = dc.Status
	result.IsPartial = dc.Status == entity.DeliveryStatusPartial
	result.IsComplete = dc.Status == entity.DeliveryStatusCompleted
	result.Timeliness, result.DaysEarlyLate = classifyTimeliness(dc.DeliveryDate, expected)
}

func completionPercentage(total, ordered float64) int {
	if ordered <= 0 {
		return 0
	}
	return int(math.Round(total / ordered * 100))
}

// classifyTimeliness compares the delivery date to the expected date at day
// granularity. Positive days = late, negative = early.
func classifyTimeliness(deliveryDate time.Time, expected *time.Time) (string, int) {
	if expected == nil {
		return entity.TimelinessUnknown, 0
	}
	days := daysBetween(deliveryDate, *expected)
	switch {
	case days > 0:
		return entity.TimelinessLate, days
	case days < 0:
		return entity.TimelinessEarly, days
	default:
		return entity.TimelinessOnTime, 0
	}
}

func daysBetween(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ad.Sub(bd).Hours() / 24)
}
