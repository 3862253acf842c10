package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProcurementService purchase request and purchase order lifecycle.
// Delivery reconciliation lives in DeliveryService.
type ProcurementService struct {
	db               *gorm.DB
	prRepo           *repository.PRRepository
	poRepo           *repository.PORepository
	activityRepo     *repository.ActivityLogRepository
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
}

func NewProcurementService(db *gorm.DB, prRepo *repository.PRRepository, poRepo *repository.PORepository, activityRepo *repository.ActivityLogRepository, notificationRepo *repository.NotificationRepository, logger *zap.Logger) *ProcurementService {
	return &ProcurementService{
		db:               db,
		prRepo:           prRepo,
		poRepo:           poRepo,
		activityRepo:     activityRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// === Purchase requests ===

// ListPRs lists purchase requests within the caller's scope
func (s *ProcurementService) ListPRs(ctx context.Context, page, pageSize int, filters map[string]string, accessibleIDs []string, restrict bool) ([]entity.PurchaseRequest, int64, error) {
	return s.prRepo.FindAll(ctx, page, pageSize, filters, accessibleIDs, restrict)
}

// GetPR fetches one purchase request
func (s *ProcurementService) GetPR(ctx context.Context, id string) (*entity.PurchaseRequest, error) {
	return s.prRepo.FindByID(ctx, id)
}

// CreatePRRequest new purchase request payload
type CreatePRRequest struct {
	ProjectID       string     `json:"project_id" binding:"required"`
	ItemDescription string     `json:"item_description" binding:"required,max=500"`
	Quantity        *float64   `json:"quantity" binding:"required"`
	Unit            string     `json:"unit" binding:"max=20"`
	RequiredDate    *time.Time `json:"required_date"`
	Urgency         string     `json:"urgency" binding:"omitempty,oneof=low normal high emergency"`
	Justification   string     `json:"justification" binding:"max=2000"`
}

// CreatePR creates a purchase request in pending status
func (s *ProcurementService) CreatePR(ctx context.Context, userID string, req *CreatePRRequest) (*entity.PurchaseRequest, error) {
	if *req.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must be positive"}
	}

	code, err := s.prRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate request code: %w", err)
	}

	pr := &entity.PurchaseRequest{
		ID:              uuid.New().String(),
		Code:            code,
		ProjectID:       req.ProjectID,
		ItemDescription: req.ItemDescription,
		Quantity:        *req.Quantity,
		Unit:            req.Unit,
		RequiredDate:    req.RequiredDate,
		Urgency:         req.Urgency,
		Justification:   req.Justification,
		Status:          entity.PRStatusPending,
		RequestedBy:     userID,
	}
	if pr.Unit == "" {
		pr.Unit = "pcs"
	}
	if pr.Urgency == "" {
		pr.Urgency = entity.UrgencyNormal
	}

	if err := s.prRepo.Create(ctx, pr); err != nil {
		return nil, err
	}
	s.logActivity(ctx, "purchase_request", pr.ID, pr.Code, "create", "", pr.Status, userID, nil)
	return pr, nil
}

// ApprovePR moves a pending request to approved
func (s *ProcurementService) ApprovePR(ctx context.Context, id, userID string) (*entity.PurchaseRequest, error) {
	pr, err := s.prRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pr.Status != entity.PRStatusPending {
		return nil, NewBusinessRuleError("purchase request %s cannot be approved in status %q", pr.Code, pr.Status)
	}

	now := time.Now()
	from := pr.Status
	pr.Status = entity.PRStatusApproved
	pr.ApprovedBy = &userID
	pr.ApprovedAt = &now

	if err := s.prRepo.Update(ctx, pr); err != nil {
		return nil, err
	}
	s.logActivity(ctx, "purchase_request", pr.ID, pr.Code, "status_change", from, pr.Status, userID, nil)
	return pr, nil
}

// === Purchase orders ===

// ListPOs lists purchase orders within the caller's scope
func (s *ProcurementService) ListPOs(ctx context.Context, page, pageSize int, filters map[string]string, accessibleIDs []string, restrict bool) ([]entity.PurchaseOrder, int64, error) {
	return s.poRepo.FindAll(ctx, page, pageSize, filters, accessibleIDs, restrict)
}

// GetPO fetches one purchase order with its request, vendor and deliveries
func (s *ProcurementService) GetPO(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return s.poRepo.FindByID(ctx, id)
}

// CreatePORequest new purchase order payload
type CreatePORequest struct {
	PurchaseRequestID    string     `json:"purchase_request_id" binding:"required"`
	VendorID             string     `json:"vendor_id" binding:"required"`
	TotalAmount          *float64   `json:"total_amount"`
	Currency             string     `json:"currency" binding:"max=10"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date"`
	Terms                string     `json:"terms" binding:"max=500"`
}

// CreatePO places a draft order against an approved purchase request.
// The request transitions to ordered in the same transaction and becomes
// immutable from then on.
func (s *ProcurementService) CreatePO(ctx context.Context, userID string, req *CreatePORequest) (*entity.PurchaseOrder, error) {
	pr, err := s.prRepo.FindByID(ctx, req.PurchaseRequestID)
	if err != nil {
		return nil, err
	}
	if pr.Status != entity.PRStatusApproved {
		return nil, NewBusinessRuleError("purchase request %s must be approved before ordering (status %q)", pr.Code, pr.Status)
	}

	code, err := s.poRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}

	po := &entity.PurchaseOrder{
		ID:                   uuid.New().String(),
		PONumber:             code,
		PurchaseRequestID:    pr.ID,
		VendorID:             req.VendorID,
		Status:               entity.POStatusDraft,
		TotalAmount:          req.TotalAmount,
		Currency:             req.Currency,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Terms:                req.Terms,
		CreatedBy:            userID,
	}
	if po.Currency == "" {
		po.Currency = "USD"
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(po).Error; err != nil {
			return err
		}
		return tx.Model(&entity.PurchaseRequest{}).
			Where("id = ?", pr.ID).
			Update("status", entity.PRStatusOrdered).Error
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, "purchase_order", po.ID, po.PONumber, "create", "", po.Status, userID, entity.JSONB{
		"purchase_request_id": pr.ID,
		"vendor_id":           req.VendorID,
	})
	return po, nil
}

// SendPO draft → sent
func (s *ProcurementService) SendPO(ctx context.Context, id, userID string) (*entity.PurchaseOrder, error) {
	return s.transitionPO(ctx, id, userID, entity.POStatusDraft, entity.POStatusSent, entity.NotificationPOSent)
}

// ConfirmPO sent → confirmed (vendor acknowledged)
func (s *ProcurementService) ConfirmPO(ctx context.Context, id, userID string) (*entity.PurchaseOrder, error) {
	return s.transitionPO(ctx, id, userID, entity.POStatusSent, entity.POStatusConfirmed, entity.NotificationPOConfirmed)
}

// CompletePO delivered → completed (closed out)
func (s *ProcurementService) CompletePO(ctx context.Context, id, userID string) (*entity.PurchaseOrder, error) {
	return s.transitionPO(ctx, id, userID, entity.POStatusDelivered, entity.POStatusCompleted, "")
}

// CancelPO any non-terminal state → cancelled
func (s *ProcurementService) CancelPO(ctx context.Context, id, userID string) (*entity.PurchaseOrder, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.IsTerminalPOStatus(po.Status) {
		return nil, NewBusinessRuleError("purchase order %s is already %s and cannot be cancelled", po.PONumber, po.Status)
	}

	from := po.Status
	po.Status = entity.POStatusCancelled
	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}

	s.logActivity(ctx, "purchase_order", po.ID, po.PONumber, "status_change", from, po.Status, userID, nil)
	s.notify(ctx, po.CreatedBy, entity.NotificationPOCancelled, "Purchase order cancelled",
		fmt.Sprintf("Purchase order %s was cancelled.", po.PONumber), po.ID)
	return po, nil
}

func (s *ProcurementService) transitionPO(ctx context.Context, id, userID, from, to, notificationType string) (*entity.PurchaseOrder, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != from {
		return nil, NewBusinessRuleError("purchase order %s cannot move to %s from status %q", po.PONumber, to, po.Status)
	}

	now := time.Now()
	po.Status = to
	switch to {
	case entity.POStatusSent:
		po.SentAt = &now
	case entity.POStatusConfirmed:
		po.ConfirmedAt = &now
	}

	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}

	s.logActivity(ctx, "purchase_order", po.ID, po.PONumber, "status_change", from, to, userID, nil)
	if notificationType != "" {
		s.notify(ctx, po.CreatedBy, notificationType, "Purchase order "+to,
			fmt.Sprintf("Purchase order %s is now %s.", po.PONumber, to), po.ID)
	}
	return po, nil
}

// ListActivity returns the audit trail for an entity, newest first
func (s *ProcurementService) ListActivity(ctx context.Context, entityType, entityID string, limit int) ([]entity.ActivityLog, error) {
	return s.activityRepo.FindByEntity(ctx, entityType, entityID, limit)
}

func (s *ProcurementService) logActivity(ctx context.Context, entityType, entityID, entityCode, action, from, to, operatorID string, metadata entity.JSONB) {
	logEntry := &entity.ActivityLog{
		ID:         uuid.New().String(),
		EntityType: entityType,
		EntityID:   entityID,
		EntityCode: entityCode,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Metadata:   metadata,
		OperatorID: operatorID,
	}
	if err := s.activityRepo.Create(ctx, logEntry); err != nil {
		s.logger.Warn("failed to write activity log",
			zap.String("entity_type", entityType), zap.String("entity_id", entityID), zap.Error(err))
	}
}

func (s *ProcurementService) notify(ctx context.Context, userID, ntype, title, body, entityID string) {
	n := &entity.Notification{
		ID:         uuid.New().String(),
		UserID:     userID,
		Type:       ntype,
		Title:      title,
		Body:       body,
		EntityType: "purchase_order",
		EntityID:   entityID,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to persist notification", zap.String("user_id", userID), zap.Error(err))
	}
}
