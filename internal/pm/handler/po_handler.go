package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/service"
)

// POHandler purchase orders, delivery reconciliation and the register export
type POHandler struct {
	svc      *service.ProcurementService
	delivery *service.DeliveryService
	report   *service.ReportService
	access   *service.AccessService
}

func NewPOHandler(svc *service.ProcurementService, delivery *service.DeliveryService, report *service.ReportService, access *service.AccessService) *POHandler {
	return &POHandler{svc: svc, delivery: delivery, report: report, access: access}
}

// loadScopedPO fetches an order and hides it when its project is out of scope
func (h *POHandler) loadScopedPO(c *gin.Context, id string) (*entity.PurchaseOrder, bool) {
	po, err := h.svc.GetPO(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return nil, false
	}
	projectID := ""
	if po.PurchaseRequest != nil {
		projectID = po.PurchaseRequest.ProjectID
	}
	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), projectID) {
		NotFound(c, "resource not found")
		return nil, false
	}
	return po, true
}

// ListPOs
// GET /api/v1/purchase-orders?project_id=xxx&vendor_id=xxx&status=xxx&search=xxx
func (h *POHandler) ListPOs(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"project_id": c.Query("project_id"),
		"vendor_id":  c.Query("vendor_id"),
		"status":     c.Query("status"),
		"search":     c.Query("search"),
	}

	ids, restrict := h.access.ListAccessibleProjects(c.Request.Context(), GetUserID(c), GetUserRole(c))
	items, total, err := h.svc.ListPOs(c.Request.Context(), page, pageSize, filters, ids, restrict)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// GetPO
// GET /api/v1/purchase-orders/:id
func (h *POHandler) GetPO(c *gin.Context) {
	po, ok := h.loadScopedPO(c, c.Param("id"))
	if !ok {
		return
	}
	Success(c, po)
}

// CreatePO
// POST /api/v1/purchase-orders
func (h *POHandler) CreatePO(c *gin.Context) {
	if !h.access.Can(GetUserRole(c), service.CapPOCreate) {
		Forbidden(c, "operation not permitted")
		return
	}

	var req service.CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	pr, err := h.svc.GetPR(c.Request.Context(), req.PurchaseRequestID)
	if err != nil {
		RespondError(c, err)
		return
	}
	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), pr.ProjectID) {
		NotFound(c, "resource not found")
		return
	}

	po, err := h.svc.CreatePO(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, po)
}

// SendPO
// POST /api/v1/purchase-orders/:id/send
func (h *POHandler) SendPO(c *gin.Context) {
	h.transition(c, service.CapPOSend, h.svc.SendPO)
}

// ConfirmPO
// POST /api/v1/purchase-orders/:id/confirm
func (h *POHandler) ConfirmPO(c *gin.Context) {
	h.transition(c, service.CapPOConfirm, h.svc.ConfirmPO)
}

// CompletePO
// POST /api/v1/purchase-orders/:id/complete
func (h *POHandler) CompletePO(c *gin.Context) {
	h.transition(c, service.CapPOCreate, h.svc.CompletePO)
}

// CancelPO
// POST /api/v1/purchase-orders/:id/cancel
func (h *POHandler) CancelPO(c *gin.Context) {
	h.transition(c, service.CapPOCancel, h.svc.CancelPO)
}

func (h *POHandler) transition(c *gin.Context, capability service.Capability, fn func(ctx context.Context, id, userID string) (*entity.PurchaseOrder, error)) {
	po, ok := h.loadScopedPO(c, c.Param("id"))
	if !ok {
		return
	}
	if !h.access.Can(GetUserRole(c), capability) {
		Forbidden(c, "operation not permitted")
		return
	}

	po, err := fn(c.Request.Context(), po.ID, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, po)
}

// RecordDelivery records a delivery confirmation against an order
// POST /api/v1/purchase-orders/:id/deliveries
func (h *POHandler) RecordDelivery(c *gin.Context) {
	po, ok := h.loadScopedPO(c, c.Param("id"))
	if !ok {
		return
	}
	if !h.access.Can(GetUserRole(c), service.CapDeliveryRecord) {
		Forbidden(c, "operation not permitted")
		return
	}

	var req service.RecordDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	result, err := h.delivery.RecordDelivery(c.Request.Context(), po.ID, GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	if result.Replayed {
		Success(c, result)
		return
	}
	Created(c, result)
}

// ListDeliveries
// GET /api/v1/purchase-orders/:id/deliveries
func (h *POHandler) ListDeliveries(c *gin.Context) {
	po, ok := h.loadScopedPO(c, c.Param("id"))
	if !ok {
		return
	}

	items, err := h.delivery.ListDeliveries(c.Request.Context(), po.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, items)
}

// ListActivity returns the audit trail for an order
// GET /api/v1/purchase-orders/:id/activity
func (h *POHandler) ListActivity(c *gin.Context) {
	po, ok := h.loadScopedPO(c, c.Param("id"))
	if !ok {
		return
	}

	limit := 0
	if l := c.Query("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}
	items, err := h.svc.ListActivity(c.Request.Context(), "purchase_order", po.ID, limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, items)
}

// ListEntityActivity returns the audit trail for any procurement entity.
// Unknown types and out-of-scope entities look identical to missing ones.
// GET /api/v1/activities/:entityType/:entityId
func (h *POHandler) ListEntityActivity(c *gin.Context) {
	entityType := c.Param("entityType")
	entityID := c.Param("entityId")

	var projectID string
	switch entityType {
	case "purchase_order":
		po, err := h.svc.GetPO(c.Request.Context(), entityID)
		if err != nil {
			RespondError(c, err)
			return
		}
		if po.PurchaseRequest != nil {
			projectID = po.PurchaseRequest.ProjectID
		}
	case "purchase_request":
		pr, err := h.svc.GetPR(c.Request.Context(), entityID)
		if err != nil {
			RespondError(c, err)
			return
		}
		projectID = pr.ProjectID
	default:
		NotFound(c, "resource not found")
		return
	}

	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), projectID) {
		NotFound(c, "resource not found")
		return
	}

	limit := 0
	if l := c.Query("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}
	items, err := h.svc.ListActivity(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, items)
}

// ExportRegister streams the purchase order register as xlsx
// GET /api/v1/purchase-orders/export
func (h *POHandler) ExportRegister(c *gin.Context) {
	if !h.access.Can(GetUserRole(c), service.CapReportExport) {
		Forbidden(c, "operation not permitted")
		return
	}

	filters := map[string]string{
		"project_id": c.Query("project_id"),
		"vendor_id":  c.Query("vendor_id"),
		"status":     c.Query("status"),
	}
	ids, restrict := h.access.ListAccessibleProjects(c.Request.Context(), GetUserID(c), GetUserRole(c))

	f, filename, err := h.report.ExportPORegister(c.Request.Context(), filters, ids, restrict)
	if err != nil {
		RespondError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
