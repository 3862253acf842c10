package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/keramy/formulapmv2-sub007/internal/pm/service"
)

// PRHandler purchase requests
type PRHandler struct {
	svc    *service.ProcurementService
	access *service.AccessService
}

func NewPRHandler(svc *service.ProcurementService, access *service.AccessService) *PRHandler {
	return &PRHandler{svc: svc, access: access}
}

// ListPRs
// GET /api/v1/purchase-requests?project_id=xxx&status=xxx&urgency=xxx
func (h *PRHandler) ListPRs(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"project_id": c.Query("project_id"),
		"status":     c.Query("status"),
		"urgency":    c.Query("urgency"),
	}

	ids, restrict := h.access.ListAccessibleProjects(c.Request.Context(), GetUserID(c), GetUserRole(c))
	items, total, err := h.svc.ListPRs(c.Request.Context(), page, pageSize, filters, ids, restrict)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// GetPR
// GET /api/v1/purchase-requests/:id
func (h *PRHandler) GetPR(c *gin.Context) {
	pr, err := h.svc.GetPR(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), pr.ProjectID) {
		NotFound(c, "resource not found")
		return
	}
	Success(c, pr)
}

// CreatePR
// POST /api/v1/purchase-requests
func (h *PRHandler) CreatePR(c *gin.Context) {
	if !h.access.Can(GetUserRole(c), service.CapPRCreate) {
		Forbidden(c, "operation not permitted")
		return
	}

	var req service.CreatePRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), req.ProjectID) {
		NotFound(c, "resource not found")
		return
	}

	pr, err := h.svc.CreatePR(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, pr)
}

// ApprovePR
// POST /api/v1/purchase-requests/:id/approve
func (h *PRHandler) ApprovePR(c *gin.Context) {
	pr, err := h.svc.GetPR(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), pr.ProjectID) {
		NotFound(c, "resource not found")
		return
	}
	if !h.access.Can(GetUserRole(c), service.CapPRApprove) {
		Forbidden(c, "operation not permitted")
		return
	}

	pr, err = h.svc.ApprovePR(c.Request.Context(), pr.ID, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, pr)
}
