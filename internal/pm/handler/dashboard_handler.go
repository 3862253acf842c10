package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/keramy/formulapmv2-sub007/internal/pm/service"
)

// DashboardHandler scope-filtered summary counters
type DashboardHandler struct {
	svc    *service.DashboardService
	access *service.AccessService
}

func NewDashboardHandler(svc *service.DashboardService, access *service.AccessService) *DashboardHandler {
	return &DashboardHandler{svc: svc, access: access}
}

// GetSummary
// GET /api/v1/dashboard/summary
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	ids, restrict := h.access.ListAccessibleProjects(c.Request.Context(), GetUserID(c), GetUserRole(c))

	summary, err := h.svc.GetSummary(c.Request.Context(), ids, restrict)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, summary)
}
