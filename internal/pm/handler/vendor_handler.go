package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/keramy/formulapmv2-sub007/internal/pm/service"
)

// VendorHandler vendor directory and ratings
type VendorHandler struct {
	svc    *service.VendorService
	rating *service.RatingService
	access *service.AccessService
}

func NewVendorHandler(svc *service.VendorService, rating *service.RatingService, access *service.AccessService) *VendorHandler {
	return &VendorHandler{svc: svc, rating: rating, access: access}
}

// ListVendors
// GET /api/v1/vendors?is_active=true&search=xxx
func (h *VendorHandler) ListVendors(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"is_active": c.Query("is_active"),
		"search":    c.Query("search"),
	}

	items, total, err := h.svc.ListVendors(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// GetVendor
// GET /api/v1/vendors/:id
func (h *VendorHandler) GetVendor(c *gin.Context) {
	vendor, err := h.svc.GetVendor(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, vendor)
}

// CreateVendor
// POST /api/v1/vendors
func (h *VendorHandler) CreateVendor(c *gin.Context) {
	if !h.access.Can(GetUserRole(c), service.CapVendorManage) {
		Forbidden(c, "operation not permitted")
		return
	}

	var req service.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	vendor, err := h.svc.CreateVendor(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, vendor)
}

// UpdateVendor
// PUT /api/v1/vendors/:id
func (h *VendorHandler) UpdateVendor(c *gin.Context) {
	if !h.access.Can(GetUserRole(c), service.CapVendorManage) {
		Forbidden(c, "operation not permitted")
		return
	}

	var req service.UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	vendor, err := h.svc.UpdateVendor(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, vendor)
}

// GetVendorRatings returns the rating history with the recomputed average
// GET /api/v1/vendors/:id/ratings
func (h *VendorHandler) GetVendorRatings(c *gin.Context) {
	history, err := h.rating.GetVendorRatings(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, history)
}

// SubmitRating
// POST /api/v1/vendors/:id/ratings
func (h *VendorHandler) SubmitRating(c *gin.Context) {
	if !h.access.Can(GetUserRole(c), service.CapRatingSubmit) {
		Forbidden(c, "operation not permitted")
		return
	}

	var req service.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	// the rating is tied to a project the rater must be able to see
	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), req.ProjectID) {
		NotFound(c, "resource not found")
		return
	}

	result, err := h.rating.SubmitRating(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, result)
}
