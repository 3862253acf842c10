package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"github.com/keramy/formulapmv2-sub007/internal/pm/service"
)

// Handlers handler collection
type Handlers struct {
	Auth         *AuthHandler
	Project      *ProjectHandler
	Vendor       *VendorHandler
	PR           *PRHandler
	PO           *POHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
	Upload       *UploadHandler
}

// NewHandlers wires the handler collection
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(services.Auth, services.Access),
		Project:      NewProjectHandler(services.Project, services.Access),
		Vendor:       NewVendorHandler(services.Vendor, services.Rating, services.Access),
		PR:           NewPRHandler(services.Procurement, services.Access),
		PO:           NewPOHandler(services.Procurement, services.Delivery, services.Report, services.Access),
		Notification: NewNotificationHandler(services.Notification),
		Dashboard:    NewDashboardHandler(services.Dashboard, services.Access),
		Upload:       NewUploadHandler(services.Storage),
	}
}

// === Response envelope ===

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewListResponse pairs items with their pagination block
func NewListResponse(items interface{}, page, pageSize int, total int64) ListResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	}
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{Success: true, Data: data})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(400, Response{Success: false, Error: message})
}

func Unauthorized(c *gin.Context, message string) {
	c.JSON(401, Response{Success: false, Error: message})
}

func Forbidden(c *gin.Context, message string) {
	c.JSON(403, Response{Success: false, Error: message})
}

func NotFound(c *gin.Context, message string) {
	c.JSON(404, Response{Success: false, Error: message})
}

func InternalError(c *gin.Context, message string) {
	c.JSON(500, Response{Success: false, Error: message})
}

// RespondError maps service and repository errors to HTTP statuses.
// Unknown errors return a generic message so internals never leak.
func RespondError(c *gin.Context, err error) {
	var businessErr *service.BusinessRuleError
	var overErr *service.OverDeliveryError
	var validationErr *service.ValidationError

	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "resource not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		Unauthorized(c, "invalid credentials")
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, "operation not permitted")
	case errors.As(err, &overErr):
		BadRequest(c, overErr.Error())
	case errors.As(err, &businessErr):
		BadRequest(c, businessErr.Error())
	case errors.As(err, &validationErr):
		BadRequest(c, validationErr.Error())
	default:
		c.Error(err)
		InternalError(c, "internal server error")
	}
}

// === Request context helpers ===

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetUserRole(c *gin.Context) string {
	role, _ := c.Get("role")
	if r, ok := role.(string); ok {
		return r
	}
	return ""
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
