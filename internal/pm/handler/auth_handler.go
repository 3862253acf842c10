package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/keramy/formulapmv2-sub007/internal/pm/service"
)

// AuthHandler login and user administration
type AuthHandler struct {
	svc    *service.AuthService
	access *service.AccessService
}

func NewAuthHandler(svc *service.AuthService, access *service.AccessService) *AuthHandler {
	return &AuthHandler{svc: svc, access: access}
}

// Login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

// Me returns the authenticated user's identity from the token
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	Success(c, gin.H{
		"id":    GetUserID(c),
		"name":  c.GetString("user_name"),
		"email": c.GetString("user_email"),
		"role":  GetUserRole(c),
	})
}

// ListUsers
// GET /api/v1/users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	if !h.access.Can(GetUserRole(c), service.CapUserList) {
		Forbidden(c, "operation not permitted")
		return
	}

	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"role":   c.Query("role"),
		"search": c.Query("search"),
	}

	items, total, err := h.svc.ListUsers(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// CreateUser
// POST /api/v1/users
func (h *AuthHandler) CreateUser(c *gin.Context) {
	if !h.access.Can(GetUserRole(c), service.CapUserList) {
		Forbidden(c, "operation not permitted")
		return
	}

	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, user)
}
