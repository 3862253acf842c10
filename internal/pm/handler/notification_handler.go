package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/keramy/formulapmv2-sub007/internal/pm/service"
)

// NotificationHandler the caller's notification feed
type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// ListNotifications
// GET /api/v1/notifications?unread=true
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	page, pageSize := GetPagination(c)
	unreadOnly := c.Query("unread") == "true"

	items, total, err := h.svc.ListNotifications(c.Request.Context(), GetUserID(c), unreadOnly, page, pageSize)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// MarkRead
// POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"read": true})
}
