package service

import (
	"context"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
)

// NotificationService in-app notification feed
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
}

func NewNotificationService(notificationRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// ListNotifications pages through a user's notifications, newest first
func (s *NotificationService) ListNotifications(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]entity.Notification, int64, error) {
	return s.notificationRepo.FindByUser(ctx, userID, unreadOnly, page, pageSize)
}

// MarkRead marks one notification as read. The user id guards against
// marking another user's notification.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}
