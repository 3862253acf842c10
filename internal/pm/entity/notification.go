package entity

import "time"

// Notification in-app message persisted for a user
type Notification struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	UserID     string    `json:"user_id" gorm:"size:36;not null;index"`
	Type       string    `json:"type" gorm:"size:50;not null"` // delivery_completed/po_sent/po_confirmed/po_cancelled/rating_received
	Title      string    `json:"title" gorm:"size:200;not null"`
	Body       string    `json:"body" gorm:"type:text"`
	EntityType string    `json:"entity_type" gorm:"size:50"`
	EntityID   string    `json:"entity_id" gorm:"size:36"`
	IsRead     bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Notification types
const (
	NotificationDeliveryCompleted = "delivery_completed"
	NotificationPOSent            = "po_sent"
	NotificationPOConfirmed       = "po_confirmed"
	NotificationPOCancelled       = "po_cancelled"
	NotificationRatingReceived    = "rating_received"
)
