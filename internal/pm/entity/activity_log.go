package entity

import "time"

// ActivityLog audit trail entry for entity state changes
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_activity_entity"` // project/purchase_request/purchase_order/delivery/vendor/rating
	EntityID   string `json:"entity_id" gorm:"size:36;not null;index:idx_activity_entity"`
	EntityCode string `json:"entity_code" gorm:"size:50"`

	Action     string `json:"action" gorm:"size:50;not null"` // create/status_change/delivery_recorded/rating_submitted/assign/unassign
	FromStatus string `json:"from_status" gorm:"size:20"`
	ToStatus   string `json:"to_status" gorm:"size:20"`

	Content  string `json:"content" gorm:"type:text"`
	Metadata JSONB  `json:"metadata" gorm:"type:jsonb"`

	OperatorID string    `json:"operator_id" gorm:"size:36"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
