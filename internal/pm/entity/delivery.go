package entity

import "time"

// DeliveryConfirmation record of goods received against a purchase order.
// Append-only: corrections are new records, never updates.
type DeliveryConfirmation struct {
	ID               string      `json:"id" gorm:"primaryKey;size:36"`
	PurchaseOrderID  string      `json:"purchase_order_id" gorm:"size:36;not null;index;uniqueIndex:idx_delivery_po_idem_key"`
	ConfirmedBy      string      `json:"confirmed_by" gorm:"size:36;not null"`
	DeliveryDate     time.Time   `json:"delivery_date" gorm:"not null"`
	QuantityReceived float64     `json:"quantity_received" gorm:"type:decimal(12,2);not null"`
	QuantityOrdered  float64     `json:"quantity_ordered" gorm:"type:decimal(12,2);not null"` // snapshot target for this shipment
	Status           string      `json:"status" gorm:"size:20;not null"`                      // partial/completed
	ConditionNotes   string      `json:"condition_notes" gorm:"size:1000"`
	Photos           StringArray `json:"photos" gorm:"type:jsonb"`
	IdempotencyKey   *string     `json:"idempotency_key,omitempty" gorm:"size:64;uniqueIndex:idx_delivery_po_idem_key"`
	CreatedAt        time.Time   `json:"created_at"`
}

func (DeliveryConfirmation) TableName() string {
	return "delivery_confirmations"
}

// Delivery status
const (
	DeliveryStatusPartial   = "partial"
	DeliveryStatusCompleted = "completed"
)

// Timeliness classification relative to the PO expected delivery date
const (
	TimelinessEarly   = "early"
	TimelinessOnTime  = "on_time"
	TimelinessLate    = "late"
	TimelinessUnknown = "unknown"
)
