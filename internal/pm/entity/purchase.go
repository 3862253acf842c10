package entity

import "time"

// PurchaseRequest demand for a quantity of an item on a project.
// Immutable once a purchase order has been placed against it.
type PurchaseRequest struct {
	ID              string     `json:"id" gorm:"primaryKey;size:36"`
	Code            string     `json:"code" gorm:"size:32;uniqueIndex;not null"`
	ProjectID       string     `json:"project_id" gorm:"size:36;not null;index"`
	ItemDescription string     `json:"item_description" gorm:"size:500;not null"`
	Quantity        float64    `json:"quantity" gorm:"type:decimal(12,2);not null"`
	Unit            string     `json:"unit" gorm:"size:20;default:pcs"`
	RequiredDate    *time.Time `json:"required_date"`
	Urgency         string     `json:"urgency" gorm:"size:20;default:normal"` // low/normal/high/emergency
	Justification   string     `json:"justification" gorm:"type:text"`
	Status          string     `json:"status" gorm:"size:20;default:pending"` // pending/approved/ordered/cancelled
	RequestedBy     string     `json:"requested_by" gorm:"size:36"`
	ApprovedBy      *string    `json:"approved_by" gorm:"size:36"`
	ApprovedAt      *time.Time `json:"approved_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}

// Purchase request status
const (
	PRStatusPending   = "pending"
	PRStatusApproved  = "approved"
	PRStatusOrdered   = "ordered"
	PRStatusCancelled = "cancelled"
)

// Request urgency
const (
	UrgencyLow       = "low"
	UrgencyNormal    = "normal"
	UrgencyHigh      = "high"
	UrgencyEmergency = "emergency"
)

// PurchaseOrder commitment to a vendor, derived from an approved request
type PurchaseOrder struct {
	ID                   string     `json:"id" gorm:"primaryKey;size:36"`
	PONumber             string     `json:"po_number" gorm:"size:32;uniqueIndex;not null"`
	PurchaseRequestID    string     `json:"purchase_request_id" gorm:"size:36;not null;index"`
	VendorID             string     `json:"vendor_id" gorm:"size:36;not null;index"`
	Status               string     `json:"status" gorm:"size:20;default:draft"` // draft/sent/confirmed/delivered/completed/cancelled
	TotalAmount          *float64   `json:"total_amount" gorm:"type:decimal(15,2)"`
	Currency             string     `json:"currency" gorm:"size:10;default:USD"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date"`
	ActualDeliveryDate   *time.Time `json:"actual_delivery_date"`
	QuantityReceived     float64    `json:"quantity_received" gorm:"not null;default:0"`
	Terms                string     `json:"terms" gorm:"size:500"`
	CreatedBy            string     `json:"created_by" gorm:"size:36"`
	SentAt               *time.Time `json:"sent_at"`
	ConfirmedAt          *time.Time `json:"confirmed_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	Vendor          *Vendor               `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	PurchaseRequest *PurchaseRequest      `json:"purchase_request,omitempty" gorm:"foreignKey:PurchaseRequestID"`
	Deliveries      []DeliveryConfirmation `json:"deliveries,omitempty" gorm:"foreignKey:PurchaseOrderID"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// PO status. Forward-only: draft → sent → confirmed → delivered → completed,
// cancelled reachable from any non-terminal state.
const (
	POStatusDraft     = "draft"
	POStatusSent      = "sent"
	POStatusConfirmed = "confirmed"
	POStatusDelivered = "delivered"
	POStatusCompleted = "completed"
	POStatusCancelled = "cancelled"
)

// IsTerminalPOStatus reports whether no further transition is allowed.
func IsTerminalPOStatus(status string) bool {
	return status == POStatusCompleted || status == POStatusCancelled
}

// IsDeliverablePOStatus reports whether deliveries may be recorded.
func IsDeliverablePOStatus(status string) bool {
	return status == POStatusSent || status == POStatusConfirmed
}
