package entity

import "time"

// Project construction project
type Project struct {
	ID               string     `json:"id" gorm:"primaryKey;size:36"`
	Code             string     `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name             string     `json:"name" gorm:"size:200;not null"`
	Description      string     `json:"description" gorm:"type:text"`
	Status           string     `json:"status" gorm:"size:20;default:planning"` // planning/active/on_hold/completed/cancelled
	ClientID         *string    `json:"client_id" gorm:"size:36;index"`
	ProjectManagerID *string    `json:"project_manager_id" gorm:"size:36;index"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	Budget           *float64   `json:"budget" gorm:"type:decimal(15,2)"`
	CreatedBy        string     `json:"created_by" gorm:"size:36"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Client         *Client `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	ProjectManager *User   `json:"project_manager,omitempty" gorm:"foreignKey:ProjectManagerID"`
}

func (Project) TableName() string {
	return "projects"
}

// Project status
const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCompleted = "completed"
	ProjectStatusCancelled = "cancelled"
)

// ProjectAssignment grants a non-management user visibility into one project.
// Removal deactivates the row; assignments are never hard-deleted.
type ProjectAssignment struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	ProjectID  string    `json:"project_id" gorm:"size:36;not null;uniqueIndex:idx_assignment_project_user"`
	UserID     string    `json:"user_id" gorm:"size:36;not null;uniqueIndex:idx_assignment_project_user"`
	IsActive   bool      `json:"is_active" gorm:"index"`
	AssignedBy string    `json:"assigned_by" gorm:"size:36"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (ProjectAssignment) TableName() string {
	return "project_assignments"
}

// Client portal owner; Project.ClientID points here, the owning login is UserID.
type Client struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	UserID        string    `json:"user_id" gorm:"size:36;not null;index"`
	CompanyName   string    `json:"company_name" gorm:"size:200;not null"`
	ContactPerson string    `json:"contact_person" gorm:"size:100"`
	Email         string    `json:"email" gorm:"size:200"`
	Phone         string    `json:"phone" gorm:"size:50"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}
