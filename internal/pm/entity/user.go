package entity

import "time"

// User account with a single role that drives access scope
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"size:200;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:100;not null"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	Role         string    `json:"role" gorm:"size:50;not null;index"`
	Company      string    `json:"company" gorm:"size:200"`
	Phone        string    `json:"phone" gorm:"size:50"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Management roles see every project
const (
	RoleCompanyOwner         = "company_owner"
	RoleGeneralManager       = "general_manager"
	RoleDeputyGeneralManager = "deputy_general_manager"
	RoleTechnicalDirector    = "technical_director"
	RoleAdmin                = "admin"
)

// Assigned-scope roles see projects they are assigned to (or manage)
const (
	RoleProjectManager     = "project_manager"
	RolePurchaseDirector   = "purchase_director"
	RolePurchaseSpecialist = "purchase_specialist"
	RoleArchitect          = "architect"
	RoleFieldEngineer      = "field_engineer"
)

// RoleClient sees projects whose client record it owns
const RoleClient = "client"

var managementRoles = map[string]bool{
	RoleCompanyOwner:         true,
	RoleGeneralManager:       true,
	RoleDeputyGeneralManager: true,
	RoleTechnicalDirector:    true,
	RoleAdmin:                true,
}

var assignedScopeRoles = map[string]bool{
	RoleProjectManager:     true,
	RolePurchaseDirector:   true,
	RolePurchaseSpecialist: true,
	RoleArchitect:          true,
	RoleFieldEngineer:      true,
}

// IsManagementRole reports whether role grants unrestricted project visibility.
func IsManagementRole(role string) bool {
	return managementRoles[role]
}

// HasAssignedScope reports whether role derives visibility from project assignments.
func HasAssignedScope(role string) bool {
	return assignedScopeRoles[role]
}
