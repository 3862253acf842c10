package entity

import "time"

// Vendor supplier of materials or services, target of purchase orders and ratings
type Vendor struct {
	ID            string      `json:"id" gorm:"primaryKey;size:36"`
	Code          string      `json:"code" gorm:"size:32;uniqueIndex;not null"`
	CompanyName   string      `json:"company_name" gorm:"size:200;not null"`
	ContactPerson string      `json:"contact_person" gorm:"size:100"`
	Email         string      `json:"email" gorm:"size:200"`
	Phone         string      `json:"phone" gorm:"size:50"`
	Address       string      `json:"address" gorm:"size:500"`
	Specialties   StringArray `json:"specialties" gorm:"type:jsonb"`
	IsActive      bool        `json:"is_active" gorm:"default:true"`
	CreatedBy     string      `json:"created_by" gorm:"size:36"`
	Notes         string      `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (Vendor) TableName() string {
	return "vendors"
}

// VendorRating per-project per-rater assessment. The average is never stored,
// readers recompute it from the full history.
type VendorRating struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	VendorID     string    `json:"vendor_id" gorm:"size:36;not null;uniqueIndex:idx_rating_vendor_project_rater"`
	ProjectID    string    `json:"project_id" gorm:"size:36;not null;uniqueIndex:idx_rating_vendor_project_rater"`
	RaterID      string    `json:"rater_id" gorm:"size:36;not null;uniqueIndex:idx_rating_vendor_project_rater"`
	OverallScore float64   `json:"overall_score" gorm:"type:decimal(3,1);not null"`
	Comment      string    `json:"comment" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

func (VendorRating) TableName() string {
	return "vendor_ratings"
}
