package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories collection wired once in main
type Repositories struct {
	User         *UserRepository
	Project      *ProjectRepository
	Vendor       *VendorRepository
	PR           *PRRepository
	PO           *PORepository
	Delivery     *DeliveryRepository
	Rating       *RatingRepository
	Notification *NotificationRepository
	ActivityLog  *ActivityLogRepository
}

// NewRepositories creates the repository collection
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Project:      NewProjectRepository(db),
		Vendor:       NewVendorRepository(db),
		PR:           NewPRRepository(db),
		PO:           NewPORepository(db),
		Delivery:     NewDeliveryRepository(db),
		Rating:       NewRatingRepository(db),
		Notification: NewNotificationRepository(db),
		ActivityLog:  NewActivityLogRepository(db),
	}
}
