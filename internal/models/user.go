package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a user in the system. Authentication lives in Firebase;
// this row only mirrors the profile data the backend needs.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FirebaseUID string `gorm:"type:varchar(128);uniqueIndex" json:"-"`
	Name        string `gorm:"type:varchar(255)" json:"name"`
	Phone       string `gorm:"type:varchar(50)" json:"phone"`
	Email       string `gorm:"type:varchar(255);uniqueIndex" json:"email"`

	// Relationships
	Memberships   []Membership   `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	Reservations  []Reservation  `gorm:"foreignKey:UserID" json:"reservations,omitempty"`
	Payments      []Payment      `gorm:"foreignKey:UserID" json:"payments,omitempty"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}
