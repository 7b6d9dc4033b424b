package models

import (
	"time"

	"gorm.io/gorm"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCheckedIn ReservationStatus = "checked_in"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Reservation is a booking of a property for a half-open [start, end)
// date range. Two non-cancelled reservations of the same property never
// overlap.
type Reservation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PropertyID uint `gorm:"index" json:"property_id"`
	UserID     uint `gorm:"index" json:"user_id"`

	StartDate time.Time         `gorm:"index" json:"start_date"`
	EndDate   time.Time         `json:"end_date"`
	Status    ReservationStatus `gorm:"type:varchar(20);default:'confirmed';index" json:"status"`

	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	// Relationships
	Property   Property    `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	User       User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Checklists []Checklist `gorm:"foreignKey:ReservationID" json:"checklists,omitempty"`
}

// Nights returns the stay length in days of the half-open range.
func (r Reservation) Nights() int {
	return int(r.EndDate.Sub(r.StartDate).Hours() / 24)
}
