package models

import (
	"time"

	"gorm.io/gorm"
)

// ChecklistType distinguishes check-in from check-out snapshots
type ChecklistType string

const (
	ChecklistTypeCheckIn  ChecklistType = "checkin"
	ChecklistTypeCheckOut ChecklistType = "checkout"
)

// Checklist is an inventory condition snapshot taken at check-in or
// check-out of a reservation.
type Checklist struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ReservationID uint          `gorm:"index" json:"reservation_id"`
	Type          ChecklistType `gorm:"type:varchar(20)" json:"type"`

	// Items maps inventory item name to its observed condition.
	Items map[string]interface{} `gorm:"serializer:json" json:"items"`
	Notes string                 `gorm:"type:text" json:"notes"`
}
