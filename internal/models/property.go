package models

import (
	"time"

	"gorm.io/gorm"
)

// Property represents a fractionally owned property
type Property struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name    string `gorm:"type:varchar(255)" json:"name"`
	Address string `gorm:"type:varchar(500)" json:"address"`

	// TotalFractions is fixed at creation and never changes afterwards.
	TotalFractions int `gorm:"not null" json:"total_fractions"`
	// DaysPerFraction = 365 / TotalFractions, derived once at creation.
	DaysPerFraction float64 `json:"days_per_fraction"`

	// Scheduling rules. Zero means "no limit" for the caps.
	MinStayDays           int `gorm:"default:1" json:"min_stay_days"`
	MaxStayDays           int `gorm:"default:30" json:"max_stay_days"`
	MaxActiveReservations int `gorm:"default:0" json:"max_active_reservations"`
	MaxHolidaysPerMember  int `gorm:"default:0" json:"max_holidays_per_member"`
	CancelGraceDays       int `gorm:"default:7" json:"cancel_grace_days"`

	// Relationships
	Memberships  []Membership  `gorm:"foreignKey:PropertyID" json:"memberships,omitempty"`
	Expenses     []Expense     `gorm:"foreignKey:PropertyID" json:"expenses,omitempty"`
	Reservations []Reservation `gorm:"foreignKey:PropertyID" json:"reservations,omitempty"`
	Invites      []Invite      `gorm:"foreignKey:PropertyID" json:"invites,omitempty"`
}
