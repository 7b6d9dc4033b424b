package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/teambition/rrule-go"
	"gorm.io/gorm"
)

// ExpenseStatus represents the aggregate payment status of an expense
type ExpenseStatus string

const (
	ExpenseStatusPending       ExpenseStatus = "pending"
	ExpenseStatusPartiallyPaid ExpenseStatus = "partially_paid"
	ExpenseStatusPaid          ExpenseStatus = "paid"
	ExpenseStatusCancelled     ExpenseStatus = "cancelled"
)

// Expense is a property-wide cost split across the active members
// proportionally to their fraction counts.
type Expense struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PropertyID  uint            `gorm:"index" json:"property_id"`
	Description string          `gorm:"type:varchar(255)" json:"description"`
	Category    string          `gorm:"type:varchar(100)" json:"category"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	DueDate     time.Time       `json:"due_date"`

	// Recurring expenses carry an RFC 5545 RRULE string; the worker
	// materializes the next occurrence as a fresh Expense row.
	Recurring         bool    `gorm:"default:false" json:"recurring"`
	RecurringInterval *string `gorm:"type:text" json:"recurring_interval"`

	Status ExpenseStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`

	// Relationships
	Property Property  `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Payments []Payment `gorm:"foreignKey:ExpenseID" json:"payments,omitempty"`
}

// NextDue calculates the next occurrence for a recurring expense,
// strictly after the current due date.
func (e Expense) NextDue() time.Time {
	if !e.Recurring {
		return e.DueDate
	}

	if e.RecurringInterval != nil && *e.RecurringInterval != "" {
		rule, err := rrule.StrToRRule(*e.RecurringInterval)
		if err == nil {
			rule.DTStart(e.DueDate)
			next := rule.After(e.DueDate, false)
			if !next.IsZero() {
				return next
			}
		}
	}
	// Fallback to current due date if parsing fails or the rule is exhausted
	return e.DueDate
}
