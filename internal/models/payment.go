package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment records one member's share of an expense. Rows are created
// atomically with the expense, one per membership that held fractions at
// creation time, and are rewritten in place when the expense amount changes.
type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ExpenseID    uint `gorm:"index" json:"expense_id"`
	MembershipID uint `gorm:"index" json:"membership_id"`
	UserID       uint `gorm:"index" json:"user_id"`

	AmountOwed decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount_owed"`
	Paid       bool            `gorm:"default:false" json:"paid"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`

	// Relationships
	Expense    Expense    `gorm:"foreignKey:ExpenseID" json:"expense,omitempty"`
	Membership Membership `gorm:"foreignKey:MembershipID" json:"membership,omitempty"`
	User       User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
