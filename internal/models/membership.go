package models

import (
	"time"
)

// MembershipRole represents the role a member holds within a property
type MembershipRole string

const (
	RoleMaster MembershipRole = "proprietario_master"
	RoleCommon MembershipRole = "proprietario_comum"
)

// MembershipStatus represents the lifecycle state of a membership.
// Removal is modeled as an explicit status so removed rows stay
// queryable for history, not as a bare soft-delete timestamp.
type MembershipStatus string

const (
	MembershipStatusActive  MembershipStatus = "active"
	MembershipStatusRemoved MembershipStatus = "removed"
)

// Membership links a User to a Property with a role and a fraction allocation.
// One row per user-property pair.
type Membership struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Not unique: a removed membership keeps its row, and the same user
	// may be invited back later under a fresh one.
	PropertyID uint `gorm:"index:idx_memberships_property_user,priority:1" json:"property_id"`
	UserID     uint `gorm:"index:idx_memberships_property_user,priority:2" json:"user_id"`

	Role          MembershipRole `gorm:"type:varchar(30);default:'proprietario_comum'" json:"role"`
	FractionCount int            `gorm:"default:0" json:"fraction_count"`

	// CurrentDayBalance is a running counter of usage days left this cycle.
	// It is seeded from FractionCount at assignment time and then moves
	// independently: reservation confirm debits it, cancellation restores
	// it. Quota edits do not retroactively rewrite consumed balance.
	CurrentDayBalance float64 `json:"current_day_balance"`

	Status    MembershipStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	RemovedAt *time.Time       `json:"removed_at,omitempty"`

	// Relationships
	Property Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	User     User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsMaster reports whether the membership holds the master role.
func (m Membership) IsMaster() bool {
	return m.Role == RoleMaster
}
