package models

import (
	"time"

	"gorm.io/gorm"
)

// InviteStatus represents the status of an invite
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusAccepted  InviteStatus = "accepted"
	InviteStatusExpired   InviteStatus = "expired"
	InviteStatusCancelled InviteStatus = "cancelled"
)

// InviteTTL is how long an invite stays acceptable after creation.
const InviteTTL = 7 * 24 * time.Hour

// Invite is a pending offer of fractions from a master to an email address.
// The fractions are only moved when the invite is accepted.
type Invite struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Token      string `gorm:"type:varchar(64);uniqueIndex" json:"token"`
	PropertyID uint   `gorm:"index" json:"property_id"`
	InviterID  uint   `json:"inviter_id"`

	InviteeEmail  string         `gorm:"type:varchar(255);index" json:"invitee_email"`
	ProposedRole  MembershipRole `gorm:"type:varchar(30);default:'proprietario_comum'" json:"proposed_role"`
	FractionCount int            `json:"fraction_count"`

	Status    InviteStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ExpiresAt time.Time    `json:"expires_at"`

	// Relationships
	Property Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Inviter  User     `gorm:"foreignKey:InviterID" json:"inviter,omitempty"`
}

// Expired reports whether the invite is past its expiry timestamp.
// Rows are expired lazily: a pending invite past ExpiresAt reads as
// expired even before the status column is rewritten.
func (i Invite) Expired() bool {
	return time.Now().After(i.ExpiresAt)
}
