package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification is an in-app notification delivered to one property member.
// Rows are written by the worker after the originating transaction has
// already committed; losing one never affects the primary operation.
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID     uint `gorm:"index" json:"user_id"`
	PropertyID uint `gorm:"index" json:"property_id"`
	AuthorID   uint `json:"author_id"`

	Message string     `gorm:"type:text" json:"message"`
	ReadAt  *time.Time `json:"read_at,omitempty"`

	// Relationships
	User     User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Property Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}
