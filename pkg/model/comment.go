package model

import (
	"time"

	"gorm.io/gorm"
)

// Comment domain object defining a comment on a party. Replies reference their root comment
// through ParentID, threads are therefore one level deep.
// swagger:model
type Comment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	PartyID   uint           `gorm:"index" json:"partyId"`
	UserID    uint           `gorm:"index" json:"userId"`
	User      *User          `json:"user,omitempty"`
	ParentID  *uint          `gorm:"index" json:"parentId,omitempty"`
	Body      string         `json:"body"`
	Deleted   bool           `gorm:"-" json:"deleted,omitempty"`
	Replies   []Comment      `gorm:"-" json:"replies,omitempty"`
}
