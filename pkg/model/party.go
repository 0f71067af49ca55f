package model

import (
	"time"

	"gorm.io/gorm"
)

// Party domain object defining a social event
// swagger:model
type Party struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `json:"title"`
	Slug        string         `gorm:"uniqueIndex" json:"slug"`
	Description string         `json:"description"`
	City        string         `gorm:"index" json:"city"`
	Address     string         `json:"address,omitempty"`
	StartsAt    time.Time      `gorm:"index" json:"startsAt"`
	Latitude    *float64       `json:"latitude,omitempty"`
	Longitude   *float64       `json:"longitude,omitempty"`
	CreatorID   uint           `gorm:"index" json:"creatorId"`
	Creator     *User          `json:"creator,omitempty"`
}

// HasCoordinates reports whether the party has been geocoded.
func (p Party) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}
