package model

import "time"

type SouvenirKind string

const (
	SouvenirPhoto SouvenirKind = "photo"
	SouvenirVideo SouvenirKind = "video"
	SouvenirAudio SouvenirKind = "audio"
)

// Souvenir domain object defining a media item attached to a party
// swagger:model
type Souvenir struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time    `json:"createdAt"`
	PartyID      uint         `gorm:"index" json:"partyId"`
	UserID       uint         `gorm:"index" json:"userId"`
	Kind         SouvenirKind `gorm:"index" json:"kind"`
	ContentType  string       `json:"contentType"`
	Key          string       `gorm:"uniqueIndex" json:"-"`
	Size         int64        `json:"size"`
	OriginalName string       `json:"originalName"`
	Width        int          `json:"width,omitempty"`
	Height       int          `json:"height,omitempty"`
	Caption      string       `json:"caption,omitempty"`
}
