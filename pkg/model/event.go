package model

import (
	"encoding/json"
	"time"
)

const (
	EventPartyCreated       = "party.created"
	EventPartyDeleted       = "party.deleted"
	EventCommentCreated     = "comment.created"
	EventSouvenirUploaded   = "souvenir.uploaded"
	EventUploadProgress     = "upload-progress"
	EventCommentOnYourParty = "comment-on-your-party"
)

// Event is an entry of the activity log. The same payload is published to the message broker.
// swagger:model
type Event struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time       `json:"createdAt"`
	Kind      string          `json:"kind" gorm:"index"`
	UserID    *uint           `json:"userId"`
	PartyID   *uint           `json:"partyId"`
	Payload   json.RawMessage `json:"payload" gorm:"type:jsonb;default:'{}';not null"`
}
