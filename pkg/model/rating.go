package model

import "time"

const (
	MinScore = 1
	MaxScore = 10
)

// Rating domain object defining a user's score of a party. A user has at most one rating per party.
// swagger:model
type Rating struct {
	PartyID   uint      `gorm:"primaryKey;autoIncrement:false" json:"partyId"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Score     int       `json:"score"`
}
