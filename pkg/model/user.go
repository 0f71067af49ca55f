package model

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User domain object defining a user
// swagger:model
type User struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	Email            string         `gorm:"index;unique" json:"email"`
	DisplayName      string         `json:"displayName"`
	Bio              string         `json:"bio,omitempty"`
	AvatarKey        string         `json:"-"`
	AvatarType       string         `json:"-"`
	Password         string         `json:"-"`
	Validated        bool           `json:"validated"`
	EmailToken       uuid.UUID      `gorm:"unique;type:uuid" json:"-"`
	PasswordToken    sql.NullString `gorm:"unique" json:"-"`
	PasswordTokenTTL uint           `json:"-"`
	Groups           []Group        `gorm:"many2many:user_groups;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"groups"`
}

func (u *User) IsMemberOf(group string) bool {
	for _, g := range u.Groups {
		if group == g.Name {
			return true
		}
	}
	return false
}

func (u *User) IsAdministrator() bool {
	return u.IsMemberOf(AdministratorGroupName)
}

// CanModify reports whether u may change or delete a resource owned by ownerID.
func (u *User) CanModify(ownerID uint) bool {
	return u.ID == ownerID || u.IsAdministrator()
}

type contextKey int

const (
	userKey contextKey = iota
)

// NewContextWithUser returns a new [context.Context] that carries value user.
func NewContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUserFromContext returns the [*User] stored in the ctx, if any.
func GetUserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok
}
