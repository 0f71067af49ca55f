package model_test

import (
	"context"
	"testing"

	"github.com/partyhub/partyhub/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	id := uint(1000)
	email := "some@thing.dk"
	user := &model.User{
		ID:     id,
		Email:  email,
		Groups: []model.Group{{Name: model.AdministratorGroupName}, {Name: "other"}},
	}

	ctx := context.Background()

	got, ok := model.GetUserFromContext(ctx)
	assert.Nil(t, got, "want nil when no user is in the context")
	assert.False(t, ok, "want an error when no user is in the context")

	ctx = model.NewContextWithUser(ctx, user)

	got, ok = model.GetUserFromContext(ctx)
	assert.True(t, ok)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, email, got.Email)
	assert.Len(t, got.Groups, 2)
}

func TestUser_IsAdministrator(t *testing.T) {
	admin := &model.User{Groups: []model.Group{{Name: "other"}, {Name: model.AdministratorGroupName}}}
	assert.True(t, admin.IsAdministrator())

	user := &model.User{Groups: []model.Group{{Name: "other"}}}
	assert.False(t, user.IsAdministrator())
}

func TestUser_CanModify(t *testing.T) {
	owner := &model.User{ID: 1}
	other := &model.User{ID: 2}
	admin := &model.User{ID: 3, Groups: []model.Group{{Name: model.AdministratorGroupName}}}

	assert.True(t, owner.CanModify(1))
	assert.False(t, other.CanModify(1))
	assert.True(t, admin.CanModify(1))
}

func TestParty_HasCoordinates(t *testing.T) {
	lat, lon := 48.85, 2.35

	assert.False(t, model.Party{}.HasCoordinates())
	assert.False(t, model.Party{Latitude: &lat}.HasCoordinates())
	assert.True(t, model.Party{Latitude: &lat, Longitude: &lon}.HasCoordinates())
}
