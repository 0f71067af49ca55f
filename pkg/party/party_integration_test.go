package party_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/pkg/event"
	"github.com/partyhub/partyhub/pkg/geocode"
	"github.com/partyhub/partyhub/pkg/inttest"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/partyhub/partyhub/pkg/party"
	"github.com/partyhub/partyhub/pkg/rating"
	"github.com/partyhub/partyhub/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type cityGeocoder map[string]geocode.Coordinates

func (g cityGeocoder) Lookup(_ context.Context, city string) (*geocode.Coordinates, error) {
	coordinates, ok := g[geocode.Normalize(city)]
	if !ok {
		return nil, errdef.NewNotFound("unknown city %q", city)
	}
	return &coordinates, nil
}

// headerAuthentication loads the user identified by the X-User-Id header.
type headerAuthentication struct {
	db *gorm.DB
}

func (a headerAuthentication) TokenAuthentication(c *gin.Context) {
	id, err := strconv.ParseUint(c.GetHeader("X-User-Id"), 10, 32)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var user model.User
	if err := a.db.Preload("Groups").First(&user, id).Error; err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	c.Set("user", &user)
	c.Next()
}

func asUser(id uint) func(http.Header) {
	return inttest.WithHeader("X-User-Id", strconv.FormatUint(uint64(id), 10))
}

func TestPartyHandler(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	ctx := context.Background()
	db := inttest.SetupDB(t)
	minioClient := inttest.SetupMinio(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	objectStore := storage.NewMinioClient(logger, "souvenirs", minioClient)
	require.NoError(t, objectStore.EnsureBucket(ctx))

	alice := &model.User{Email: "alice@example.com", DisplayName: "Alice", Validated: true}
	bob := &model.User{Email: "bob@example.com", DisplayName: "Bob", Validated: true}
	require.NoError(t, db.Create(alice).Error)
	require.NoError(t, db.Create(bob).Error)

	geocoder := cityGeocoder{
		"copenhagen": {Latitude: 55.68, Longitude: 12.57},
		"aarhus":     {Latitude: 56.15, Longitude: 10.2},
	}
	eventRepository := event.NewRepository(db)
	publisher := event.NewPublisher(logger, nil, event.ExchangeName, eventRepository)
	partyService := party.NewService(logger, party.NewRepository(db), geocoder, objectStore, publisher)
	ratingService := rating.NewService(rating.NewRepository(db), partyService)

	client := inttest.SetupHTTPServer(t, func(engine *gin.Engine) {
		require.NoError(t, handler.RegisterValidation())
		authentication := headerAuthentication{db: db}
		party.Routes(engine, authentication, party.NewHandler(partyService, ratingService))
		rating.Routes(engine, authentication, rating.NewHandler(ratingService))
	})

	create := func(t *testing.T, user *model.User, title, city, startsAt string) model.Party {
		t.Helper()
		body := fmt.Sprintf(`{"title": %q, "city": %q, "startsAt": %q, "description": "Bring snacks"}`, title, city, startsAt)
		var p model.Party
		client.PostJSON(t, "/parties", strings.NewReader(body), &p, asUser(user.ID))
		return p
	}

	var harbour model.Party
	t.Run("Create", func(t *testing.T) {
		harbour = create(t, alice, "Harbour Rave", "Copenhagen", "2026-07-04T22:00:00Z")

		assert.Equal(t, "harbour-rave", harbour.Slug)
		assert.Equal(t, alice.ID, harbour.CreatorID)
		require.True(t, harbour.HasCoordinates())
		assert.InDelta(t, 55.68, *harbour.Latitude, 1e-9)
	})

	t.Run("CreateWithTakenSlug", func(t *testing.T) {
		p := create(t, bob, "Harbour Rave", "Atlantis", "2026-08-01T20:00:00Z")

		assert.Equal(t, fmt.Sprintf("harbour-rave-%d", p.ID), p.Slug)
		assert.False(t, p.HasCoordinates())
	})

	create(t, bob, "Jazz Brunch", "Aarhus", "2026-05-10T11:00:00Z")
	create(t, alice, "Garden party", "aarhus", "2026-06-15T15:00:00Z")

	t.Run("FindAll", func(t *testing.T) {
		var page party.Page
		client.GetJSON(t, "/parties", &page, asUser(alice.ID))

		assert.Equal(t, int64(4), page.Total)
		require.Len(t, page.Items, 4)
		assert.Equal(t, "2026-08-01T20:00:00Z", page.Items[0].StartsAt.UTC().Format("2006-01-02T15:04:05Z"))
		require.NotNil(t, page.Items[0].Creator)
		assert.Equal(t, "Bob", page.Items[0].Creator.DisplayName)
		assert.Empty(t, page.Items[0].Creator.Email)
	})

	t.Run("FindAllByCity", func(t *testing.T) {
		var page party.Page
		client.GetJSON(t, "/parties?city=AARHUS&sort=title&order=asc", &page, asUser(alice.ID))

		require.Len(t, page.Items, 2)
		assert.Equal(t, "Garden party", page.Items[0].Title)
		assert.Equal(t, "Jazz Brunch", page.Items[1].Title)
	})

	t.Run("FindAllByText", func(t *testing.T) {
		var page party.Page
		client.GetJSON(t, "/parties?q=jazz", &page, asUser(alice.ID))

		require.Len(t, page.Items, 1)
		assert.Equal(t, "Jazz Brunch", page.Items[0].Title)
	})

	t.Run("FindAllPaginated", func(t *testing.T) {
		var page party.Page
		client.GetJSON(t, fmt.Sprintf("/parties?creator=%d&size=1&page=2&sort=date&order=asc", alice.ID), &page, asUser(alice.ID))

		assert.Equal(t, int64(2), page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Harbour Rave", page.Items[0].Title)
	})

	t.Run("Map", func(t *testing.T) {
		var markers []party.Marker
		client.GetJSON(t, "/parties/map", &markers, asUser(bob.ID))

		assert.Len(t, markers, 3)
	})

	t.Run("Rate", func(t *testing.T) {
		path := fmt.Sprintf("/parties/%d/rating", harbour.ID)
		client.Put(t, path, strings.NewReader(`{"score": 9}`), asUser(alice.ID))
		client.Put(t, path, strings.NewReader(`{"score": 6}`), asUser(bob.ID))
		client.Put(t, path, strings.NewReader(`{"score": 7}`), asUser(bob.ID))
		client.Do(t, http.MethodPut, path, strings.NewReader(`{"score": 11}`), http.StatusBadRequest, asUser(bob.ID), inttest.WithHeader("Content-Type", "application/json"))
	})

	t.Run("FindBySlug", func(t *testing.T) {
		var details struct {
			model.Party
			Rating rating.Summary `json:"rating"`
		}
		client.GetJSON(t, "/parties/harbour-rave", &details, asUser(bob.ID))

		assert.Equal(t, harbour.ID, details.ID)
		assert.Equal(t, 2, details.Rating.Count)
		assert.Equal(t, 8.0, details.Rating.Average)
		require.NotNil(t, details.Rating.Mine)
		assert.Equal(t, 7, *details.Rating.Mine)
	})

	t.Run("UpdateByOther", func(t *testing.T) {
		client.Do(t, http.MethodPut, fmt.Sprintf("/parties/%d", harbour.ID), strings.NewReader(`{"title": "Mine"}`), http.StatusForbidden, asUser(bob.ID), inttest.WithHeader("Content-Type", "application/json"))
	})

	t.Run("Update", func(t *testing.T) {
		var updated model.Party
		client.PutJSON(t, fmt.Sprintf("/parties/%d", harbour.ID), strings.NewReader(`{"title": "Harbour Rave Deluxe", "city": "Aarhus"}`), &updated, asUser(alice.ID))

		assert.Equal(t, "harbour-rave-deluxe", updated.Slug)
		assert.Equal(t, "Aarhus", updated.City)
		assert.InDelta(t, 56.15, *updated.Latitude, 1e-9)
		assert.Equal(t, "Bring snacks", updated.Description)
	})

	t.Run("Delete", func(t *testing.T) {
		key := fmt.Sprintf("souvenirs/%d/photo.jpg", harbour.ID)
		content := []byte("jpeg bytes")
		err := objectStore.Upload(ctx, key, bytes.NewReader(content), int64(len(content)), "image/jpeg", nil)
		require.NoError(t, err)
		require.NoError(t, db.Create(&model.Souvenir{PartyID: harbour.ID, UserID: alice.ID, Kind: model.SouvenirPhoto, Key: key}).Error)
		require.NoError(t, db.Create(&model.Comment{PartyID: harbour.ID, UserID: bob.ID, Body: "See you there"}).Error)

		client.Delete(t, fmt.Sprintf("/parties/%d", harbour.ID), asUser(alice.ID))

		client.Do(t, http.MethodGet, fmt.Sprintf("/parties/%d", harbour.ID), nil, http.StatusNotFound, asUser(alice.ID))
		var count int64
		require.NoError(t, db.Model(&model.Souvenir{}).Where("party_id = ?", harbour.ID).Count(&count).Error)
		assert.Zero(t, count)
		require.NoError(t, db.Model(&model.Rating{}).Where("party_id = ?", harbour.ID).Count(&count).Error)
		assert.Zero(t, count)
		require.NoError(t, db.Unscoped().Model(&model.Comment{}).Where("party_id = ?", harbour.ID).Count(&count).Error)
		assert.Zero(t, count)

		err = objectStore.Download(ctx, key, io.Discard, nil)
		assert.Error(t, err)
	})

	t.Run("ActivityLog", func(t *testing.T) {
		events, err := eventRepository.FindLatest(ctx, 10)
		require.NoError(t, err)

		require.Len(t, events, 5)
		assert.Equal(t, model.EventPartyDeleted, events[0].Kind)
		assert.Equal(t, model.EventPartyCreated, events[1].Kind)
	})
}
