package souvenir_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/pkg/compress"
	"github.com/partyhub/partyhub/pkg/event"
	"github.com/partyhub/partyhub/pkg/inttest"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/partyhub/partyhub/pkg/party"
	"github.com/partyhub/partyhub/pkg/souvenir"
	"github.com/partyhub/partyhub/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

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

func asUser(user *model.User) func(http.Header) {
	return inttest.WithHeader("X-User-Id", strconv.FormatUint(uint64(user.ID), 10))
}

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	return buf.Bytes()
}

func TestSouvenirHandler(t *testing.T) {
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
	carol := &model.User{Email: "carol@example.com", DisplayName: "Carol", Validated: true}
	for _, user := range []*model.User{alice, bob, carol} {
		require.NoError(t, db.Create(user).Error)
	}
	garden := &model.Party{Title: "Garden party", Slug: "garden-party", City: "Bergen", StartsAt: time.Now(), CreatorID: alice.ID}
	require.NoError(t, db.Create(garden).Error)

	broker := event.NewEventBroker(256)
	subscription := broker.Subscribe(bob.ID)
	defer broker.Unsubscribe(subscription)

	publisher := event.NewPublisher(logger, nil, event.ExchangeName, event.NewRepository(db))
	partyService := party.NewService(logger, party.NewRepository(db), nil, objectStore, publisher)
	compressor := compress.Compressor{MaxDimension: 64, JPEGQuality: 70}
	souvenirService := souvenir.NewService(logger, souvenir.NewRepository(db), partyService, objectStore, compressor, publisher, broker)

	client := inttest.SetupHTTPServer(t, func(engine *gin.Engine) {
		souvenir.Routes(engine, headerAuthentication{db: db}, souvenir.NewHandler(logger, 1024*1024, souvenirService))
	})

	upload := func(t *testing.T, user *model.User, filename string, content []byte, caption string) model.Souvenir {
		t.Helper()
		body, contentType := inttest.Multipart(t, filename, content, map[string]string{"caption": caption})
		var s model.Souvenir
		client.PostJSON(t, fmt.Sprintf("/parties/%d/souvenirs", garden.ID), body, &s, asUser(user), contentType)
		return s
	}

	photo := jpegBytes(t, 200, 100)
	var uploaded model.Souvenir
	t.Run("UploadPhoto", func(t *testing.T) {
		uploaded = upload(t, bob, "sunset.jpg", photo, "Sunset")

		assert.Equal(t, model.SouvenirPhoto, uploaded.Kind)
		assert.Equal(t, "image/jpeg", uploaded.ContentType)
		assert.Equal(t, 64, uploaded.Width)
		assert.Equal(t, 32, uploaded.Height)
		assert.Less(t, uploaded.Size, int64(len(photo)))

		var last souvenir.Progress
		for len(subscription.Events()) > 0 {
			e := <-subscription.Events()
			require.Equal(t, model.EventUploadProgress, e.Type)
			require.NoError(t, json.Unmarshal([]byte(e.Message), &last))
		}
		assert.Equal(t, 100, last.Percent)
		assert.Equal(t, "sunset.jpg", last.Filename)
	})

	audio := append([]byte("ID3\x03\x00\x00\x00\x00\x00\x0a"), bytes.Repeat([]byte{0}, 512)...)
	recording := upload(t, carol, "speech.mp3", audio, "")

	t.Run("UploadUnsupported", func(t *testing.T) {
		body, contentType := inttest.Multipart(t, "notes.txt", []byte("just some text"), nil)
		client.Do(t, http.MethodPost, fmt.Sprintf("/parties/%d/souvenirs", garden.ID), body, http.StatusUnsupportedMediaType, asUser(bob), contentType)
	})

	t.Run("UploadTooLarge", func(t *testing.T) {
		body, contentType := inttest.Multipart(t, "huge.mp3", make([]byte, 1536*1024), nil)
		client.Do(t, http.MethodPost, fmt.Sprintf("/parties/%d/souvenirs", garden.ID), body, http.StatusRequestEntityTooLarge, asUser(bob), contentType)
	})

	t.Run("FindByParty", func(t *testing.T) {
		var souvenirs []model.Souvenir
		client.GetJSON(t, fmt.Sprintf("/parties/%d/souvenirs", garden.ID), &souvenirs, asUser(alice))

		require.Len(t, souvenirs, 2)
		assert.Equal(t, recording.ID, souvenirs[0].ID)
		assert.Equal(t, uploaded.ID, souvenirs[1].ID)

		client.GetJSON(t, fmt.Sprintf("/parties/%d/souvenirs?kind=photo", garden.ID), &souvenirs, asUser(alice))
		require.Len(t, souvenirs, 1)
		assert.Equal(t, uploaded.ID, souvenirs[0].ID)
	})

	t.Run("Download", func(t *testing.T) {
		body := client.Get(t, fmt.Sprintf("/souvenirs/%d/download", recording.ID), asUser(alice))

		assert.Equal(t, audio, body)
	})

	t.Run("Archive", func(t *testing.T) {
		body := client.Get(t, fmt.Sprintf("/parties/%d/souvenirs/archive", garden.ID), asUser(alice))

		gr, err := gzip.NewReader(bytes.NewReader(body))
		require.NoError(t, err)
		tr := tar.NewReader(gr)
		sizes := map[string]int64{}
		for {
			header, err := tr.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			sizes[header.Name] = header.Size
		}
		assert.Equal(t, map[string]int64{
			fmt.Sprintf("%d-sunset.jpg", uploaded.ID):  uploaded.Size,
			fmt.Sprintf("%d-speech.mp3", recording.ID): int64(len(audio)),
		}, sizes)
	})

	t.Run("DeleteByOther", func(t *testing.T) {
		client.Do(t, http.MethodDelete, fmt.Sprintf("/souvenirs/%d", recording.ID), nil, http.StatusForbidden, asUser(bob))
	})

	t.Run("DeleteByPartyCreator", func(t *testing.T) {
		client.Delete(t, fmt.Sprintf("/souvenirs/%d", recording.ID), asUser(alice))

		client.Do(t, http.MethodGet, fmt.Sprintf("/souvenirs/%d/download", recording.ID), nil, http.StatusNotFound, asUser(alice))
	})
}
