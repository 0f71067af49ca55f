package user_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-mail/mail"
	"github.com/partyhub/partyhub/internal/middleware"
	"github.com/partyhub/partyhub/internal/util"
	"github.com/partyhub/partyhub/pkg/compress"
	"github.com/partyhub/partyhub/pkg/group"
	"github.com/partyhub/partyhub/pkg/inttest"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/partyhub/partyhub/pkg/storage"
	"github.com/partyhub/partyhub/pkg/token"
	"github.com/partyhub/partyhub/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDialer struct {
	mu       sync.Mutex
	messages []*mail.Message
}

func (d *fakeDialer) DialAndSend(m ...*mail.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, m...)
	return nil
}

func TestUserHandler(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	ctx := context.Background()
	db := inttest.SetupDB(t)
	redis := inttest.SetupRedis(t)
	minioClient := inttest.SetupMinio(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	objectStore := storage.NewMinioClient(logger, "avatars", minioClient)
	require.NoError(t, objectStore.EnsureBucket(ctx))

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dialer := &fakeDialer{}
	compressor := compress.Compressor{MaxDimension: 256, JPEGQuality: 80, MinBytes: 0}
	tokenRepository := token.NewRepository(redis)
	userService := user.NewService(logger, "http://localhost", "no-reply@partyhub.app", 900, user.NewRepository(db), dialer, objectStore, compressor, tokenRepository)
	groupService := group.NewService(group.NewRepository(db), userService)
	tokenService := token.NewService(logger, tokenRepository, privateKey, "secret", token.Lifetimes{AccessToken: 60, RefreshToken: 120, RefreshTokenRememberMe: 240})

	err = user.CreateAdminUser(ctx, "admin@partyhub.app", "adminadmin", userService, groupService)
	require.NoError(t, err)

	authentication := middleware.NewAuthentication(logger, &privateKey.PublicKey, userService)
	authorization := middleware.NewAuthorization(logger, userService)
	cookieConfig := util.CookieConfig{SameSite: http.SameSiteStrictMode, Hostname: "localhost"}
	client := inttest.SetupHTTPServer(t, func(engine *gin.Engine) {
		userHandler := user.NewHandler(cookieConfig, 1024*1024, userService, tokenService)
		user.Routes(engine, authentication, authorization, userHandler)
	})

	var alice model.User
	t.Run("SignUp", func(t *testing.T) {
		body := strings.NewReader(`{"email": "Alice@Example.com", "password": "password123", "displayName": "Alice"}`)
		client.PostJSON(t, "/users", body, &alice)

		assert.Equal(t, "alice@example.com", alice.Email)
		assert.False(t, alice.Validated)
		require.Len(t, dialer.messages, 1)
	})

	t.Run("SignInBeforeValidation", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/tokens", nil, http.StatusForbidden, inttest.WithBasicAuth("alice@example.com", "password123"))
	})

	t.Run("ValidateEmail", func(t *testing.T) {
		var stored model.User
		require.NoError(t, db.First(&stored, alice.ID).Error)

		client.Do(t, http.MethodPost, "/users/validate/"+stored.EmailToken.String(), nil, http.StatusOK)
	})

	var tokens token.Tokens
	t.Run("SignIn", func(t *testing.T) {
		client.PostJSON(t, "/tokens", nil, &tokens, inttest.WithBasicAuth("alice@example.com", "password123"))

		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.Equal(t, "bearer", tokens.TokenType)
	})

	t.Run("SignInWrongPassword", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/tokens", nil, http.StatusUnauthorized, inttest.WithBasicAuth("alice@example.com", "wrong-password"))
	})

	t.Run("Me", func(t *testing.T) {
		var me model.User
		client.GetJSON(t, "/me", &me, inttest.WithAuthToken(tokens.AccessToken))

		assert.Equal(t, alice.ID, me.ID)
		assert.Equal(t, "Alice", me.DisplayName)
	})

	t.Run("UpdateMe", func(t *testing.T) {
		var me model.User
		client.PutJSON(t, "/me", strings.NewReader(`{"bio": "Dancing until dawn"}`), &me, inttest.WithAuthToken(tokens.AccessToken))

		assert.Equal(t, "Dancing until dawn", me.Bio)
		assert.Equal(t, "Alice", me.DisplayName)
	})

	t.Run("Avatar", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 512, 512))
		for x := 0; x < 512; x++ {
			for y := 0; y < 512; y++ {
				img.Set(x, y, color.RGBA{R: uint8(x * y), G: uint8(x + y), B: uint8(x ^ y), A: 255})
			}
		}
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))

		body, contentType := inttest.Multipart(t, "avatar.png", buf.Bytes(), nil)
		client.Do(t, http.MethodPut, "/me/avatar", body, http.StatusOK, contentType, inttest.WithAuthToken(tokens.AccessToken))

		avatar := client.Get(t, "/users/"+strconv.Itoa(int(alice.ID))+"/avatar")
		decoded, err := png.Decode(bytes.NewReader(avatar))
		require.NoError(t, err)
		assert.Equal(t, 256, decoded.Bounds().Dx())
	})

	t.Run("AvatarNotAnImage", func(t *testing.T) {
		body, contentType := inttest.Multipart(t, "avatar.txt", []byte("definitely not an image"), nil)
		client.Do(t, http.MethodPut, "/me/avatar", body, http.StatusUnsupportedMediaType, contentType, inttest.WithAuthToken(tokens.AccessToken))
	})

	t.Run("RefreshToken", func(t *testing.T) {
		var refreshed token.Tokens
		client.PostJSON(t, "/refresh", strings.NewReader(`{"refreshToken": "`+tokens.RefreshToken+`"}`), &refreshed)
		assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

		client.Do(t, http.MethodPost, "/refresh", strings.NewReader(`{"refreshToken": "`+tokens.RefreshToken+`"}`), http.StatusUnauthorized, inttest.WithHeader("Content-Type", "application/json"))

		tokens = refreshed
	})

	t.Run("SignOut", func(t *testing.T) {
		client.Do(t, http.MethodDelete, "/users", nil, http.StatusOK, inttest.WithAuthToken(tokens.AccessToken))

		client.Do(t, http.MethodPost, "/refresh", strings.NewReader(`{"refreshToken": "`+tokens.RefreshToken+`"}`), http.StatusUnauthorized, inttest.WithHeader("Content-Type", "application/json"))
	})

	t.Run("PasswordReset", func(t *testing.T) {
		client.Post(t, "/users/request-reset", strings.NewReader(`{"email": "alice@example.com"}`), inttest.WithHeader("Content-Type", "application/json"))
		client.Post(t, "/users/request-reset", strings.NewReader(`{"email": "nobody@example.com"}`), inttest.WithHeader("Content-Type", "application/json"))

		var stored model.User
		require.NoError(t, db.First(&stored, alice.ID).Error)
		require.True(t, stored.PasswordToken.Valid)

		body := strings.NewReader(`{"token": "` + stored.PasswordToken.String + `", "password": "new-password"}`)
		client.Post(t, "/users/reset-password", body, inttest.WithHeader("Content-Type", "application/json"))

		client.PostJSON(t, "/tokens", nil, &tokens, inttest.WithBasicAuth("alice@example.com", "new-password"))
	})

	t.Run("AdminOnly", func(t *testing.T) {
		client.Do(t, http.MethodGet, "/users", nil, http.StatusForbidden, inttest.WithAuthToken(tokens.AccessToken))

		var adminTokens token.Tokens
		client.PostJSON(t, "/tokens", nil, &adminTokens, inttest.WithBasicAuth("admin@partyhub.app", "adminadmin"))

		var users []model.User
		client.GetJSON(t, "/users", &users, inttest.WithAuthToken(adminTokens.AccessToken))
		assert.Len(t, users, 2)

		client.Delete(t, "/users/"+strconv.Itoa(int(alice.ID)), inttest.WithAuthToken(adminTokens.AccessToken))
		client.Do(t, http.MethodGet, "/users/"+strconv.Itoa(int(alice.ID)), nil, http.StatusNotFound, inttest.WithAuthToken(adminTokens.AccessToken))
	})
}
