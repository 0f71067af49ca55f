package user

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/internal/middleware"
	"github.com/partyhub/partyhub/internal/util"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/partyhub/partyhub/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserService struct{ mock.Mock }

func (m *mockUserService) SignUp(_ context.Context, email, password, displayName string) (*model.User, error) {
	called := m.Called(email, password, displayName)
	user, _ := called.Get(0).(*model.User)
	return user, called.Error(1)
}

func (m *mockUserService) ValidateEmail(_ context.Context, token uuid.UUID) error {
	return m.Called(token).Error(0)
}

func (m *mockUserService) FindById(_ context.Context, id uint) (*model.User, error) {
	called := m.Called(id)
	user, _ := called.Get(0).(*model.User)
	return user, called.Error(1)
}

func (m *mockUserService) FindAll(_ context.Context) ([]*model.User, error) {
	called := m.Called()
	users, _ := called.Get(0).([]*model.User)
	return users, called.Error(1)
}

func (m *mockUserService) Delete(_ context.Context, currentUser *model.User, id uint) error {
	return m.Called(currentUser, id).Error(0)
}

func (m *mockUserService) Update(_ context.Context, id uint, update UpdateUser) (*model.User, error) {
	called := m.Called(id, update)
	user, _ := called.Get(0).(*model.User)
	return user, called.Error(1)
}

func (m *mockUserService) UpdateAvatar(_ context.Context, id uint, data []byte) (*model.User, error) {
	called := m.Called(id, data)
	user, _ := called.Get(0).(*model.User)
	return user, called.Error(1)
}

func (m *mockUserService) DownloadAvatar(_ context.Context, id uint, dst io.Writer, header func(contentType string, contentLength int64)) error {
	called := m.Called(id)
	data, _ := called.Get(0).([]byte)
	if data != nil {
		header("image/png", int64(len(data)))
		_, _ = dst.Write(data)
	}
	return called.Error(1)
}

func (m *mockUserService) RequestPasswordReset(_ context.Context, email string) error {
	return m.Called(email).Error(0)
}

func (m *mockUserService) ResetPassword(_ context.Context, token string, password string) error {
	return m.Called(token, password).Error(0)
}

type mockTokenService struct{ mock.Mock }

func (m *mockTokenService) GetTokens(_ context.Context, user *model.User, previousRefreshTokenId string, rememberMe bool) (*token.Tokens, error) {
	called := m.Called(user, previousRefreshTokenId, rememberMe)
	tokens, _ := called.Get(0).(*token.Tokens)
	return tokens, called.Error(1)
}

func (m *mockTokenService) ValidateRefreshToken(_ context.Context, tokenString string) (*token.RefreshTokenData, error) {
	called := m.Called(tokenString)
	data, _ := called.Get(0).(*token.RefreshTokenData)
	return data, called.Error(1)
}

func (m *mockTokenService) SignOut(_ context.Context, userId uint) error {
	return m.Called(userId).Error(0)
}

func newTestEngine(t *testing.T, h Handler, currentUser *model.User) *gin.Engine {
	t.Helper()
	require.NoError(t, handler.RegisterValidation())
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(middleware.ErrorHandler())
	engine.Use(func(c *gin.Context) {
		if currentUser != nil {
			c.Set("user", currentUser)
		}
	})
	engine.POST("/users", h.SignUp)
	engine.POST("/tokens", h.SignIn)
	engine.POST("/refresh", h.RefreshToken)
	engine.PUT("/me/avatar", h.UpdateAvatar)
	engine.GET("/users/:id", h.FindById)
	engine.GET("/users/:id/avatar", h.Avatar)
	engine.DELETE("/users", h.SignOut)
	engine.DELETE("/users/:id", h.Delete)
	engine.POST("/users/request-reset", h.RequestPasswordReset)
	return engine
}

var cookieConfig = util.CookieConfig{
	SameSite:                                http.SameSiteStrictMode,
	Hostname:                                "partyhub.app",
	AccessTokenExpirationSeconds:            60,
	RefreshTokenExpirationSeconds:           120,
	RefreshTokenRememberMeExpirationSeconds: 240,
}

func TestHandler_SignUp(t *testing.T) {
	userService := &mockUserService{}
	userService.On("SignUp", "alice@example.com", "password123", "Alice").Return(&model.User{ID: 1, Email: "alice@example.com"}, nil)
	engine := newTestEngine(t, NewHandler(cookieConfig, 1024, userService, nil), nil)

	w := httptest.NewRecorder()
	body := `{"email": "alice@example.com", "password": "password123", "displayName": "Alice"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"alice@example.com"`)
	assert.NotContains(t, w.Body.String(), "password")
	userService.AssertExpectations(t)
}

func TestHandler_SignUp_ShortPassword(t *testing.T) {
	userService := &mockUserService{}
	engine := newTestEngine(t, NewHandler(cookieConfig, 1024, userService, nil), nil)

	w := httptest.NewRecorder()
	body := `{"email": "alice@example.com", "password": "short", "displayName": "Alice"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	userService.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_SignIn_SetsCookies(t *testing.T) {
	user := &model.User{ID: 1}
	tokenService := &mockTokenService{}
	tokenService.On("GetTokens", user, "", true).Return(&token.Tokens{AccessToken: "access", RefreshToken: "refresh"}, nil)
	engine := newTestEngine(t, NewHandler(cookieConfig, 1024, nil, tokenService), user)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tokens", strings.NewReader(`{"rememberMe": true}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	cookies := map[string]*http.Cookie{}
	for _, cookie := range w.Result().Cookies() {
		cookies[cookie.Name] = cookie
	}
	assert.Equal(t, "access", cookies["accessToken"].Value)
	assert.Equal(t, "refresh", cookies["refreshToken"].Value)
	assert.Equal(t, 240, cookies["refreshToken"].MaxAge)
	assert.Equal(t, "/refresh", cookies["refreshToken"].Path)
	assert.Equal(t, "true", cookies["rememberMe"].Value)
}

func TestHandler_RefreshToken_FromCookie(t *testing.T) {
	user := &model.User{ID: 1}
	userService := &mockUserService{}
	userService.On("FindById", uint(1)).Return(user, nil)
	tokenService := &mockTokenService{}
	tokenService.On("ValidateRefreshToken", "refresh").Return(&token.RefreshTokenData{SignedToken: "refresh", ID: "jti", UserId: 1}, nil)
	tokenService.On("GetTokens", user, "jti", false).Return(&token.Tokens{AccessToken: "access", RefreshToken: "refresh2"}, nil)
	engine := newTestEngine(t, NewHandler(cookieConfig, 1024, userService, tokenService), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "refresh"})
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "refresh2")
	tokenService.AssertExpectations(t)
}

func TestHandler_RefreshToken_Missing(t *testing.T) {
	engine := newTestEngine(t, NewHandler(cookieConfig, 1024, &mockUserService{}, &mockTokenService{}), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_RefreshToken_UnknownUser(t *testing.T) {
	userService := &mockUserService{}
	userService.On("FindById", uint(1)).Return(nil, errdef.NewNotFound("not found"))
	tokenService := &mockTokenService{}
	tokenService.On("ValidateRefreshToken", "refresh").Return(&token.RefreshTokenData{ID: "jti", UserId: 1}, nil)
	engine := newTestEngine(t, NewHandler(cookieConfig, 1024, userService, tokenService), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(`{"refreshToken": "refresh"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func multipartBody(t *testing.T, content []byte) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestHandler_UpdateAvatar(t *testing.T) {
	user := &model.User{ID: 1}

	t.Run("Success", func(t *testing.T) {
		userService := &mockUserService{}
		userService.On("UpdateAvatar", uint(1), []byte("image")).Return(user, nil)
		engine := newTestEngine(t, NewHandler(cookieConfig, 1024, userService, nil), user)

		body, contentType := multipartBody(t, []byte("image"))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/me/avatar", body)
		req.Header.Set("Content-Type", contentType)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		userService.AssertExpectations(t)
	})

	t.Run("TooLarge", func(t *testing.T) {
		userService := &mockUserService{}
		engine := newTestEngine(t, NewHandler(cookieConfig, 4, userService, nil), user)

		body, contentType := multipartBody(t, []byte("image"))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/me/avatar", body)
		req.Header.Set("Content-Type", contentType)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		userService.AssertNotCalled(t, "UpdateAvatar", mock.Anything, mock.Anything)
	})
}

func TestHandler_Avatar(t *testing.T) {
	userService := &mockUserService{}
	userService.On("DownloadAvatar", uint(1)).Return([]byte("image"), nil)
	engine := newTestEngine(t, NewHandler(cookieConfig, 1024, userService, nil), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/1/avatar", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "5", w.Header().Get("Content-Length"))
	assert.Equal(t, "image", w.Body.String())
}

func TestHandler_FindById_PublicProfile(t *testing.T) {
	userService := &mockUserService{}
	userService.On("FindById", uint(2)).Return(&model.User{ID: 2, Email: "bob@example.com", DisplayName: "Bob", AvatarKey: "avatars/2/a.png"}, nil)
	engine := newTestEngine(t, NewHandler(cookieConfig, 1024, userService, nil), &model.User{ID: 1})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/2", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"displayName":"Bob"`)
	assert.Contains(t, w.Body.String(), `"hasAvatar":true`)
	assert.NotContains(t, w.Body.String(), "bob@example.com")
}

func TestHandler_SignOut_ClearsCookies(t *testing.T) {
	tokenService := &mockTokenService{}
	tokenService.On("SignOut", uint(1)).Return(nil)
	engine := newTestEngine(t, NewHandler(cookieConfig, 1024, nil, tokenService), &model.User{ID: 1})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/users", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	for _, cookie := range w.Result().Cookies() {
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	}
	tokenService.AssertExpectations(t)
}

func TestHandler_Delete(t *testing.T) {
	admin := &model.User{ID: 1}
	userService := &mockUserService{}
	userService.On("Delete", admin, uint(2)).Return(nil)
	tokenService := &mockTokenService{}
	tokenService.On("SignOut", uint(2)).Return(nil)
	engine := newTestEngine(t, NewHandler(cookieConfig, 1024, userService, tokenService), admin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/users/2", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	userService.AssertExpectations(t)
	tokenService.AssertExpectations(t)
}

func TestHandler_RequestPasswordReset(t *testing.T) {
	userService := &mockUserService{}
	userService.On("RequestPasswordReset", "alice@example.com").Return(nil)
	engine := newTestEngine(t, NewHandler(cookieConfig, 1024, userService, nil), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users/request-reset", strings.NewReader(`{"email": "alice@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	userService.AssertExpectations(t)
}
