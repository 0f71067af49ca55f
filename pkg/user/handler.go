package user

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/internal/util"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/partyhub/partyhub/pkg/token"
)

func NewHandler(cookieConfig util.CookieConfig, maxAvatarBytes int64, userService userService, tokenService tokenService) Handler {
	return Handler{
		cookieConfig:   cookieConfig,
		maxAvatarBytes: maxAvatarBytes,
		userService:    userService,
		tokenService:   tokenService,
	}
}

type Handler struct {
	cookieConfig   util.CookieConfig
	maxAvatarBytes int64
	userService    userService
	tokenService   tokenService
}

type userService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*model.User, error)
	ValidateEmail(ctx context.Context, token uuid.UUID) error
	FindById(ctx context.Context, id uint) (*model.User, error)
	FindAll(ctx context.Context) ([]*model.User, error)
	Delete(ctx context.Context, currentUser *model.User, id uint) error
	Update(ctx context.Context, id uint, update UpdateUser) (*model.User, error)
	UpdateAvatar(ctx context.Context, id uint, data []byte) (*model.User, error)
	DownloadAvatar(ctx context.Context, id uint, dst io.Writer, header func(contentType string, contentLength int64)) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, password string) error
}

type tokenService interface {
	GetTokens(ctx context.Context, user *model.User, previousRefreshTokenId string, rememberMe bool) (*token.Tokens, error)
	ValidateRefreshToken(ctx context.Context, tokenString string) (*token.RefreshTokenData, error)
	SignOut(ctx context.Context, userId uint) error
}

type SignUpRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,gte=8,lte=128"`
	DisplayName string `json:"displayName" binding:"required,notBlank,gte=2,lte=50"`
}

// SignUp user
func (h Handler) SignUp(c *gin.Context) {
	// swagger:route POST /users signUp
	//
	// SignUp user
	//
	// Sign up a user. This endpoint is publicly accessible and therefore anyone can sign up. A validation email is sent and the account can't be used until it's validated.
	//
	// responses:
	//   201: User
	//   400: Error
	//   409: Error
	//   415: Error
	var request SignUpRequest
	if err := handler.DataBinder(c, &request); err != nil {
		return
	}

	user, err := h.userService.SignUp(c.Request.Context(), request.Email, request.Password, request.DisplayName)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ValidateEmail user
func (h Handler) ValidateEmail(c *gin.Context) {
	// swagger:route POST /users/validate/{token} validateEmail
	//
	// Validate email
	//
	// Validate the email of a user using the token sent on sign up
	//
	// responses:
	//   200:
	//   400: Error
	//   404: Error
	emailToken, err := uuid.Parse(c.Param("token"))
	if err != nil {
		_ = c.Error(errdef.NewBadRequest("invalid token: %v", err))
		return
	}

	if err := h.userService.ValidateEmail(c.Request.Context(), emailToken); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusOK)
}

type SignInRequest struct {
	RememberMe bool `json:"rememberMe"`
}

// SignIn user
func (h Handler) SignIn(c *gin.Context) {
	// swagger:route POST /tokens signIn
	//
	// Sign in
	//
	// Sign in using basic authentication. The returned tokens are also set as cookies.
	//
	// security:
	//   basicAuth:
	//
	// responses:
	//   201: Tokens
	//   401: Error
	//   403: Error
	//   404: Error
	//   415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request SignInRequest
	if c.Request.ContentLength > 0 {
		if err := handler.DataBinder(c, &request); err != nil {
			return
		}
	}

	tokens, err := h.tokenService.GetTokens(c.Request.Context(), user, "", request.RememberMe)
	if err != nil {
		_ = c.Error(err)
		return
	}

	util.SetCookies(c, tokens, request.RememberMe, h.cookieConfig)

	c.JSON(http.StatusCreated, tokens)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken user
func (h Handler) RefreshToken(c *gin.Context) {
	// swagger:route POST /refresh refreshToken
	//
	// Refresh tokens
	//
	// Refresh user tokens. The refresh token is read from the request body or, if absent, from the refreshToken cookie. Refresh tokens can only be used once.
	//
	// responses:
	//   201: Tokens
	//   400: Error
	//   401: Error
	//   415: Error
	var request RefreshTokenRequest
	if c.Request.ContentLength > 0 {
		if err := handler.DataBinder(c, &request); err != nil {
			return
		}
	}

	refreshTokenString := request.RefreshToken
	if refreshTokenString == "" {
		cookie, err := c.Cookie("refreshToken")
		if err != nil {
			_ = c.Error(errdef.NewBadRequest("refresh token not found in body or cookie"))
			return
		}
		refreshTokenString = cookie
	}

	rememberMe := false
	if cookie, err := c.Cookie("rememberMe"); err == nil {
		rememberMe, _ = strconv.ParseBool(cookie)
	}

	ctx := c.Request.Context()
	refreshToken, err := h.tokenService.ValidateRefreshToken(ctx, refreshTokenString)
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.FindById(ctx, refreshToken.UserId)
	if err != nil {
		if errdef.IsNotFound(err) {
			_ = c.Error(errdef.NewUnauthorized("user of refresh token not found"))
		} else {
			_ = c.Error(err)
		}
		return
	}

	tokens, err := h.tokenService.GetTokens(ctx, user, refreshToken.ID, rememberMe)
	if err != nil {
		_ = c.Error(err)
		return
	}

	util.SetCookies(c, tokens, rememberMe, h.cookieConfig)

	c.JSON(http.StatusCreated, tokens)
}

// Me user
func (h Handler) Me(c *gin.Context) {
	// swagger:route GET /me me
	//
	// User details
	//
	// Current user details
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: User
	//   401: Error
	//   404: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	userWithGroups, err := h.userService.FindById(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, userWithGroups)
}

type UpdateMeRequest struct {
	DisplayName *string `json:"displayName" binding:"omitempty,notBlank,gte=2,lte=50"`
	Bio         *string `json:"bio" binding:"omitempty,lte=500"`
	Password    *string `json:"password" binding:"omitempty,gte=8,lte=128"`
}

// UpdateMe user
func (h Handler) UpdateMe(c *gin.Context) {
	// swagger:route PUT /me updateMe
	//
	// Update current user
	//
	// Update the display name, bio or password of the current user. Omitted fields are left unchanged.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: User
	//   400: Error
	//   401: Error
	//   415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request UpdateMeRequest
	if err := handler.DataBinder(c, &request); err != nil {
		return
	}

	updated, err := h.userService.Update(c.Request.Context(), user.ID, UpdateUser{
		DisplayName: request.DisplayName,
		Bio:         request.Bio,
		Password:    request.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// UpdateAvatar user
func (h Handler) UpdateAvatar(c *gin.Context) {
	// swagger:route PUT /me/avatar updateAvatar
	//
	// Update avatar
	//
	// Upload a new avatar for the current user. The image is compressed before it's stored.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: User
	//   400: Error
	//   401: Error
	//   413: Error
	//   415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(errdef.NewBadRequest("error reading file: %v", err))
		return
	}

	if file.Size > h.maxAvatarBytes {
		_ = c.Error(errdef.NewPayloadTooLarge("avatar is %d bytes, the limit is %d bytes", file.Size, h.maxAvatarBytes))
		return
	}

	f, err := file.Open()
	if err != nil {
		_ = c.Error(fmt.Errorf("error opening avatar: %v", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxAvatarBytes))
	if err != nil {
		_ = c.Error(fmt.Errorf("error reading avatar: %v", err))
		return
	}

	updated, err := h.userService.UpdateAvatar(c.Request.Context(), user.ID, data)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Avatar user
func (h Handler) Avatar(c *gin.Context) {
	// swagger:route GET /users/{id}/avatar avatar
	//
	// Download avatar
	//
	// Stream the avatar of a user
	//
	// produces:
	//   - image/jpeg
	//   - image/png
	//
	// responses:
	//   200: Avatar
	//   400: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	err := h.userService.DownloadAvatar(c.Request.Context(), id, c.Writer, func(contentType string, contentLength int64) {
		c.Header("Content-Type", contentType)
		c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
		c.Header("Cache-Control", "private, max-age=3600")
		c.Status(http.StatusOK)
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
}

// PublicProfile is what other users can see about a user
// swagger:model
type PublicProfile struct {
	ID          uint      `json:"id"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio,omitempty"`
	HasAvatar   bool      `json:"hasAvatar"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FindById user
func (h Handler) FindById(c *gin.Context) {
	// swagger:route GET /users/{id} findUserById
	//
	// Find user
	//
	// Find the public profile of a user by its id
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: PublicProfile
	//   400: Error
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.FindById(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, PublicProfile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
		HasAvatar:   user.AvatarKey != "",
		CreatedAt:   user.CreatedAt,
	})
}

// SignOut user
func (h Handler) SignOut(c *gin.Context) {
	// swagger:route DELETE /users signOut
	//
	// Sign out
	//
	// Sign out user. An access token can't be invalidated so it remains usable until it expires. However, none of the users refresh tokens can be used after signing out.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200:
	//   401: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.tokenService.SignOut(c.Request.Context(), user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	util.ClearCookies(c, h.cookieConfig)

	c.Status(http.StatusOK)
}

// FindAll user
func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /users findAllUsers
	//
	// Find users
	//
	// Find all users with the groups they belong to. Only administrators are allowed.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []User
	//   401: Error
	//   403: Error
	users, err := h.userService.FindAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// Delete user
func (h Handler) Delete(c *gin.Context) {
	// swagger:route DELETE /users/{id} deleteUser
	//
	// Delete user
	//
	// Delete user by id. Only administrators are allowed and they can't delete themselves.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   202:
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	if err := h.userService.Delete(ctx, user, id); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.tokenService.SignOut(ctx, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusAccepted)
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset user
func (h Handler) RequestPasswordReset(c *gin.Context) {
	// swagger:route POST /users/request-reset requestPasswordReset
	//
	// Request password reset
	//
	// Request a password reset link by email. The response is the same whether or not the email belongs to an account.
	//
	// responses:
	//   201:
	//   400: Error
	//   415: Error
	var request RequestPasswordResetRequest
	if err := handler.DataBinder(c, &request); err != nil {
		return
	}

	if err := h.userService.RequestPasswordReset(c.Request.Context(), request.Email); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusCreated)
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,gte=8,lte=128"`
}

// ResetPassword user
func (h Handler) ResetPassword(c *gin.Context) {
	// swagger:route POST /users/reset-password resetPassword
	//
	// Reset password
	//
	// Set a new password using the token from the reset email
	//
	// responses:
	//   201:
	//   400: Error
	//   404: Error
	//   415: Error
	var request ResetPasswordRequest
	if err := handler.DataBinder(c, &request); err != nil {
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), request.Token, request.Password); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusCreated)
}
