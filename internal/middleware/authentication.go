package middleware

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/model"
)

const (
	accessTokenCookie = "accessToken"
	userClaim         = "user"
	// contextKeyUser is read back by handler.GetUserFromContext
	contextKeyUser    = "user"
	clockSkew         = 5 * time.Second
	basicRealm        = `Basic realm="partyhub"`
)

func NewAuthentication(logger *slog.Logger, publicKey *rsa.PublicKey, signInService signInService) AuthenticationMiddleware {
	return AuthenticationMiddleware{
		logger:        logger,
		publicKey:     publicKey,
		signInService: signInService,
	}
}

type signInService interface {
	SignIn(ctx context.Context, email string, password string) (*model.User, error)
}

// AuthenticationMiddleware identifies the caller either by email and password, used when signing in,
// or by the access token issued at sign in.
type AuthenticationMiddleware struct {
	logger        *slog.Logger
	publicKey     *rsa.PublicKey
	signInService signInService
}

func (m AuthenticationMiddleware) BasicAuthentication(c *gin.Context) {
	email, password, ok := c.Request.BasicAuth()
	if !ok {
		c.Header("WWW-Authenticate", basicRealm)
		_ = c.Error(errdef.NewUnauthorized("basic authentication required"))
		c.Abort()
		return
	}

	u, err := m.signInService.SignIn(c.Request.Context(), email, password)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}

	setUser(c, u)
	c.Next()
}

// TokenAuthentication accepts an RS256 signed access token from either the Authorization header or
// the access token cookie.
func (m AuthenticationMiddleware) TokenAuthentication(c *gin.Context) {
	u, err := m.userFromToken(c.Request)
	if err != nil {
		m.logger.InfoContext(c.Request.Context(), "Rejected access token", "error", err)
		_ = c.Error(errdef.NewUnauthorized("token not valid"))
		c.Abort()
		return
	}

	setUser(c, u)
	c.Next()
}

// setUser makes the user available to handlers through the Gin context and to the logger through
// the request context.
func setUser(c *gin.Context, u *model.User) {
	c.Set(contextKeyUser, u)
	c.Request = c.Request.WithContext(model.NewContextWithUser(c.Request.Context(), u))
}

func (m AuthenticationMiddleware) userFromToken(r *http.Request) (*model.User, error) {
	token, err := jwt.ParseRequest(r,
		jwt.WithKey(jwa.RS256, m.publicKey),
		jwt.WithHeaderKey("Authorization"),
		jwt.WithCookieKey(accessTokenCookie),
		jwt.WithAcceptableSkew(clockSkew),
	)
	if err != nil {
		return nil, err
	}

	claim, ok := token.Get(userClaim)
	if !ok {
		return nil, errors.New("token has no user claim")
	}

	raw, err := json.Marshal(claim)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user claim: %v", err)
	}

	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user claim: %v", err)
	}
	if u.ID == 0 {
		return nil, errors.New("user claim has no id")
	}
	return &u, nil
}
