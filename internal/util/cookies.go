package util

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/pkg/token"
)

// CookieConfig holds what is needed to set the authentication cookies.
type CookieConfig struct {
	SameSite                                http.SameSite
	Hostname                                string
	BasePath                                string
	AccessTokenExpirationSeconds            int
	RefreshTokenExpirationSeconds           int
	RefreshTokenRememberMeExpirationSeconds int
}

func (c CookieConfig) refreshPath() string {
	return c.BasePath + "/refresh"
}

// SetCookies sets the access token cookie for all paths and the refresh token cookie only for the
// refresh endpoint.
func SetCookies(c *gin.Context, tokens *token.Tokens, rememberMe bool, cfg CookieConfig) {
	c.SetSameSite(cfg.SameSite)
	c.SetCookie("accessToken", tokens.AccessToken, cfg.AccessTokenExpirationSeconds, "/", cfg.Hostname, true, true)
	if rememberMe {
		c.SetCookie("refreshToken", tokens.RefreshToken, cfg.RefreshTokenRememberMeExpirationSeconds, cfg.refreshPath(), cfg.Hostname, true, true)
		c.SetCookie("rememberMe", "true", cfg.RefreshTokenRememberMeExpirationSeconds, cfg.refreshPath(), cfg.Hostname, true, true)
	} else {
		c.SetCookie("refreshToken", tokens.RefreshToken, cfg.RefreshTokenExpirationSeconds, cfg.refreshPath(), cfg.Hostname, true, true)
	}
}

// ClearCookies expires all cookies set by SetCookies.
func ClearCookies(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(cfg.SameSite)
	c.SetCookie("accessToken", "", -1, "/", cfg.Hostname, true, true)
	c.SetCookie("refreshToken", "", -1, cfg.refreshPath(), cfg.Hostname, true, true)
	c.SetCookie("rememberMe", "", -1, cfg.refreshPath(), cfg.Hostname, true, true)
}

// ParseSameSiteMode converts the configured mode into an [http.SameSite].
func ParseSameSiteMode(mode string) (http.SameSite, error) {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("unknown same site mode: %q", mode)
	}
}
