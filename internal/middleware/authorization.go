package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/pkg/model"
)

func NewAuthorization(logger *slog.Logger, userService userService) AuthorizationMiddleware {
	return AuthorizationMiddleware{
		logger:      logger,
		userService: userService,
	}
}

type AuthorizationMiddleware struct {
	logger      *slog.Logger
	userService userService
}

type userService interface {
	FindById(ctx context.Context, id uint) (*model.User, error)
}

// RequireAdministrator aborts the request unless the authenticated user currently is a member of
// the administrators group. Group membership is read from the database rather than the token so
// revoking the role takes effect immediately.
func (m AuthorizationMiddleware) RequireAdministrator(c *gin.Context) {
	u, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}

	ctx := c.Request.Context()
	userWithGroups, err := m.userService.FindById(ctx, u.ID)
	if err != nil {
		if errdef.IsNotFound(err) {
			err = errdef.NewUnauthorized("user not found")
		}
		_ = c.Error(err)
		c.Abort()
		return
	}

	if !userWithGroups.IsAdministrator() {
		m.logger.WarnContext(ctx, "User tried to access administrator restricted endpoint", "user", u.ID)
		_ = c.Error(errdef.NewForbidden("administrator access denied"))
		c.Abort()
		return
	}

	c.Next()
}
