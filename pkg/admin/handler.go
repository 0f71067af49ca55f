package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/handler"
)

func NewHandler(adminService adminService) Handler {
	return Handler{adminService}
}

type Handler struct {
	adminService adminService
}

type adminService interface {
	Stats(ctx context.Context) (*Stats, error)
	LatestComments(ctx context.Context, limit int) ([]LatestComment, error)
}

// Stats admin
func (h Handler) Stats(c *gin.Context) {
	// swagger:route GET /admin/stats stats
	//
	// Site statistics
	//
	// Number of users, parties, comments, souvenirs and ratings. Only administrators are allowed.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Stats
	//   401: Error
	//   403: Error
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// LatestComments admin
func (h Handler) LatestComments(c *gin.Context) {
	// swagger:route GET /admin/comments latestComments
	//
	// Latest comments
	//
	// Newest comments across all parties for moderation. Only administrators are allowed.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []LatestComment
	//   400: Error
	//   401: Error
	//   403: Error
	limit, ok := handler.GetQueryParameterAsInt(c, "limit", DefaultCommentLimit)
	if !ok {
		return
	}

	comments, err := h.adminService.LatestComments(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, comments)
}
