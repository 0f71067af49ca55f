package rating

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/pkg/model"
)

func NewHandler(ratingService ratingService) Handler {
	return Handler{ratingService}
}

type Handler struct {
	ratingService ratingService
}

type ratingService interface {
	Rate(ctx context.Context, partyID, userID uint, score int) (*model.Rating, error)
	Delete(ctx context.Context, partyID, userID uint) error
	Summary(ctx context.Context, partyID, userID uint) (*Summary, error)
}

type RateRequest struct {
	Score int `json:"score" binding:"required,score"`
}

// Rate rating
func (h Handler) Rate(c *gin.Context) {
	// swagger:route PUT /parties/{id}/rating rateParty
	//
	// Rate party
	//
	// Rate a party from 1 to 10. Rating again replaces the previous score.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Rating
	//   400: Error
	//   401: Error
	//   404: Error
	//   415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	partyID, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	var request RateRequest
	if err := handler.DataBinder(c, &request); err != nil {
		return
	}

	rating, err := h.ratingService.Rate(c.Request.Context(), partyID, user.ID, request.Score)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

// Delete rating
func (h Handler) Delete(c *gin.Context) {
	// swagger:route DELETE /parties/{id}/rating deleteRating
	//
	// Delete rating
	//
	// Remove the current users rating of a party
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   202:
	//   400: Error
	//   401: Error
	//   404: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	partyID, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	if err := h.ratingService.Delete(c.Request.Context(), partyID, user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusAccepted)
}

// Summary rating
func (h Handler) Summary(c *gin.Context) {
	// swagger:route GET /parties/{id}/ratings ratingSummary
	//
	// Rating summary
	//
	// Count, average and distribution of the ratings of a party
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: RatingSummary
	//   400: Error
	//   401: Error
	//   404: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	partyID, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	summary, err := h.ratingService.Summary(c.Request.Context(), partyID, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
