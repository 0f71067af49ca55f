package geocode

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

func NewHandler(geocoder geocoder) Handler {
	return Handler{geocoder}
}

type Handler struct {
	geocoder geocoder
}

type geocoder interface {
	Lookup(ctx context.Context, city string) (*Coordinates, error)
}

// Lookup geocode
func (h Handler) Lookup(c *gin.Context) {
	// swagger:route GET /geocode geocode
	//
	// Geocode city
	//
	// Look up the coordinates of a city
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Coordinates
	//   400: Error
	//   401: Error
	//   404: Error
	coordinates, err := h.geocoder.Lookup(c.Request.Context(), c.Query("city"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, coordinates)
}
