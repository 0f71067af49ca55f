package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// swagger:model
type Status struct {
	Status string `json:"status"`
}

// Health returns the health status of the service
func Health(c *gin.Context) {
	// swagger:route GET /health health
	//
	// Service health status
	//
	// Service health status
	//
	// Responses:
	//   200: Status
	c.JSON(http.StatusOK, Status{Status: "up"})
}
