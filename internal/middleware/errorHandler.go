package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/errdef"
)

// statusByKind is checked in order, the first matching kind decides the status code.
var statusByKind = []struct {
	is     func(error) bool
	status int
}{
	{errdef.IsBadRequest, http.StatusBadRequest},
	{errdef.IsUnauthorized, http.StatusUnauthorized},
	{errdef.IsForbidden, http.StatusForbidden},
	{errdef.IsNotFound, http.StatusNotFound},
	{errdef.IsDuplicated, http.StatusConflict},
	{errdef.IsConflict, http.StatusConflict},
	{errdef.IsPayloadTooLarge, http.StatusRequestEntityTooLarge},
	{errdef.IsUnsupportedMediaType, http.StatusUnsupportedMediaType},
}

// ErrorHandler writes the last error a handler added to the Gin context. Errors of a known errdef
// kind are returned as is, anything else becomes a 500 carrying only the correlation id.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil || c.Writer.Written() {
			return
		}

		// status set explicitly through c.AbortWithError
		if status := c.Writer.Status(); status != http.StatusOK {
			c.String(status, err.Error())
			return
		}

		for _, kind := range statusByKind {
			if kind.is(err) {
				c.String(kind.status, err.Error())
				return
			}
		}

		id, _ := GetCorrelationID(c.Request.Context())
		c.String(http.StatusInternalServerError, fmt.Sprintf("something went wrong, please report correlation id %q", id))
	}
}
