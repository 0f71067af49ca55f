package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetPathParameter(c *gin.Context, parameter string) (uint, bool) {
	idParam := c.Param(parameter)
	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, fmt.Errorf("error parsing %q: %v", parameter, err))
		return 0, false
	}
	return uint(id), true
}

// GetQueryParameterAsInt returns the query parameter as an int or fallback if it is absent. A
// malformed or negative value aborts the request with a 400.
func GetQueryParameterAsInt(c *gin.Context, parameter string, fallback int) (int, bool) {
	value, ok := c.GetQuery(parameter)
	if !ok || value == "" {
		return fallback, true
	}

	i, err := strconv.Atoi(value)
	if err != nil || i < 0 {
		_ = c.AbortWithError(http.StatusBadRequest, fmt.Errorf("error parsing query parameter %q: must be a positive integer", parameter))
		return 0, false
	}
	return i, true
}
