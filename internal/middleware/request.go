package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestLoggerKeyCorrelationID = "correlationId"
	RequestLoggerKeyUser          = "user"
	CorrelationIDHeader           = "X-Correlation-ID"

	healthRoute = "/health"
)

type correlationIDKey struct{}

// CorrelationID tags every request with a correlation id. An id set by a proxy in the
// X-Correlation-ID header is kept if it is a UUID, otherwise a new one is generated. The id is
// returned in the same header.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Request = c.Request.WithContext(NewContextWithCorrelationID(c.Request.Context(), id))
		c.Header(CorrelationIDHeader, id)

		c.Next()
	}
}

func NewContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// GetCorrelationID returns the id set by [CorrelationID], if any.
func GetCorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey{}).(string)
	return id, ok
}

// RequestLogger writes one line per request once it is handled. Client errors are logged as
// warnings and server errors as errors, both with the errors collected on the context. Health
// checks are only logged at debug level.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()

		params := make(map[string]string, len(c.Params))
		for _, param := range c.Params {
			params[param.Key] = param.Value
		}

		attrs := []slog.Attr{
			slog.Group("request",
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("route", route),
				slog.String("query", c.Request.URL.RawQuery),
				slog.Any("params", params),
				slog.Int64("bytes", c.Request.ContentLength),
				slog.String("userAgent", c.Request.UserAgent()),
				slog.String("ip", c.ClientIP()),
			),
			slog.Group("response",
				slog.Int("status", status),
				slog.Int("bytes", c.Writer.Size()),
				slog.Duration("latency", time.Since(start)),
			),
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		case route == healthRoute:
			level = slog.LevelDebug
		}

		if level >= slog.LevelWarn {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
		}

		logger.LogAttrs(c.Request.Context(), level, "Processed HTTP request", attrs...)
	}
}
