package event

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/pkg/model"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewHandler(logger *slog.Logger, broker broker, repository eventFinder, heartbeat time.Duration) Handler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return Handler{
		logger:     logger,
		broker:     broker,
		repository: repository,
		heartbeat:  heartbeat,
	}
}

type Handler struct {
	logger     *slog.Logger
	broker     broker
	repository eventFinder
	heartbeat  time.Duration
}

type broker interface {
	Subscribe(userID uint) *Subscription
	Unsubscribe(subscription *Subscription)
}

type eventFinder interface {
	FindLatest(ctx context.Context, limit int) ([]model.Event, error)
}

// Subscribe event
func (h Handler) Subscribe(c *gin.Context) {
	// swagger:route GET /subscribe streamSSE
	//
	// Stream events
	//
	// Stream server-sent events addressed to the current user. Events include upload progress and comments on the users parties.
	//
	// produces:
	//   - text/event-stream
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Stream
	//   401: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	subscription := h.broker.Subscribe(user.ID)
	defer func() {
		h.broker.Unsubscribe(subscription)
		h.logger.InfoContext(ctx, "Closing event stream")
	}()

	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-subscription.Events():
			if !ok {
				return false
			}
			if err := sse.Encode(w, sse.Event{Event: event.Type, Data: event.Message}); err != nil {
				h.logger.InfoContext(ctx, "Failed to write event", "error", err)
				return false
			}
			return true
		case <-ticker.C:
			return sse.Encode(w, sse.Event{Event: "heartbeat", Data: ""}) == nil
		case <-ctx.Done():
			return false
		}
	})
}

// Activity event
func (h Handler) Activity(c *gin.Context) {
	// swagger:route GET /events activity
	//
	// Activity log
	//
	// Latest domain events, newest first. Only administrators are allowed.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []Event
	//   400: Error
	//   401: Error
	//   403: Error
	limit, ok := handler.GetQueryParameterAsInt(c, "limit", defaultActivityLimit)
	if !ok {
		return
	}
	limit = min(max(limit, 1), maxActivityLimit)

	events, err := h.repository.FindLatest(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, events)
}
