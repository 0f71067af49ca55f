// Package log provides slog handlers.
package log

import (
	"context"
	"log/slog"

	"github.com/partyhub/partyhub/internal/middleware"
	"github.com/partyhub/partyhub/pkg/model"
	"go.opentelemetry.io/otel/trace"
)

const traceIDKey = "traceId"

// ContextHandler enriches records with the correlation id, the authenticated user and the trace id
// found in the context. Keys match the ones of [middleware.RequestLogger]. Records logged outside
// of a request, like the ones of the notification consumer, go through unchanged.
type ContextHandler struct {
	slog.Handler
}

func New(handler slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: handler}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := middleware.GetCorrelationID(ctx); ok {
		r.AddAttrs(slog.String(middleware.RequestLoggerKeyCorrelationID, id))
	}

	if user, ok := model.GetUserFromContext(ctx); ok {
		r.AddAttrs(slog.Uint64(middleware.RequestLoggerKeyUser, uint64(user.ID)))
	}

	if spanContext := trace.SpanContextFromContext(ctx); spanContext.HasTraceID() {
		r.AddAttrs(slog.String(traceIDKey, spanContext.TraceID().String()))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return New(h.Handler.WithAttrs(attrs))
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return New(h.Handler.WithGroup(name))
}
