package logs

import (
	"context"
	"log/slog"

	"github.com/Alijeyrad/physio_backend/pkg/reqctx"
)

// contextHandler stamps records logged with a context with the request id and
// the trace of the active span (or of the enclosing sweep pass).
type contextHandler struct {
	next slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id := reqctx.RequestIDFromContext(ctx); id != "" {
			r.AddAttrs(slog.String("request_id", id))
		}
		if t := reqctx.TraceFromSpan(ctx); t != nil {
			r.AddAttrs(slog.String("trace_id", t.TraceID), slog.String("span_id", t.SpanID))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}
