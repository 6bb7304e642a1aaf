package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo identifies the trace a log line or background pass belongs to.
type TraceInfo struct {
	// TraceID is a 32-character hex string (128-bit).
	TraceID string

	// SpanID is a 16-character hex string (64-bit).
	SpanID string

	Sampled bool
}

// WithTrace stores trace info in the context.
func WithTrace(ctx context.Context, trace *TraceInfo) context.Context {
	return context.WithValue(ctx, keyTrace, trace)
}

// TraceFromContext retrieves trace info from the context.
// Returns nil, false if not set.
func TraceFromContext(ctx context.Context) (*TraceInfo, bool) {
	v := ctx.Value(keyTrace)
	if v == nil {
		return nil, false
	}
	trace, ok := v.(*TraceInfo)
	return trace, ok && trace != nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewTraceInfo creates a TraceInfo with random W3C-sized ids, for work that
// starts outside any request, like a sweep pass.
func NewTraceInfo() *TraceInfo {
	return &TraceInfo{
		TraceID: randomHex(16),
		SpanID:  randomHex(8),
		Sampled: true,
	}
}

// TraceFromSpan returns the trace info of the active OpenTelemetry span, or
// the info stored by WithTrace when no span is recording.
func TraceFromSpan(ctx context.Context) *TraceInfo {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		return &TraceInfo{
			TraceID: sc.TraceID().String(),
			SpanID:  sc.SpanID().String(),
			Sampled: sc.IsSampled(),
		}
	}
	if t, ok := TraceFromContext(ctx); ok {
		return t
	}
	return nil
}
