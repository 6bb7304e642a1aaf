package reqctx

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type testClaims struct {
	uid  uuid.UUID
	role string
	exp  time.Time
}

func (c testClaims) GetUserID() uuid.UUID     { return c.uid }
func (c testClaims) GetSessionID() *uuid.UUID { return nil }
func (c testClaims) GetRole() string          { return c.role }
func (c testClaims) GetTokenType() string     { return "access" }
func (c testClaims) IsExpired() bool          { return time.Now().After(c.exp) }

func TestClaimsRoundTrip(t *testing.T) {
	ctx := context.Background()
	if IsAuthenticated(ctx) {
		t.Fatal("empty context must not be authenticated")
	}

	uid := uuid.New()
	ctx = WithClaims(ctx, testClaims{uid: uid, role: "patient", exp: time.Now().Add(time.Minute)})

	if !IsAuthenticated(ctx) {
		t.Fatal("expected authenticated context")
	}
	got, ok := UserIDFromContext(ctx)
	if !ok || got != uid {
		t.Errorf("UserIDFromContext = %v, %v", got, ok)
	}
	if r := ClaimsFromContext(ctx).GetRole(); r != "patient" {
		t.Errorf("role = %q", r)
	}
}

func TestExpiredClaims(t *testing.T) {
	ctx := WithClaims(context.Background(), testClaims{uid: uuid.New(), exp: time.Now().Add(-time.Minute)})
	if IsAuthenticated(ctx) {
		t.Error("expired claims must not authenticate")
	}
}

func TestRequestID(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext = %q, want empty", got)
	}
	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "abc"})
	if got := RequestIDFromContext(ctx); got != "abc" {
		t.Errorf("RequestIDFromContext = %q, want abc", got)
	}
}

func TestTraceFromSpan(t *testing.T) {
	if TraceFromSpan(context.Background()) != nil {
		t.Error("expected nil without span or stored trace")
	}
	info := NewTraceInfo()
	ctx := WithTrace(context.Background(), info)
	got := TraceFromSpan(ctx)
	if got == nil || got.TraceID != info.TraceID {
		t.Errorf("TraceFromSpan = %+v, want %+v", got, info)
	}
	if len(info.TraceID) != 32 || len(info.SpanID) != 16 {
		t.Errorf("unexpected id lengths: %q %q", info.TraceID, info.SpanID)
	}
	if NewTraceInfo().TraceID == info.TraceID {
		t.Error("trace ids must differ between passes")
	}
}

func TestTraceFromSpanPrefersActiveSpan(t *testing.T) {
	tid, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	sid, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled})

	ctx := WithTrace(context.Background(), NewTraceInfo())
	ctx = trace.ContextWithSpanContext(ctx, sc)

	got := TraceFromSpan(ctx)
	if got == nil || got.TraceID != tid.String() || got.SpanID != sid.String() || !got.Sampled {
		t.Errorf("TraceFromSpan = %+v, want span %s/%s", got, tid, sid)
	}
}
