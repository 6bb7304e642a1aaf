package observability

import (
	"context"
	"testing"

	"github.com/Alijeyrad/physio_backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Environment = "staging"
	cfg.Observability.Tracing.Enabled = true
	cfg.Observability.Tracing.OTLPEndpoint = "otel:4318"
	cfg.Observability.Tracing.SamplingRate = 0.5

	got := FromCentralConfig(cfg)
	if got.ServiceName != "physio" {
		t.Fatalf("ServiceName = %q, want default physio", got.ServiceName)
	}
	if got.Environment != "staging" || !got.TracingEnabled || got.OTLPEndpoint != "otel:4318" || got.SamplingRate != 0.5 {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}

func TestInitTelemetryWithoutExporter(t *testing.T) {
	p, err := InitTelemetry(context.Background(), Config{ServiceName: "physio-test"})
	if err != nil {
		t.Fatalf("InitTelemetry: %v", err)
	}
	if p.TracerProvider == nil || p.MeterProvider == nil || p.PrometheusExporter == nil {
		t.Fatal("providers not initialised")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
