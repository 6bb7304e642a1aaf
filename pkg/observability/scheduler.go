package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const schedulerScope = "github.com/Alijeyrad/physio_backend/scheduler"

// SchedulerMetrics counts booking outcomes, status transitions, reminders and
// sweep passes. Instruments are bound to the global meter provider on first use.
type SchedulerMetrics struct {
	bookings    metric.Int64Counter
	transitions metric.Int64Counter
	reminders   metric.Int64Counter
	sweeps      metric.Float64Histogram
}

var (
	schedOnce sync.Once
	sched     *SchedulerMetrics
)

// Scheduler returns the process-wide scheduler instruments.
func Scheduler() *SchedulerMetrics {
	schedOnce.Do(func() {
		meter := otel.Meter(schedulerScope)
		m := &SchedulerMetrics{}
		m.bookings, _ = meter.Int64Counter(
			"scheduler_bookings_total",
			metric.WithDescription("Booking attempts by result"),
		)
		m.transitions, _ = meter.Int64Counter(
			"scheduler_transitions_total",
			metric.WithDescription("Appointment status transitions by target status and source"),
		)
		m.reminders, _ = meter.Int64Counter(
			"scheduler_reminders_total",
			metric.WithDescription("Appointment reminders claimed"),
		)
		m.sweeps, _ = meter.Float64Histogram(
			"scheduler_sweep_duration_ms",
			metric.WithDescription("Maintenance sweep duration"),
			metric.WithUnit("ms"),
		)
		sched = m
	})
	return sched
}

func (m *SchedulerMetrics) Booking(ctx context.Context, result string) {
	m.bookings.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *SchedulerMetrics) Transition(ctx context.Context, status, source string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("source", source),
	))
}

func (m *SchedulerMetrics) Reminder(ctx context.Context) {
	m.reminders.Add(ctx, 1)
}

func (m *SchedulerMetrics) Sweep(ctx context.Context, d time.Duration) {
	m.sweeps.Record(ctx, float64(d.Microseconds())/1000)
}

// StartSpan opens an internal span on the scheduler tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(schedulerScope).Start(ctx, name, trace.WithAttributes(attrs...))
}
