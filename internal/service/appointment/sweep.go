package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Alijeyrad/physio_backend/internal/events"
	"github.com/Alijeyrad/physio_backend/internal/repo"
	"github.com/Alijeyrad/physio_backend/internal/service/notification"
	"github.com/Alijeyrad/physio_backend/pkg/observability"
)

// Plan lists the appointments a sweep acts on.
type Plan struct {
	Complete []*repo.Appointment
	Remind   []*repo.Appointment
}

// PlanMaintenance picks scheduled appointments that have ended before now for
// completion, and scheduled appointments without a reminder that start in
// (now, now+lead] for a reminder.
func PlanMaintenance(now time.Time, appts []*repo.Appointment, lead time.Duration) Plan {
	var p Plan
	for _, a := range appts {
		if a == nil || a.Status != repo.StatusScheduled {
			continue
		}
		if a.End.Before(now) {
			p.Complete = append(p.Complete, a)
			continue
		}
		if a.ReminderSent {
			continue
		}
		if until := a.Start.Sub(now); until > 0 && until <= lead {
			p.Remind = append(p.Remind, a)
		}
	}
	return p
}

// MaintenanceResult holds the appointments a sweep changed and the notices it
// delivered to the notifier.
type MaintenanceResult struct {
	Updated       []*repo.Appointment
	Notifications []notification.Notice
}

func (s *appointmentService) RunMaintenance(ctx context.Context, now time.Time) (*MaintenanceResult, error) {
	ctx, span := observability.StartSpan(ctx, "appointment.sweep")
	defer span.End()
	started := time.Now()

	candidates, err := s.store.ListMaintenanceCandidates(ctx, now, s.opts.ReminderLead, s.opts.SweepBatch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list candidates")
		return nil, fmt.Errorf("list maintenance candidates: %w", err)
	}

	plan := PlanMaintenance(now, candidates, s.opts.ReminderLead)
	res := &MaintenanceResult{}

	for _, a := range plan.Complete {
		s.completeFinished(ctx, a, now, res)
	}
	for _, a := range plan.Remind {
		s.remind(ctx, a, res)
	}

	span.SetAttributes(
		attribute.Int("sweep.candidates", len(candidates)),
		attribute.Int("sweep.updated", len(res.Updated)),
		attribute.Int("sweep.notifications", len(res.Notifications)),
	)
	s.metrics.Sweep(ctx, time.Since(started))
	if len(res.Updated) > 0 {
		slog.InfoContext(ctx, "appointment: sweep finished",
			"completed", len(plan.Complete),
			"reminded", len(plan.Remind),
			"updated", len(res.Updated),
			"notifications", len(res.Notifications),
		)
	}
	return res, nil
}

func (s *appointmentService) completeFinished(ctx context.Context, a *repo.Appointment, now time.Time, res *MaintenanceResult) {
	updated, err := s.store.TransitionAppointment(ctx, a.ID, repo.StatusCompleted, nil, now.UTC())
	if err != nil {
		if !errors.Is(err, repo.ErrStatusChanged) {
			slog.ErrorContext(ctx, "appointment: sweep complete failed", "appointment_id", a.ID, "err", err)
		}
		return
	}
	res.Updated = append(res.Updated, updated)
	s.metrics.Transition(ctx, string(repo.StatusCompleted), "sweep")

	s.emit(ctx, res, notification.Notice{
		UserID:        a.TherapistID,
		Kind:          notification.KindDocumentSession,
		Text:          documentText(s.patientName(ctx, a.PatientID), s.local(a.Start)),
		AppointmentID: a.ID,
	})
	s.publish(ctx, events.AppointmentCompleted, updated)
}

// remind claims the reminder flag first, so a notice is sent at most once.
func (s *appointmentService) remind(ctx context.Context, a *repo.Appointment, res *MaintenanceResult) {
	claimed, err := s.store.MarkReminderSent(ctx, a.ID)
	if err != nil {
		slog.ErrorContext(ctx, "appointment: sweep reminder claim failed", "appointment_id", a.ID, "err", err)
		return
	}
	if !claimed {
		return
	}
	marked := *a
	marked.ReminderSent = true
	res.Updated = append(res.Updated, &marked)
	s.metrics.Reminder(ctx)

	start := s.local(a.Start)
	s.emit(ctx, res, notification.Notice{
		UserID:        a.PatientID,
		Kind:          notification.KindAppointmentReminder,
		Text:          reminderText(s.therapistName(ctx, a.TherapistID), start),
		AppointmentID: a.ID,
	})
	s.emit(ctx, res, notification.Notice{
		UserID:        a.TherapistID,
		Kind:          notification.KindAppointmentReminder,
		Text:          reminderText(s.patientName(ctx, a.PatientID), start),
		AppointmentID: a.ID,
	})
}

func (s *appointmentService) emit(ctx context.Context, res *MaintenanceResult, n notification.Notice) {
	if s.notify(ctx, n) {
		res.Notifications = append(res.Notifications, n)
	}
}
