package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/internal/events"
	"github.com/Alijeyrad/physio_backend/internal/repo"
	"github.com/Alijeyrad/physio_backend/internal/service/notification"
	"github.com/Alijeyrad/physio_backend/internal/service/scheduling"
	"github.com/Alijeyrad/physio_backend/pkg/authorize"
	"github.com/Alijeyrad/physio_backend/pkg/observability"
)

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

type Store interface {
	GetTherapist(ctx context.Context, id uuid.UUID) (*repo.Therapist, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*repo.Patient, error)

	CreateAppointment(ctx context.Context, a *repo.Appointment) error
	GetAppointment(ctx context.Context, id uuid.UUID) (*repo.Appointment, error)
	ListAppointments(ctx context.Context, f repo.AppointmentFilter) ([]*repo.Appointment, error)
	TransitionAppointment(ctx context.Context, id uuid.UUID, to repo.AppointmentStatus, by *uuid.UUID, at time.Time) (*repo.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateAppointmentNotes(ctx context.Context, id uuid.UUID, notes *string) (*repo.Appointment, error)
	ListMaintenanceCandidates(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]*repo.Appointment, error)
}

// Notifier delivers a notice to one user. notification.Service satisfies it.
type Notifier interface {
	Notify(ctx context.Context, n notification.Notice) (*repo.Notification, error)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	Actor       authorize.Actor
	TherapistID *uuid.UUID
	PatientID   *uuid.UUID
	Status      *string
	From        *time.Time
	To          *time.Time
	Page        int
	PerPage     int
}

type BookRequest struct {
	Actor       authorize.Actor
	TherapistID uuid.UUID
	PatientID   uuid.UUID
	Start       time.Time
	// DurationMinutes overrides the slot length; zero means one slot.
	DurationMinutes int
	Notes           *string
}

// AppointmentEdit replaces the clinical notes of an appointment.
type AppointmentEdit struct {
	AppointmentID uuid.UUID
	Actor         authorize.Actor
	Notes         *string
}

type Options struct {
	Granularity  time.Duration
	Location     *time.Location
	ReminderLead time.Duration
	SweepBatch   int
	Now          func() time.Time
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, req ListRequest) ([]*repo.Appointment, error)
	GetByID(ctx context.Context, apptID uuid.UUID, actor authorize.Actor) (*repo.Appointment, error)
	Book(ctx context.Context, req BookRequest) (*repo.Appointment, error)
	Cancel(ctx context.Context, apptID uuid.UUID, actor authorize.Actor) (*repo.Appointment, error)
	Complete(ctx context.Context, apptID uuid.UUID, actor authorize.Actor) (*repo.Appointment, error)
	UpdateNotes(ctx context.Context, edit AppointmentEdit) (*repo.Appointment, error)

	// RunMaintenance completes finished appointments and sends due reminders.
	RunMaintenance(ctx context.Context, now time.Time) (*MaintenanceResult, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	store    Store
	notifier Notifier
	pub      events.Publisher
	opts     Options
	metrics  *observability.SchedulerMetrics
}

func New(store Store, notifier Notifier, pub events.Publisher, opts Options) Service {
	if opts.Granularity <= 0 {
		opts.Granularity = 30 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ReminderLead <= 0 {
		opts.ReminderLead = 24 * time.Hour
	}
	if opts.SweepBatch <= 0 {
		opts.SweepBatch = 500
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &appointmentService{
		store:    store,
		notifier: notifier,
		pub:      pub,
		opts:     opts,
		metrics:  observability.Scheduler(),
	}
}

func (s *appointmentService) List(ctx context.Context, req ListRequest) ([]*repo.Appointment, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}

	f := repo.AppointmentFilter{
		TherapistID: req.TherapistID,
		PatientID:   req.PatientID,
		From:        req.From,
		To:          req.To,
		Limit:       req.PerPage,
		Offset:      (req.Page - 1) * req.PerPage,
	}
	if req.Status != nil {
		st := repo.AppointmentStatus(*req.Status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
		f.Status = &st
	}
	if req.From != nil && req.To != nil && !req.From.Before(*req.To) {
		return nil, fmt.Errorf("%w: from must be before to", ErrValidation)
	}

	// callers only ever see their own calendar
	switch {
	case req.Actor.IsAdmin():
	case req.Actor.IsTherapist():
		id := req.Actor.ID
		f.TherapistID = &id
	case req.Actor.IsPatient():
		id := req.Actor.ID
		f.PatientID = &id
	default:
		return nil, ErrForbidden
	}

	appts, err := s.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	if appts == nil {
		appts = []*repo.Appointment{}
	}
	return appts, nil
}

func (s *appointmentService) GetByID(ctx context.Context, apptID uuid.UUID, actor authorize.Actor) (*repo.Appointment, error) {
	a, err := s.get(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, a) {
		return nil, ErrForbidden
	}
	return a, nil
}

func (s *appointmentService) get(ctx context.Context, apptID uuid.UUID) (*repo.Appointment, error) {
	a, err := s.store.GetAppointment(ctx, apptID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// Booking
// ---------------------------------------------------------------------------

func (s *appointmentService) Book(ctx context.Context, req BookRequest) (*repo.Appointment, error) {
	switch {
	case req.Actor.IsAdmin():
	case req.Actor.IsPatient() && req.Actor.Is(req.PatientID):
	case req.Actor.IsTherapist() && req.Actor.Is(req.TherapistID):
	default:
		return nil, ErrForbidden
	}

	if req.Start.IsZero() {
		return nil, fmt.Errorf("%w: start is required", ErrValidation)
	}
	dur := s.opts.Granularity
	if req.DurationMinutes != 0 {
		dur = time.Duration(req.DurationMinutes) * time.Minute
		if dur <= 0 || dur%s.opts.Granularity != 0 {
			return nil, fmt.Errorf("%w: duration must be a positive multiple of %s", ErrValidation, s.opts.Granularity)
		}
	}

	therapist, err := s.store.GetTherapist(ctx, req.TherapistID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTherapistNotFound
		}
		return nil, fmt.Errorf("get therapist: %w", err)
	}
	patient, err := s.store.GetPatient(ctx, req.PatientID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}

	start := req.Start
	end := start.Add(dur)
	if !scheduling.SlotOnGrid(therapist.Availability, start, end, s.opts.Granularity, s.opts.Location) {
		return nil, fmt.Errorf("%w: requested time is outside the therapist's availability", ErrValidation)
	}
	if !start.After(s.opts.Now()) {
		return nil, fmt.Errorf("%w: start must be in the future", ErrValidation)
	}

	a := &repo.Appointment{
		PatientID:   patient.ID,
		TherapistID: therapist.ID,
		Start:       start.UTC(),
		End:         end.UTC(),
		Status:      repo.StatusScheduled,
		Notes:       req.Notes,
	}
	if err := s.store.CreateAppointment(ctx, a); err != nil {
		switch {
		case errors.Is(err, repo.ErrOverlap):
			s.metrics.Booking(ctx, "conflict")
			return nil, ErrConflict
		case repo.IsNotFound(err):
			s.metrics.Booking(ctx, "missing_party")
			return nil, ErrTherapistNotFound
		}
		s.metrics.Booking(ctx, "error")
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	s.metrics.Booking(ctx, "ok")

	slog.InfoContext(ctx, "appointment: booked",
		"appointment_id", a.ID,
		"therapist_id", a.TherapistID,
		"patient_id", a.PatientID,
		"start", a.Start,
	)

	s.notify(ctx, notification.Notice{
		UserID:        therapist.ID,
		Kind:          notification.KindAppointmentBooked,
		Text:          bookedText(patient.Name, s.local(a.Start)),
		AppointmentID: a.ID,
	})
	s.publish(ctx, events.AppointmentBooked, a)
	return a, nil
}

// ---------------------------------------------------------------------------
// Transitions
// ---------------------------------------------------------------------------

func (s *appointmentService) Cancel(ctx context.Context, apptID uuid.UUID, actor authorize.Actor) (*repo.Appointment, error) {
	a, err := s.get(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, a) {
		return nil, ErrForbidden
	}

	var by *uuid.UUID
	if actor.ID != uuid.Nil {
		id := actor.ID
		by = &id
	}
	updated, err := s.transition(ctx, a, repo.StatusCanceled, by, "manual")
	if err != nil {
		return nil, err
	}

	// counterparty of whoever canceled
	recipient, who := a.PatientID, "your therapist"
	if actor.IsPatient() {
		recipient, who = a.TherapistID, s.patientName(ctx, a.PatientID)
	} else if actor.IsAdmin() {
		who = "the clinic"
	}
	s.notify(ctx, notification.Notice{
		UserID:        recipient,
		Kind:          notification.KindAppointmentCanceled,
		Text:          canceledText(who, s.local(a.Start)),
		AppointmentID: a.ID,
	})
	s.publish(ctx, events.AppointmentCanceled, updated)
	return updated, nil
}

func (s *appointmentService) Complete(ctx context.Context, apptID uuid.UUID, actor authorize.Actor) (*repo.Appointment, error) {
	a, err := s.get(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, a) {
		return nil, ErrForbidden
	}

	updated, err := s.transition(ctx, a, repo.StatusCompleted, nil, "manual")
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.AppointmentCompleted, updated)
	return updated, nil
}

// transition applies scheduled -> to as a compare-and-swap.
func (s *appointmentService) transition(ctx context.Context, a *repo.Appointment, to repo.AppointmentStatus, by *uuid.UUID, source string) (*repo.Appointment, error) {
	if a.Status != repo.StatusScheduled {
		return nil, ErrInvalidTransition
	}
	updated, err := s.store.TransitionAppointment(ctx, a.ID, to, by, s.opts.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrStatusChanged):
			return nil, ErrInvalidTransition
		case repo.IsNotFound(err):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("transition appointment: %w", err)
	}
	s.metrics.Transition(ctx, string(to), source)
	slog.InfoContext(ctx, "appointment: status changed", "appointment_id", a.ID, "status", to, "source", source)
	return updated, nil
}

func (s *appointmentService) UpdateNotes(ctx context.Context, edit AppointmentEdit) (*repo.Appointment, error) {
	a, err := s.get(ctx, edit.AppointmentID)
	if err != nil {
		return nil, err
	}
	if !canManage(edit.Actor, a) {
		return nil, ErrForbidden
	}

	updated, err := s.store.UpdateAppointmentNotes(ctx, a.ID, edit.Notes)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update notes: %w", err)
	}
	return updated, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func canView(actor authorize.Actor, a *repo.Appointment) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsTherapist():
		return actor.Is(a.TherapistID)
	case actor.IsPatient():
		return actor.Is(a.PatientID)
	}
	return false
}

func canManage(actor authorize.Actor, a *repo.Appointment) bool {
	return actor.IsAdmin() || (actor.IsTherapist() && actor.Is(a.TherapistID))
}

func (s *appointmentService) local(t time.Time) time.Time {
	return t.In(s.opts.Location)
}

func (s *appointmentService) patientName(ctx context.Context, id uuid.UUID) string {
	p, err := s.store.GetPatient(ctx, id)
	if err != nil || p.Name == "" {
		return "your patient"
	}
	return p.Name
}

func (s *appointmentService) therapistName(ctx context.Context, id uuid.UUID) string {
	t, err := s.store.GetTherapist(ctx, id)
	if err != nil || t.Name == "" {
		return "your therapist"
	}
	return t.Name
}

// notify reports whether the notice was stored. Failures never fail the caller.
func (s *appointmentService) notify(ctx context.Context, n notification.Notice) bool {
	if s.notifier == nil {
		return false
	}
	if _, err := s.notifier.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "appointment: notify failed",
			"user_id", n.UserID,
			"kind", n.Kind,
			"appointment_id", n.AppointmentID,
			"err", err,
		)
		return false
	}
	return true
}

func (s *appointmentService) publish(ctx context.Context, kind string, a *repo.Appointment) {
	err := s.pub.Publish(ctx, events.AppointmentSubject(kind, a.ID), events.AppointmentEvent{
		AppointmentID: a.ID,
		TherapistID:   a.TherapistID,
		PatientID:     a.PatientID,
		Start:         a.Start,
	})
	if err != nil {
		slog.WarnContext(ctx, "appointment: publish failed", "kind", kind, "appointment_id", a.ID, "err", err)
	}
}
