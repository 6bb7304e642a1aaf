package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/pkg/database"
)

const defaultListLimit = 100

// CreateAppointment inserts a scheduled appointment after re-checking, inside
// the same transaction, that the therapist has no overlapping scheduled one.
// Bookings for one therapist are serialized through a transaction-scoped
// advisory lock; the appointments_no_overlap constraint backs it up.
func (c *Client) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = newID()
	}
	now := time.Now().UTC()
	a.Status = StatusScheduled
	a.ReminderSent = false
	a.CreatedAt, a.UpdatedAt = now, now

	notes, err := c.sealNotes(a.Notes)
	if err != nil {
		return err
	}

	tx, err := c.gq.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = tx.Wrap(func() error {
		if _, err := tx.ExecContext(ctx,
			"SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", a.TherapistID.String()); err != nil {
			return fmt.Errorf("lock therapist calendar: %w", err)
		}

		n, err := tx.From(tableAppointments).Prepared(true).Where(
			goqu.C("therapist_id").Eq(a.TherapistID),
			goqu.C("status").Eq(string(StatusScheduled)),
			goqu.C("start_time").Lt(a.End),
			goqu.C("end_time").Gt(a.Start),
		).CountContext(ctx)
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if n > 0 {
			return ErrOverlap
		}

		_, err = tx.Insert(tableAppointments).Prepared(true).Rows(goqu.Record{
			"id":            a.ID,
			"patient_id":    a.PatientID,
			"therapist_id":  a.TherapistID,
			"start_time":    a.Start,
			"end_time":      a.End,
			"status":        string(StatusScheduled),
			"notes":         notes,
			"reminder_sent": false,
			"created_at":    now,
			"updated_at":    now,
		}).Executor().ExecContext(ctx)
		return err
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrOverlap), database.IsExclusionViolation(err):
		return ErrOverlap
	case database.IsForeignKeyViolation(err):
		return ErrNotFound
	default:
		return fmt.Errorf("create appointment: %w", err)
	}
}

func (c *Client) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a Appointment
	found, err := c.from(tableAppointments).Where(goqu.C("id").Eq(id)).ScanStructContext(ctx, &a)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	c.openNotes(&a)
	return &a, nil
}

// ListAppointments returns appointments matching f ordered by start time.
func (c *Client) ListAppointments(ctx context.Context, f AppointmentFilter) ([]*Appointment, error) {
	var conds []exp.Expression
	if f.TherapistID != nil {
		conds = append(conds, goqu.C("therapist_id").Eq(*f.TherapistID))
	}
	if f.PatientID != nil {
		conds = append(conds, goqu.C("patient_id").Eq(*f.PatientID))
	}
	if f.Status != nil {
		conds = append(conds, goqu.C("status").Eq(string(*f.Status)))
	}
	if f.To != nil {
		conds = append(conds, goqu.C("start_time").Lt(*f.To))
	}
	if f.From != nil {
		conds = append(conds, goqu.C("end_time").Gt(*f.From))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	ds := c.from(tableAppointments).Where(conds...).
		Order(goqu.C("start_time").Asc(), goqu.C("id").Asc()).
		Limit(uint(limit))
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}

	var out []*Appointment
	if err := ds.ScanStructsContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	for _, a := range out {
		c.openNotes(a)
	}
	return out, nil
}

// ScheduledBetween lists a therapist's scheduled appointments overlapping [from, to).
func (c *Client) ScheduledBetween(ctx context.Context, therapistID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	st := StatusScheduled
	return c.ListAppointments(ctx, AppointmentFilter{
		TherapistID: &therapistID,
		Status:      &st,
		From:        &from,
		To:          &to,
		Limit:       1000,
	})
}

// TransitionAppointment moves a scheduled appointment to a terminal status.
// The update only applies while the row is still scheduled. When another
// writer got there first the current row is returned with ErrStatusChanged.
func (c *Client) TransitionAppointment(ctx context.Context, id uuid.UUID, to AppointmentStatus, by *uuid.UUID, at time.Time) (*Appointment, error) {
	set := goqu.Record{"status": string(to), "updated_at": at}
	switch to {
	case StatusCanceled:
		set["canceled_at"] = at
		set["canceled_by"] = by
	case StatusCompleted:
		set["completed_at"] = at
	default:
		return nil, fmt.Errorf("transition appointment: unsupported target %q", to)
	}

	var a Appointment
	found, err := c.gq.Update(tableAppointments).Prepared(true).
		Set(set).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(string(StatusScheduled))).
		Returning(goqu.Star()).
		Executor().ScanStructContext(ctx, &a)
	if err != nil {
		return nil, fmt.Errorf("transition appointment: %w", err)
	}
	if found {
		c.openNotes(&a)
		return &a, nil
	}

	cur, err := c.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	return cur, ErrStatusChanged
}

// MarkReminderSent claims the reminder for a scheduled appointment. It
// reports false when the flag was already set or the appointment left the
// scheduled state.
func (c *Client) MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := c.gq.Update(tableAppointments).Prepared(true).
		Set(goqu.Record{"reminder_sent": true, "updated_at": time.Now().UTC()}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("reminder_sent").IsFalse(),
			goqu.C("status").Eq(string(StatusScheduled)),
		).
		Executor().ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return n == 1, nil
}

func (c *Client) UpdateAppointmentNotes(ctx context.Context, id uuid.UUID, notes *string) (*Appointment, error) {
	sealed, err := c.sealNotes(notes)
	if err != nil {
		return nil, err
	}
	var a Appointment
	found, err := c.gq.Update(tableAppointments).Prepared(true).
		Set(goqu.Record{"notes": sealed, "updated_at": time.Now().UTC()}).
		Where(goqu.C("id").Eq(id)).
		Returning(goqu.Star()).
		Executor().ScanStructContext(ctx, &a)
	if err != nil {
		return nil, fmt.Errorf("update notes: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	c.openNotes(&a)
	return &a, nil
}

// ListMaintenanceCandidates returns scheduled appointments that have either
// ended before now or start within (now, now+lead] without a reminder.
func (c *Client) ListMaintenanceCandidates(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]*Appointment, error) {
	if limit <= 0 {
		limit = 500
	}
	var out []*Appointment
	err := c.from(tableAppointments).Where(
		goqu.C("status").Eq(string(StatusScheduled)),
		goqu.Or(
			goqu.C("end_time").Lt(now),
			goqu.And(
				goqu.C("reminder_sent").IsFalse(),
				goqu.C("start_time").Gt(now),
				goqu.C("start_time").Lte(now.Add(lead)),
			),
		),
	).Order(goqu.C("start_time").Asc()).Limit(uint(limit)).ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("list maintenance candidates: %w", err)
	}
	return out, nil
}
