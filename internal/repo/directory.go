package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/pkg/database"
)

// ---------------------------------------------------------------------------
// Therapists
// ---------------------------------------------------------------------------

func (c *Client) GetTherapist(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	var t Therapist
	found, err := c.from(tableTherapists).Where(goqu.C("id").Eq(id)).ScanStructContext(ctx, &t)
	if err != nil {
		return nil, fmt.Errorf("get therapist: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (c *Client) CreateTherapist(ctx context.Context, t *Therapist) error {
	if t.ID == uuid.Nil {
		t.ID = newID()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := c.gq.Insert(tableTherapists).Prepared(true).Rows(goqu.Record{
		"id":           t.ID,
		"name":         t.Name,
		"email":        t.Email,
		"phone":        t.Phone,
		"availability": t.Availability,
		"created_at":   now,
		"updated_at":   now,
	}).OnConflict(goqu.DoNothing()).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("create therapist: %w", err)
	}
	return nil
}

// UpdateAvailability replaces the whole weekly availability document.
func (c *Client) UpdateAvailability(ctx context.Context, therapistID uuid.UUID, avail WeeklyAvailability) (*Therapist, error) {
	var t Therapist
	found, err := c.gq.Update(tableTherapists).Prepared(true).
		Set(goqu.Record{"availability": avail, "updated_at": time.Now().UTC()}).
		Where(goqu.C("id").Eq(therapistID)).
		Returning(goqu.Star()).
		Executor().ScanStructContext(ctx, &t)
	if err != nil {
		return nil, fmt.Errorf("update availability: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &t, nil
}

// ---------------------------------------------------------------------------
// Patients and admins
// ---------------------------------------------------------------------------

func (c *Client) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	found, err := c.from(tablePatients).Where(goqu.C("id").Eq(id)).ScanStructContext(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (c *Client) CreatePatient(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = newID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := c.gq.Insert(tablePatients).Prepared(true).Rows(goqu.Record{
		"id":           p.ID,
		"therapist_id": p.TherapistID,
		"name":         p.Name,
		"email":        p.Email,
		"phone":        p.Phone,
		"created_at":   now,
		"updated_at":   now,
	}).OnConflict(goqu.DoNothing()).Executor().ExecContext(ctx)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (c *Client) GetAdmin(ctx context.Context, id uuid.UUID) (*Admin, error) {
	var a Admin
	found, err := c.from(tableAdmins).Where(goqu.C("id").Eq(id)).ScanStructContext(ctx, &a)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (c *Client) CreateAdmin(ctx context.Context, a *Admin) error {
	if a.ID == uuid.Nil {
		a.ID = newID()
	}
	a.CreatedAt = time.Now().UTC()
	_, err := c.gq.Insert(tableAdmins).Prepared(true).Rows(goqu.Record{
		"id":         a.ID,
		"name":       a.Name,
		"email":      a.Email,
		"phone":      a.Phone,
		"created_at": a.CreatedAt,
	}).OnConflict(goqu.DoNothing()).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// GetContact resolves a user id against every directory table.
func (c *Client) GetContact(ctx context.Context, id uuid.UUID) (*Contact, error) {
	if p, err := c.GetPatient(ctx, id); err == nil {
		return &Contact{UserID: p.ID, Kind: "patient", Name: p.Name, Email: p.Email, Phone: p.Phone}, nil
	} else if !IsNotFound(err) {
		return nil, err
	}
	if t, err := c.GetTherapist(ctx, id); err == nil {
		return &Contact{UserID: t.ID, Kind: "therapist", Name: t.Name, Email: t.Email, Phone: t.Phone}, nil
	} else if !IsNotFound(err) {
		return nil, err
	}
	a, err := c.GetAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Contact{UserID: a.ID, Kind: "admin", Name: a.Name, Email: a.Email, Phone: a.Phone}, nil
}
