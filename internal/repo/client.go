// Package repo is the PostgreSQL data layer. Queries are built with goqu and
// executed over database/sql with the lib/pq driver.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/pkg/crypto"
)

const (
	tableTherapists        = "therapists"
	tablePatients          = "patients"
	tableAdmins            = "admins"
	tableAppointments      = "appointments"
	tableNotifications     = "notifications"
	tableNotificationPrefs = "notification_prefs"
)

var (
	ErrNotFound      = errors.New("repo: not found")
	ErrOverlap       = errors.New("repo: overlapping scheduled appointment")
	ErrStatusChanged = errors.New("repo: status changed concurrently")
)

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type Client struct {
	db       *sql.DB
	gq       *goqu.Database
	notesKey []byte
}

type Option func(*Client)

// WithNotesKey enables AES-256-GCM encryption of appointment notes at rest.
func WithNotesKey(key []byte) Option {
	return func(c *Client) { c.notesKey = key }
}

func NewClient(db *sql.DB, opts ...Option) *Client {
	c := &Client{db: db, gq: goqu.New("postgres", db)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Close() error { return c.db.Close() }

// Ping checks connectivity; used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) from(table string) *goqu.SelectDataset {
	return c.gq.From(table).Prepared(true)
}

func (c *Client) sealNotes(notes *string) (*string, error) {
	if notes == nil || len(c.notesKey) == 0 {
		return notes, nil
	}
	enc, err := crypto.Encrypt(c.notesKey, *notes)
	if err != nil {
		return nil, fmt.Errorf("encrypt notes: %w", err)
	}
	return &enc, nil
}

func (c *Client) openNotes(a *Appointment) {
	if a == nil || a.Notes == nil || len(c.notesKey) == 0 {
		return
	}
	plain, err := crypto.Decrypt(c.notesKey, *a.Notes)
	if err != nil {
		// rows written before encryption was enabled stay readable
		slog.Debug("repo: notes not decryptable, returning stored value", "appointment_id", a.ID, "err", err)
		return
	}
	a.Notes = &plain
}

func newID() uuid.UUID { return uuid.Must(uuid.NewV7()) }
