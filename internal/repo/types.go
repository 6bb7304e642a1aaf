package repo

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCanceled  AppointmentStatus = "canceled"
)

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// ---------------------------------------------------------------------------
// Weekly availability
// ---------------------------------------------------------------------------

// TimeWindow is an open interval of a day in "HH:MM" clock notation.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayAvailability lists the open windows of one weekday (0 = Sunday).
type DayAvailability struct {
	Day   int          `json:"day"`
	Slots []TimeWindow `json:"slots"`
}

// WeeklyAvailability is stored as JSONB on the therapist row.
type WeeklyAvailability []DayAvailability

// ForDay returns the windows configured for the weekday, or nil.
func (w WeeklyAvailability) ForDay(day time.Weekday) []TimeWindow {
	for _, d := range w {
		if d.Day == int(day) {
			return d.Slots
		}
	}
	return nil
}

// Value encodes as a JSON string; lib/pq would send []byte as bytea.
func (w WeeklyAvailability) Value() (driver.Value, error) {
	if w == nil {
		return "[]", nil
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (w *WeeklyAvailability) Scan(src any) error {
	return scanJSON(src, w)
}

// JSONMap is a free-form JSONB object column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(src any) error {
	return scanJSON(src, m)
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}

// ---------------------------------------------------------------------------
// Entities
// ---------------------------------------------------------------------------

type Therapist struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	Name         string             `db:"name" json:"name"`
	Email        string             `db:"email" json:"email,omitempty"`
	Phone        string             `db:"phone" json:"phone,omitempty"`
	Availability WeeklyAvailability `db:"availability" json:"availability"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	TherapistID *uuid.UUID `db:"therapist_id" json:"therapist_id,omitempty"`
	Name        string     `db:"name" json:"name"`
	Email       string     `db:"email" json:"email,omitempty"`
	Phone       string     `db:"phone" json:"phone,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type Admin struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email,omitempty"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Contact is the delivery address of any directory entry.
type Contact struct {
	UserID uuid.UUID
	Kind   string // therapist | patient | admin
	Name   string
	Email  string
	Phone  string
}

type Appointment struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	TherapistID  uuid.UUID         `db:"therapist_id" json:"therapist_id"`
	Start        time.Time         `db:"start_time" json:"start"`
	End          time.Time         `db:"end_time" json:"end"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Notes        *string           `db:"notes" json:"notes,omitempty"`
	ReminderSent bool              `db:"reminder_sent" json:"reminder_sent"`
	CanceledBy   *uuid.UUID        `db:"canceled_by" json:"canceled_by,omitempty"`
	CanceledAt   *time.Time        `db:"canceled_at" json:"canceled_at,omitempty"`
	CompletedAt  *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

type appointmentAlias Appointment

// appointmentJSON shadows Start and End so they travel as epoch milliseconds,
// the same encoding slot listings use.
type appointmentJSON struct {
	*appointmentAlias
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

func (a Appointment) MarshalJSON() ([]byte, error) {
	return json.Marshal(appointmentJSON{
		appointmentAlias: (*appointmentAlias)(&a),
		Start:            a.Start.UnixMilli(),
		End:              a.End.UnixMilli(),
	})
}

func (a *Appointment) UnmarshalJSON(b []byte) error {
	v := appointmentJSON{appointmentAlias: (*appointmentAlias)(a)}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	a.Start = time.UnixMilli(v.Start).UTC()
	a.End = time.UnixMilli(v.End).UTC()
	return nil
}

// Overlaps reports whether the appointment intersects the half-open [start, end).
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.Start.Before(end) && a.End.After(start)
}

// Blocks reports whether the appointment occupies the therapist's calendar.
func (a *Appointment) Blocks(start, end time.Time) bool {
	return a.Status == StatusScheduled && a.Overlaps(start, end)
}

// AppointmentFilter selects appointments overlapping [From, To).
type AppointmentFilter struct {
	TherapistID *uuid.UUID
	PatientID   *uuid.UUID
	Status      *AppointmentStatus
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Body      *string   `db:"body" json:"body,omitempty"`
	Data      JSONMap   `db:"data" json:"data,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type NotificationPref struct {
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	AppointmentSMS   bool      `db:"appointment_sms" json:"appointment_sms"`
	AppointmentEmail bool      `db:"appointment_email" json:"appointment_email"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
