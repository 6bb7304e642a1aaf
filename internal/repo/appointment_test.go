package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func setupMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewClient(db), mock
}

func newAppointment() *Appointment {
	start := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)
	return &Appointment{
		PatientID:   uuid.New(),
		TherapistID: uuid.New(),
		Start:       start,
		End:         start.Add(30 * time.Minute),
	}
}

func TestCreateAppointment_Inserts(t *testing.T) {
	c, mock := setupMockClient(t)
	a := newAppointment()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(a.TherapistID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS "count" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO "appointments"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := c.CreateAppointment(context.Background(), a); err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
	if a.Status != StatusScheduled {
		t.Errorf("status = %q, want scheduled", a.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateAppointment_OverlapRollsBack(t *testing.T) {
	c, mock := setupMockClient(t)
	a := newAppointment()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS "count" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := c.CreateAppointment(context.Background(), a)
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("err = %v, want ErrOverlap", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateAppointment_ExclusionViolation(t *testing.T) {
	c, mock := setupMockClient(t)
	a := newAppointment()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO "appointments"`).
		WillReturnError(&pq.Error{Code: "23P01", Constraint: "appointments_no_overlap"})
	mock.ExpectRollback()

	if err := c.CreateAppointment(context.Background(), a); !errors.Is(err, ErrOverlap) {
		t.Fatalf("err = %v, want ErrOverlap", err)
	}
}

func TestCreateAppointment_MissingParty(t *testing.T) {
	c, mock := setupMockClient(t)
	a := newAppointment()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO "appointments"`).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	if err := c.CreateAppointment(context.Background(), a); !IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestMarkReminderSent(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"claimed", 1, true},
		{"already sent", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := setupMockClient(t)
			mock.ExpectExec(`UPDATE "appointments" SET .*"reminder_sent"`).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := c.MarkReminderSent(context.Background(), uuid.New())
			if err != nil {
				t.Fatalf("MarkReminderSent: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppointmentOverlaps(t *testing.T) {
	base := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)
	a := &Appointment{Start: base, End: base.Add(30 * time.Minute), Status: StatusScheduled}

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical", base, base.Add(30 * time.Minute), true},
		{"adjacent before", base.Add(-30 * time.Minute), base, false},
		{"adjacent after", base.Add(30 * time.Minute), base.Add(60 * time.Minute), false},
		{"partial", base.Add(15 * time.Minute), base.Add(45 * time.Minute), true},
		{"contains", base.Add(-time.Hour), base.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.start, tt.end); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}

	a.Status = StatusCanceled
	if a.Blocks(base, base.Add(30*time.Minute)) {
		t.Error("canceled appointment must not block")
	}
}

func TestWeeklyAvailabilityValue(t *testing.T) {
	var w WeeklyAvailability
	v, err := w.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != "[]" {
		t.Errorf("nil availability = %v, want []", v)
	}

	w = WeeklyAvailability{{Day: 1, Slots: []TimeWindow{{Start: "09:00", End: "12:00"}}}}
	v, err = w.Value()
	if err != nil {
		t.Fatal(err)
	}
	var back WeeklyAvailability
	if err := back.Scan([]byte(v.(string))); err != nil {
		t.Fatal(err)
	}
	if got := back.ForDay(time.Monday); len(got) != 1 || got[0].End != "12:00" {
		t.Errorf("round trip = %+v", back)
	}
}
