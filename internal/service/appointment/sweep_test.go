package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/physio_backend/internal/repo"
	"github.com/Alijeyrad/physio_backend/internal/service/notification"
)

func TestPlanMaintenance(t *testing.T) {
	now := at(12, 0)
	lead := 24 * time.Hour

	mk := func(start time.Time, mins int, status repo.AppointmentStatus, reminded bool) *repo.Appointment {
		return &repo.Appointment{
			ID:           uuid.New(),
			Start:        start,
			End:          start.Add(time.Duration(mins) * time.Minute),
			Status:       status,
			ReminderSent: reminded,
		}
	}

	tests := []struct {
		name     string
		appt     *repo.Appointment
		complete bool
		remind   bool
	}{
		{"ended five minutes ago", mk(now.Add(-35*time.Minute), 30, repo.StatusScheduled, false), true, false},
		{"ends exactly now", mk(now.Add(-30*time.Minute), 30, repo.StatusScheduled, false), false, false},
		{"in progress", mk(now.Add(-10*time.Minute), 30, repo.StatusScheduled, false), false, false},
		{"starts now", mk(now, 30, repo.StatusScheduled, false), false, false},
		{"starts in 23h", mk(now.Add(23*time.Hour), 30, repo.StatusScheduled, false), false, true},
		{"starts in exactly 24h", mk(now.Add(24*time.Hour), 30, repo.StatusScheduled, false), false, true},
		{"starts in 24h and a minute", mk(now.Add(24*time.Hour+time.Minute), 30, repo.StatusScheduled, false), false, false},
		{"already reminded", mk(now.Add(2*time.Hour), 30, repo.StatusScheduled, true), false, false},
		{"canceled in the past", mk(now.Add(-2*time.Hour), 30, repo.StatusCanceled, false), false, false},
		{"completed soon", mk(now.Add(2*time.Hour), 30, repo.StatusCompleted, false), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PlanMaintenance(now, []*repo.Appointment{tt.appt, nil}, lead)
			assert.Equal(t, tt.complete, len(p.Complete) == 1, "complete")
			assert.Equal(t, tt.remind, len(p.Remind) == 1, "remind")
		})
	}
}

func TestRunMaintenance_CompletesEnded(t *testing.T) {
	now := at(10, 35)
	f := newFixture(now)
	a := f.store.put(&repo.Appointment{TherapistID: f.therapist, PatientID: f.patient, Start: at(10, 0), End: at(10, 30)})

	res, err := f.svc.RunMaintenance(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, repo.StatusCompleted, f.store.status(a.ID))
	require.Len(t, res.Updated, 1)
	assert.Equal(t, a.ID, res.Updated[0].ID)

	notes := f.notifier.to(f.therapist)
	require.Len(t, notes, 1)
	assert.Equal(t, notification.KindDocumentSession, notes[0].Kind)
	assert.Contains(t, notes[0].Text, "Sam Patel")
	assert.Equal(t, notes, res.Notifications)
}

func TestRunMaintenance_RemindsOnce(t *testing.T) {
	now := at(8, 0)
	f := newFixture(now)
	start := now.Add(23 * time.Hour)
	a := f.store.put(&repo.Appointment{TherapistID: f.therapist, PatientID: f.patient, Start: start, End: start.Add(30 * time.Minute)})

	res, err := f.svc.RunMaintenance(context.Background(), now)
	require.NoError(t, err)

	assert.True(t, f.store.reminderSent(a.ID))
	assert.Equal(t, repo.StatusScheduled, f.store.status(a.ID))
	require.Len(t, res.Notifications, 2)
	assert.Len(t, f.notifier.to(f.patient), 1)
	assert.Len(t, f.notifier.to(f.therapist), 1)
	assert.Contains(t, f.notifier.to(f.patient)[0].Text, "Dr. Lee")

	res, err = f.svc.RunMaintenance(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, res.Notifications)
	assert.Empty(t, res.Updated)
	assert.Len(t, f.notifier.notices, 2)
}

func TestRunMaintenance_ConcurrentSweepsRemindOnce(t *testing.T) {
	now := at(8, 0)
	f := newFixture(now)
	start := now.Add(3 * time.Hour)
	f.store.put(&repo.Appointment{TherapistID: f.therapist, PatientID: f.patient, Start: start, End: start.Add(30 * time.Minute)})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RunMaintenance(context.Background(), now)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.notifier.to(f.patient), 1)
	assert.Len(t, f.notifier.to(f.therapist), 1)
}

func TestRunMaintenance_ContinuesPastFailures(t *testing.T) {
	now := at(12, 0)
	f := newFixture(now)
	broken := f.store.put(&repo.Appointment{TherapistID: f.therapist, PatientID: f.patient, Start: at(9, 0), End: at(9, 30)})
	ok := f.store.put(&repo.Appointment{TherapistID: f.therapist, PatientID: f.patient, Start: at(10, 0), End: at(10, 30)})
	f.store.failOn[broken.ID] = errors.New("connection reset")

	res, err := f.svc.RunMaintenance(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, repo.StatusScheduled, f.store.status(broken.ID))
	assert.Equal(t, repo.StatusCompleted, f.store.status(ok.ID))
	require.Len(t, res.Updated, 1)
	assert.Equal(t, ok.ID, res.Updated[0].ID)
}

func TestRunMaintenance_NotifierFailureKeepsTransition(t *testing.T) {
	now := at(12, 0)
	f := newFixture(now)
	f.notifier.failFor = map[uuid.UUID]bool{f.therapist: true}
	a := f.store.put(&repo.Appointment{TherapistID: f.therapist, PatientID: f.patient, Start: at(9, 0), End: at(9, 30)})

	res, err := f.svc.RunMaintenance(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, repo.StatusCompleted, f.store.status(a.ID))
	assert.Len(t, res.Updated, 1)
	assert.Empty(t, res.Notifications)
}

func TestRunMaintenance_SkipsTerminal(t *testing.T) {
	now := at(12, 0)
	f := newFixture(now)
	a := f.store.put(&repo.Appointment{
		TherapistID: f.therapist, PatientID: f.patient, Start: at(9, 0), End: at(9, 30), Status: repo.StatusCanceled,
	})

	res, err := f.svc.RunMaintenance(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, res.Updated)
	assert.Equal(t, repo.StatusCanceled, f.store.status(a.ID))
}
