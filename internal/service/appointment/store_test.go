package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/internal/repo"
	"github.com/Alijeyrad/physio_backend/internal/service/notification"
)

// memStore mimics the transactional guarantees of repo.Client: overlap check
// and insert are atomic, transitions are compare-and-swap on status.
type memStore struct {
	mu         sync.Mutex
	therapists map[uuid.UUID]*repo.Therapist
	patients   map[uuid.UUID]*repo.Patient
	appts      map[uuid.UUID]*repo.Appointment
	failOn     map[uuid.UUID]error
}

func newMemStore() *memStore {
	return &memStore{
		therapists: map[uuid.UUID]*repo.Therapist{},
		patients:   map[uuid.UUID]*repo.Patient{},
		appts:      map[uuid.UUID]*repo.Appointment{},
		failOn:     map[uuid.UUID]error{},
	}
}

func clone(a *repo.Appointment) *repo.Appointment {
	c := *a
	return &c
}

func (m *memStore) GetTherapist(_ context.Context, id uuid.UUID) (*repo.Therapist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.therapists[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return t, nil
}

func (m *memStore) GetPatient(_ context.Context, id uuid.UUID) (*repo.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return p, nil
}

func (m *memStore) CreateAppointment(_ context.Context, a *repo.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.appts {
		if cur.TherapistID == a.TherapistID && cur.Blocks(a.Start, a.End) {
			return repo.ErrOverlap
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appts[a.ID] = clone(a)
	return nil
}

func (m *memStore) GetAppointment(_ context.Context, id uuid.UUID) (*repo.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return clone(a), nil
}

func (m *memStore) ListAppointments(_ context.Context, f repo.AppointmentFilter) ([]*repo.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*repo.Appointment
	for _, a := range m.appts {
		if f.TherapistID != nil && a.TherapistID != *f.TherapistID {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *memStore) TransitionAppointment(_ context.Context, id uuid.UUID, to repo.AppointmentStatus, by *uuid.UUID, at time.Time) (*repo.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[id]; err != nil {
		return nil, err
	}
	a, ok := m.appts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if a.Status != repo.StatusScheduled {
		return clone(a), repo.ErrStatusChanged
	}
	a.Status = to
	a.UpdatedAt = at
	switch to {
	case repo.StatusCanceled:
		a.CanceledAt = &at
		a.CanceledBy = by
	case repo.StatusCompleted:
		a.CompletedAt = &at
	}
	return clone(a), nil
}

func (m *memStore) MarkReminderSent(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[id]; err != nil {
		return false, err
	}
	a, ok := m.appts[id]
	if !ok || a.ReminderSent || a.Status != repo.StatusScheduled {
		return false, nil
	}
	a.ReminderSent = true
	return true, nil
}

func (m *memStore) UpdateAppointmentNotes(_ context.Context, id uuid.UUID, notes *string) (*repo.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	a.Notes = notes
	return clone(a), nil
}

// ListMaintenanceCandidates hands every scheduled row to the planner.
func (m *memStore) ListMaintenanceCandidates(_ context.Context, _ time.Time, _ time.Duration, _ int) ([]*repo.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*repo.Appointment
	for _, a := range m.appts {
		if a.Status == repo.StatusScheduled {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *memStore) put(a *repo.Appointment) *repo.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = repo.StatusScheduled
	}
	m.appts[a.ID] = clone(a)
	return a
}

func (m *memStore) status(id uuid.UUID) repo.AppointmentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appts[id].Status
}

func (m *memStore) reminderSent(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appts[id].ReminderSent
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notification.Notice
	failFor map[uuid.UUID]bool
}

func (f *fakeNotifier) Notify(_ context.Context, n notification.Notice) (*repo.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[n.UserID] {
		return nil, context.DeadlineExceeded
	}
	f.notices = append(f.notices, n)
	return &repo.Notification{ID: uuid.New(), UserID: n.UserID, Type: n.Kind}, nil
}

func (f *fakeNotifier) to(userID uuid.UUID) []notification.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notification.Notice
	for _, n := range f.notices {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *fakePublisher) Publish(_ context.Context, subject string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}
