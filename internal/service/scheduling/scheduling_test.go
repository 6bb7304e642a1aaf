package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/physio_backend/internal/repo"
	"github.com/Alijeyrad/physio_backend/pkg/authorize"
)

type fakeStore struct {
	therapists map[uuid.UUID]*repo.Therapist
	appts      []*repo.Appointment
	listCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{therapists: map[uuid.UUID]*repo.Therapist{}}
}

func (f *fakeStore) GetTherapist(_ context.Context, id uuid.UUID) (*repo.Therapist, error) {
	t, ok := f.therapists[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) UpdateAvailability(_ context.Context, id uuid.UUID, avail repo.WeeklyAvailability) (*repo.Therapist, error) {
	t, ok := f.therapists[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	t.Availability = avail
	return t, nil
}

func (f *fakeStore) ScheduledBetween(_ context.Context, id uuid.UUID, from, to time.Time) ([]*repo.Appointment, error) {
	f.listCalls++
	var out []*repo.Appointment
	for _, a := range f.appts {
		if a.TherapistID == id && a.Blocks(from, to) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memCache struct {
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m *memCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func newTestService(store *fakeStore, cache SlotCache, now time.Time) Service {
	return New(store, cache, Options{
		Granularity: 30 * time.Minute,
		Location:    time.UTC,
		CacheTTL:    time.Minute,
		Now:         func() time.Time { return now },
	})
}

func seedTherapist(store *fakeStore) uuid.UUID {
	id := uuid.New()
	store.therapists[id] = &repo.Therapist{ID: id, Name: "Dr. Test", Availability: mondayMorning()}
	return id
}

func TestAvailableSlots_Scenarios(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	tid := seedTherapist(store)
	svc := newTestService(store, nil, monday.AddDate(0, 0, -7))

	slots, err := svc.AvailableSlots(ctx, tid, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}, starts(slots))

	store.appts = append(store.appts, &repo.Appointment{
		ID: uuid.New(), TherapistID: tid, Start: at(10, 0), End: at(10, 30), Status: repo.StatusScheduled,
	})

	slots, err = svc.AvailableSlots(ctx, tid, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:30", "11:00", "11:30"}, starts(slots))
}

func TestAvailableSlots_TodayFiltersPast(t *testing.T) {
	store := newFakeStore()
	tid := seedTherapist(store)
	svc := newTestService(store, nil, at(10, 5))

	slots, err := svc.AvailableSlots(context.Background(), tid, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:30", "11:00", "11:30"}, starts(slots))
}

func TestAvailableSlots_UnknownTherapist(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, monday)
	_, err := svc.AvailableSlots(context.Background(), uuid.New(), monday)
	assert.ErrorIs(t, err, ErrTherapistNotFound)
}

func TestAvailableSlots_EmptyDayIsNotNil(t *testing.T) {
	store := newFakeStore()
	tid := seedTherapist(store)
	svc := newTestService(store, nil, monday.AddDate(0, 0, -7))

	slots, err := svc.AvailableSlots(context.Background(), tid, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestAvailableSlots_UsesCache(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	tid := seedTherapist(store)
	cache := newMemCache()
	svc := newTestService(store, cache, monday.AddDate(0, 0, -7))

	first, err := svc.AvailableSlots(ctx, tid, monday)
	require.NoError(t, err)
	second, err := svc.AvailableSlots(ctx, tid, monday)
	require.NoError(t, err)

	assert.Equal(t, 1, store.listCalls)
	assert.Equal(t, starts(first), starts(second))
	assert.Contains(t, cache.data, SlotCacheKey(tid, "2030-01-07"))
}

func TestReplaceAvailability(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	tid := seedTherapist(store)
	cache := newMemCache()
	svc := newTestService(store, cache, monday)

	next := repo.WeeklyAvailability{
		{Day: 3, Slots: []repo.TimeWindow{{Start: "14:00", End: "16:00"}, {Start: "08:00", End: "09:00"}}},
		{Day: 1, Slots: []repo.TimeWindow{{Start: "09:00", End: "10:00"}}},
	}

	t.Run("owner replaces and result is normalized", func(t *testing.T) {
		got, err := svc.ReplaceAvailability(ctx, AvailabilityEdit{
			TherapistID:  tid,
			Actor:        authorize.Actor{ID: tid, Role: authorize.RoleTherapist},
			Availability: next,
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 1, got[0].Day)
		assert.Equal(t, "08:00", got[1].Slots[0].Start)
		assert.Contains(t, cache.deleted, SlotCacheKey(tid, "2030-01-07"))
	})

	t.Run("admin may replace", func(t *testing.T) {
		_, err := svc.ReplaceAvailability(ctx, AvailabilityEdit{
			TherapistID:  tid,
			Actor:        authorize.Actor{ID: uuid.New(), Role: authorize.RoleAdmin},
			Availability: next,
		})
		require.NoError(t, err)
	})

	t.Run("other therapist is forbidden", func(t *testing.T) {
		_, err := svc.ReplaceAvailability(ctx, AvailabilityEdit{
			TherapistID:  tid,
			Actor:        authorize.Actor{ID: uuid.New(), Role: authorize.RoleTherapist},
			Availability: next,
		})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("patient is forbidden", func(t *testing.T) {
		_, err := svc.ReplaceAvailability(ctx, AvailabilityEdit{
			TherapistID:  tid,
			Actor:        authorize.Actor{ID: tid, Role: authorize.RolePatient},
			Availability: next,
		})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("invalid window is a validation error", func(t *testing.T) {
		_, err := svc.ReplaceAvailability(ctx, AvailabilityEdit{
			TherapistID: tid,
			Actor:       authorize.Actor{Role: authorize.RoleAdmin},
			Availability: repo.WeeklyAvailability{
				{Day: 1, Slots: []repo.TimeWindow{{Start: "12:00", End: "09:00"}}},
			},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown therapist", func(t *testing.T) {
		_, err := svc.ReplaceAvailability(ctx, AvailabilityEdit{
			TherapistID:  uuid.New(),
			Actor:        authorize.Actor{Role: authorize.RoleAdmin},
			Availability: next,
		})
		assert.ErrorIs(t, err, ErrTherapistNotFound)
	})
}

func TestValidateAvailability(t *testing.T) {
	window := func(s, e string) []repo.TimeWindow { return []repo.TimeWindow{{Start: s, End: e}} }

	tests := []struct {
		name    string
		in      repo.WeeklyAvailability
		wantErr bool
	}{
		{"valid", repo.WeeklyAvailability{{Day: 0, Slots: window("09:00", "17:00")}}, false},
		{"end of day", repo.WeeklyAvailability{{Day: 6, Slots: window("20:00", "24:00")}}, false},
		{"empty document", repo.WeeklyAvailability{}, false},
		{"day below range", repo.WeeklyAvailability{{Day: -1, Slots: window("09:00", "10:00")}}, true},
		{"day above range", repo.WeeklyAvailability{{Day: 7, Slots: window("09:00", "10:00")}}, true},
		{"start equals end", repo.WeeklyAvailability{{Day: 1, Slots: window("09:00", "09:00")}}, true},
		{"start after end", repo.WeeklyAvailability{{Day: 1, Slots: window("10:00", "09:00")}}, true},
		{"malformed clock", repo.WeeklyAvailability{{Day: 1, Slots: window("9:00", "10:00")}}, true},
		{"minutes out of range", repo.WeeklyAvailability{{Day: 1, Slots: window("09:75", "10:00")}}, true},
		{"24:00 as start", repo.WeeklyAvailability{{Day: 1, Slots: window("24:00", "24:00")}}, true},
		{"past midnight", repo.WeeklyAvailability{{Day: 1, Slots: window("09:00", "24:30")}}, true},
		{"duplicate day", repo.WeeklyAvailability{
			{Day: 1, Slots: window("09:00", "10:00")},
			{Day: 1, Slots: window("11:00", "12:00")},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAvailability(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrValidation), "err = %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseDay(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, monday)

	d, err := svc.ParseDay("2030-01-07")
	require.NoError(t, err)
	assert.True(t, d.Equal(monday))

	_, err = svc.ParseDay("07/01/2030")
	assert.ErrorIs(t, err, ErrValidation)
}
