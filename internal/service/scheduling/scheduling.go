package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/internal/repo"
	"github.com/Alijeyrad/physio_backend/pkg/authorize"
)

// DateLayout is the calendar-day format accepted by AvailableSlots callers.
const DateLayout = "2006-01-02"

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

// Store is the slice of the data layer the scheduler reads and writes.
type Store interface {
	GetTherapist(ctx context.Context, id uuid.UUID) (*repo.Therapist, error)
	UpdateAvailability(ctx context.Context, therapistID uuid.UUID, avail repo.WeeklyAvailability) (*repo.Therapist, error)
	ScheduledBetween(ctx context.Context, therapistID uuid.UUID, from, to time.Time) ([]*repo.Appointment, error)
}

// SlotCache holds computed slot lists for a short time.
type SlotCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SlotCacheKey names the cache entry of one therapist day.
func SlotCacheKey(therapistID uuid.UUID, day string) string {
	return "slots:" + therapistID.String() + ":" + day
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// AvailabilityEdit is a full replacement of a therapist's weekly availability.
type AvailabilityEdit struct {
	TherapistID  uuid.UUID
	Actor        authorize.Actor
	Availability repo.WeeklyAvailability
}

type Options struct {
	Granularity time.Duration
	Location    *time.Location
	CacheTTL    time.Duration
	Now         func() time.Time
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	GetAvailability(ctx context.Context, therapistID uuid.UUID) (repo.WeeklyAvailability, error)
	ReplaceAvailability(ctx context.Context, edit AvailabilityEdit) (repo.WeeklyAvailability, error)

	// AvailableSlots lists the bookable slots of one calendar day.
	AvailableSlots(ctx context.Context, therapistID uuid.UUID, day time.Time) ([]Slot, error)

	// ParseDay interprets YYYY-MM-DD in the clinic location.
	ParseDay(s string) (time.Time, error)

	Granularity() time.Duration
	Location() *time.Location
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type schedulingService struct {
	store Store
	cache SlotCache
	opts  Options
}

// New builds the scheduler. cache may be nil.
func New(store Store, cache SlotCache, opts Options) Service {
	if opts.Granularity <= 0 {
		opts.Granularity = 30 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &schedulingService{store: store, cache: cache, opts: opts}
}

func (s *schedulingService) Granularity() time.Duration { return s.opts.Granularity }

func (s *schedulingService) Location() *time.Location { return s.opts.Location }

func (s *schedulingService) ParseDay(v string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, v, s.opts.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, v)
	}
	return d, nil
}

// ---------------------------------------------------------------------------
// Availability
// ---------------------------------------------------------------------------

func (s *schedulingService) GetAvailability(ctx context.Context, therapistID uuid.UUID) (repo.WeeklyAvailability, error) {
	t, err := s.store.GetTherapist(ctx, therapistID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTherapistNotFound
		}
		return nil, fmt.Errorf("get therapist: %w", err)
	}
	if t.Availability == nil {
		return repo.WeeklyAvailability{}, nil
	}
	return t.Availability, nil
}

func (s *schedulingService) ReplaceAvailability(ctx context.Context, edit AvailabilityEdit) (repo.WeeklyAvailability, error) {
	if !edit.Actor.IsAdmin() && !(edit.Actor.IsTherapist() && edit.Actor.Is(edit.TherapistID)) {
		return nil, ErrForbidden
	}

	avail, err := ValidateAvailability(edit.Availability)
	if err != nil {
		return nil, err
	}

	t, err := s.store.UpdateAvailability(ctx, edit.TherapistID, avail)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTherapistNotFound
		}
		return nil, fmt.Errorf("update availability: %w", err)
	}

	s.invalidateWeek(ctx, edit.TherapistID)
	return t.Availability, nil
}

// invalidateWeek drops the cached days a replacement can affect most: the
// next seven. Older entries expire on their own.
func (s *schedulingService) invalidateWeek(ctx context.Context, therapistID uuid.UUID) {
	if s.cache == nil || s.opts.CacheTTL <= 0 {
		return
	}
	today := s.opts.Now().In(s.opts.Location)
	keys := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		keys = append(keys, SlotCacheKey(therapistID, today.AddDate(0, 0, i).Format(DateLayout)))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "scheduling: slot cache invalidation failed", "therapist_id", therapistID, "err", err)
	}
}

// ---------------------------------------------------------------------------
// Slots
// ---------------------------------------------------------------------------

func (s *schedulingService) AvailableSlots(ctx context.Context, therapistID uuid.UUID, day time.Time) ([]Slot, error) {
	loc := s.opts.Location
	y, m, d := day.In(loc).Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	key := SlotCacheKey(therapistID, dayStart.Format(DateLayout))

	slots, ok := s.cachedSlots(ctx, key)
	if !ok {
		t, err := s.store.GetTherapist(ctx, therapistID)
		if err != nil {
			if repo.IsNotFound(err) {
				return nil, ErrTherapistNotFound
			}
			return nil, fmt.Errorf("get therapist: %w", err)
		}

		appts, err := s.store.ScheduledBetween(ctx, therapistID, dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			return nil, fmt.Errorf("list appointments: %w", err)
		}

		slots = ComputeAvailableSlots(t.Availability, dayStart, appts, s.opts.Granularity)
		s.storeSlots(ctx, key, slots)
	}

	now := s.opts.Now().In(loc)
	ny, nm, nd := now.Date()
	if ny == y && nm == m && nd == d {
		slots = FilterPast(slots, now)
	}
	if slots == nil {
		slots = []Slot{}
	}
	return slots, nil
}

func (s *schedulingService) cachedSlots(ctx context.Context, key string) ([]Slot, bool) {
	if s.cache == nil || s.opts.CacheTTL <= 0 {
		return nil, false
	}
	var slots []Slot
	found, err := s.cache.GetJSON(ctx, key, &slots)
	if err != nil {
		slog.WarnContext(ctx, "scheduling: slot cache read failed", "key", key, "err", err)
		return nil, false
	}
	return slots, found
}

func (s *schedulingService) storeSlots(ctx context.Context, key string, slots []Slot) {
	if s.cache == nil || s.opts.CacheTTL <= 0 {
		return
	}
	if slots == nil {
		slots = []Slot{}
	}
	if err := s.cache.SetJSON(ctx, key, slots, s.opts.CacheTTL); err != nil {
		slog.WarnContext(ctx, "scheduling: slot cache write failed", "key", key, "err", err)
	}
}
