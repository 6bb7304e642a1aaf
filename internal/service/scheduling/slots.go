package scheduling

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/Alijeyrad/physio_backend/internal/repo"
)

// Slot is a free, bookable interval [Start, End). It is derived, never stored.
type Slot struct {
	Start time.Time
	End   time.Time
}

type slotJSON struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// MarshalJSON encodes the bounds as epoch milliseconds.
func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(slotJSON{Start: s.Start.UnixMilli(), End: s.End.UnixMilli()})
}

func (s *Slot) UnmarshalJSON(b []byte) error {
	var v slotJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s.Start = time.UnixMilli(v.Start).UTC()
	s.End = time.UnixMilli(v.End).UTC()
	return nil
}

// ComputeAvailableSlots intersects the weekday windows of date with the
// therapist's appointments. Windows are walked in step increments from their
// start, emitting [t, t+step) while t+step <= end. Candidates overlapping a
// scheduled appointment are dropped. The result is sorted and free of
// duplicates. date's location defines the clinic day.
func ComputeAvailableSlots(avail repo.WeeklyAvailability, date time.Time, appts []*repo.Appointment, step time.Duration) []Slot {
	if step <= 0 {
		return nil
	}

	var out []Slot
	for _, w := range dayWindows(avail, date) {
		for t := w[0]; !t.Add(step).After(w[1]); t = t.Add(step) {
			s := Slot{Start: t, End: t.Add(step)}
			if blocked(s, appts) {
				continue
			}
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })

	// overlapping windows produce identical candidates
	dedup := out[:0]
	for _, s := range out {
		if n := len(dedup); n > 0 && s.Start.Equal(dedup[n-1].Start) {
			continue
		}
		dedup = append(dedup, s)
	}
	return dedup
}

func blocked(s Slot, appts []*repo.Appointment) bool {
	for _, a := range appts {
		if a != nil && a.Blocks(s.Start, s.End) {
			return true
		}
	}
	return false
}

// FilterPast drops slots starting before now.
func FilterPast(slots []Slot, now time.Time) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Start.Before(now) {
			continue
		}
		out = append(out, s)
	}
	return out
}
