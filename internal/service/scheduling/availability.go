package scheduling

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Alijeyrad/physio_backend/internal/repo"
)

const minutesPerDay = 24 * 60

// parseClock converts "HH:MM" into minutes after midnight. "24:00" is only
// accepted when allowEndOfDay is set.
func parseClock(s string, allowEndOfDay bool) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: clock %q must be HH:MM", ErrValidation, s)
	}
	h, err1 := strconv.Atoi(s[:2])
	m, err2 := strconv.Atoi(s[3:])
	if err1 != nil || err2 != nil || h < 0 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: clock %q must be HH:MM", ErrValidation, s)
	}
	mins := h*60 + m
	switch {
	case mins < minutesPerDay:
		return mins, nil
	case mins == minutesPerDay && allowEndOfDay:
		return mins, nil
	default:
		return 0, fmt.Errorf("%w: clock %q out of range", ErrValidation, s)
	}
}

// window is a parsed TimeWindow in minutes after midnight.
type window struct {
	start, end int
}

func parseWindow(w repo.TimeWindow) (window, error) {
	s, err := parseClock(w.Start, false)
	if err != nil {
		return window{}, err
	}
	e, err := parseClock(w.End, true)
	if err != nil {
		return window{}, err
	}
	if s >= e {
		return window{}, fmt.Errorf("%w: window %s-%s must start before it ends", ErrValidation, w.Start, w.End)
	}
	return window{start: s, end: e}, nil
}

// ValidateAvailability checks a full weekly availability document and returns
// a normalized copy with days ascending and each day's windows sorted by start.
func ValidateAvailability(in repo.WeeklyAvailability) (repo.WeeklyAvailability, error) {
	seen := make(map[int]bool, len(in))
	out := make(repo.WeeklyAvailability, 0, len(in))

	for _, d := range in {
		if d.Day < 0 || d.Day > 6 {
			return nil, fmt.Errorf("%w: day %d must be in 0..6", ErrValidation, d.Day)
		}
		if seen[d.Day] {
			return nil, fmt.Errorf("%w: day %d listed more than once", ErrValidation, d.Day)
		}
		seen[d.Day] = true

		type parsed struct {
			w   window
			raw repo.TimeWindow
		}
		ws := make([]parsed, 0, len(d.Slots))
		for _, tw := range d.Slots {
			w, err := parseWindow(tw)
			if err != nil {
				return nil, fmt.Errorf("day %d: %w", d.Day, err)
			}
			ws = append(ws, parsed{w: w, raw: tw})
		}
		sort.SliceStable(ws, func(i, j int) bool {
			if ws[i].w.start != ws[j].w.start {
				return ws[i].w.start < ws[j].w.start
			}
			return ws[i].w.end < ws[j].w.end
		})

		slots := make([]repo.TimeWindow, len(ws))
		for i, p := range ws {
			slots[i] = p.raw
		}
		if len(slots) == 0 {
			continue
		}
		out = append(out, repo.DayAvailability{Day: d.Day, Slots: slots})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// dayWindows resolves the windows of date's weekday into absolute instants in
// date's location. Malformed windows are skipped; stored documents were
// validated on write.
func dayWindows(avail repo.WeeklyAvailability, date time.Time) [][2]time.Time {
	y, m, d := date.Date()
	loc := date.Location()

	var out [][2]time.Time
	for _, tw := range avail.ForDay(date.Weekday()) {
		w, err := parseWindow(tw)
		if err != nil {
			continue
		}
		start := time.Date(y, m, d, w.start/60, w.start%60, 0, 0, loc)
		end := time.Date(y, m, d, w.end/60, w.end%60, 0, 0, loc)
		out = append(out, [2]time.Time{start, end})
	}
	return out
}

// SlotOnGrid reports whether [start, end) begins on a grid point of one of
// the day's windows and lies entirely inside that window. start is
// interpreted in loc.
func SlotOnGrid(avail repo.WeeklyAvailability, start, end time.Time, step time.Duration, loc *time.Location) bool {
	if step <= 0 || !end.After(start) {
		return false
	}
	start = start.In(loc)
	for _, w := range dayWindows(avail, start) {
		if start.Before(w[0]) || end.After(w[1]) {
			continue
		}
		if start.Sub(w[0])%step == 0 {
			return true
		}
	}
	return false
}
