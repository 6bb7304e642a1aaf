package scheduling

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/internal/repo"
)

const step = 30 * time.Minute

// 2030-01-07 is a Monday.
var monday = time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)

func mondayMorning() repo.WeeklyAvailability {
	return repo.WeeklyAvailability{
		{Day: int(time.Monday), Slots: []repo.TimeWindow{{Start: "09:00", End: "12:00"}}},
	}
}

func at(hour, min int) time.Time {
	return time.Date(2030, 1, 7, hour, min, 0, 0, time.UTC)
}

func appt(start, end time.Time, status repo.AppointmentStatus) *repo.Appointment {
	return &repo.Appointment{ID: uuid.New(), Start: start, End: end, Status: status}
}

func starts(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Start.Format("15:04")
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestComputeAvailableSlots(t *testing.T) {
	tests := []struct {
		name  string
		avail repo.WeeklyAvailability
		date  time.Time
		appts []*repo.Appointment
		want  []string
	}{
		{
			name:  "free morning yields six slots",
			avail: mondayMorning(),
			date:  monday,
			want:  []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"},
		},
		{
			name:  "booked 10:00 is excluded",
			avail: mondayMorning(),
			date:  monday,
			appts: []*repo.Appointment{appt(at(10, 0), at(10, 30), repo.StatusScheduled)},
			want:  []string{"09:00", "09:30", "10:30", "11:00", "11:30"},
		},
		{
			name:  "canceled and completed appointments do not block",
			avail: mondayMorning(),
			date:  monday,
			appts: []*repo.Appointment{
				appt(at(9, 0), at(9, 30), repo.StatusCanceled),
				appt(at(9, 30), at(10, 0), repo.StatusCompleted),
			},
			want: []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"},
		},
		{
			name:  "appointment straddling two slots blocks both",
			avail: mondayMorning(),
			date:  monday,
			appts: []*repo.Appointment{appt(at(10, 15), at(10, 45), repo.StatusScheduled)},
			want:  []string{"09:00", "09:30", "11:00", "11:30"},
		},
		{
			name:  "no entry for the weekday",
			avail: mondayMorning(),
			date:  monday.AddDate(0, 0, 1),
			want:  []string{},
		},
		{
			name: "window shorter than a slot yields nothing",
			avail: repo.WeeklyAvailability{
				{Day: 1, Slots: []repo.TimeWindow{{Start: "09:00", End: "09:20"}}},
			},
			date: monday,
			want: []string{},
		},
		{
			name: "trailing remainder is not emitted",
			avail: repo.WeeklyAvailability{
				{Day: 1, Slots: []repo.TimeWindow{{Start: "09:00", End: "10:10"}}},
			},
			date: monday,
			want: []string{"09:00", "09:30"},
		},
		{
			name: "unsorted windows come back in order",
			avail: repo.WeeklyAvailability{
				{Day: 1, Slots: []repo.TimeWindow{{Start: "14:00", End: "15:00"}, {Start: "09:00", End: "10:00"}}},
			},
			date: monday,
			want: []string{"09:00", "09:30", "14:00", "14:30"},
		},
		{
			name: "overlapping windows are de-duplicated",
			avail: repo.WeeklyAvailability{
				{Day: 1, Slots: []repo.TimeWindow{{Start: "09:00", End: "10:30"}, {Start: "10:00", End: "11:00"}}},
			},
			date: monday,
			want: []string{"09:00", "09:30", "10:00", "10:30"},
		},
		{
			name: "end of day window",
			avail: repo.WeeklyAvailability{
				{Day: 1, Slots: []repo.TimeWindow{{Start: "23:00", End: "24:00"}}},
			},
			date: monday,
			want: []string{"23:00", "23:30"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAvailableSlots(tt.avail, tt.date, tt.appts, step)
			if !equalStrings(starts(got), tt.want) {
				t.Errorf("slots = %v, want %v", starts(got), tt.want)
			}
		})
	}
}

func TestComputeAvailableSlotsProperties(t *testing.T) {
	avail := repo.WeeklyAvailability{
		{Day: 1, Slots: []repo.TimeWindow{{Start: "08:00", End: "12:00"}, {Start: "13:00", End: "17:30"}}},
	}
	appts := []*repo.Appointment{
		appt(at(8, 30), at(9, 30), repo.StatusScheduled),
		appt(at(11, 45), at(13, 15), repo.StatusScheduled),
		appt(at(16, 0), at(16, 30), repo.StatusCanceled),
	}

	slots := ComputeAvailableSlots(avail, monday, appts, step)
	if len(slots) == 0 {
		t.Fatal("expected some slots")
	}

	windows := dayWindows(avail, monday)
	for _, s := range slots {
		inside := false
		for _, w := range windows {
			if !s.Start.Before(w[0]) && !s.End.After(w[1]) {
				inside = true
			}
		}
		if !inside {
			t.Errorf("slot %v-%v outside every window", s.Start, s.End)
		}
		for _, a := range appts {
			if a.Blocks(s.Start, s.End) {
				t.Errorf("slot %v-%v overlaps scheduled appointment %v-%v", s.Start, s.End, a.Start, a.End)
			}
		}
		if s.End.Sub(s.Start) != step {
			t.Errorf("slot length = %v", s.End.Sub(s.Start))
		}
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i-1].Start.Before(slots[i].Start) {
			t.Errorf("slots not strictly ordered at %d", i)
		}
	}
}

func TestComputeAvailableSlotsInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	date := time.Date(2030, 1, 7, 0, 0, 0, 0, loc)

	slots := ComputeAvailableSlots(mondayMorning(), date, nil, step)
	if len(slots) != 6 {
		t.Fatalf("len = %d, want 6", len(slots))
	}
	if want := time.Date(2030, 1, 7, 6, 0, 0, 0, time.UTC); !slots[0].Start.Equal(want) {
		t.Errorf("first slot = %v, want %v", slots[0].Start.UTC(), want)
	}
}

func TestFilterPast(t *testing.T) {
	slots := ComputeAvailableSlots(mondayMorning(), monday, nil, step)
	got := FilterPast(slots, at(10, 10))
	if want := []string{"10:30", "11:00", "11:30"}; !equalStrings(starts(got), want) {
		t.Errorf("FilterPast = %v, want %v", starts(got), want)
	}
	if got := FilterPast(slots, at(10, 0)); len(got) != 4 {
		t.Errorf("slot starting exactly now must be kept, got %v", starts(got))
	}
}

func TestSlotOnGrid(t *testing.T) {
	avail := mondayMorning()
	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"first slot", at(9, 0), at(9, 30), true},
		{"last slot", at(11, 30), at(12, 0), true},
		{"hour long", at(10, 0), at(11, 0), true},
		{"off grid", at(9, 15), at(9, 45), false},
		{"runs past window", at(11, 30), at(12, 30), false},
		{"before window", at(8, 30), at(9, 0), false},
		{"other day", at(9, 0).AddDate(0, 0, 1), at(9, 30).AddDate(0, 0, 1), false},
		{"empty interval", at(9, 0), at(9, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlotOnGrid(avail, tt.start, tt.end, step, time.UTC); got != tt.want {
				t.Errorf("SlotOnGrid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlotJSON(t *testing.T) {
	s := Slot{Start: at(9, 0), End: at(9, 30)}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"start":1894006800000,"end":1894008600000}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}

	var back Slot
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Start.Equal(s.Start) || !back.End.Equal(s.End) {
		t.Errorf("decoded = %+v", back)
	}
}
