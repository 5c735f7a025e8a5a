package tools

import (
	"testing"
	"time"

	"github.com/dentaldesk/voicedesk/pkg/backend"
)

func day(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC) // a Monday
}

func TestComputeSlotsNoBookings(t *testing.T) {
	slots := ComputeSlots(day(9, 0), day(10, 0), 30, nil)
	// 9:00, 9:15, 9:30 all fit a 30-minute slot before 10:00.
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d: %+v", len(slots), slots)
	}
	if slots[0].Time != "9:00 AM" || slots[2].Time != "9:30 AM" {
		t.Fatalf("unexpected slot times %+v", slots)
	}
}

func TestComputeSlotsHalfOpenOverlap(t *testing.T) {
	booked := []backend.Appointment{{Start: day(9, 30), End: day(10, 0)}}
	slots := ComputeSlots(day(9, 0), day(10, 30), 30, booked)

	times := map[string]bool{}
	for _, s := range slots {
		times[s.Time] = true
	}
	// 9:00 ends exactly when the booking starts: allowed.
	if !times["9:00 AM"] {
		t.Fatalf("back-to-back slot before booking should be open: %+v", slots)
	}
	// 10:00 starts exactly when the booking ends: allowed.
	if !times["10:00 AM"] {
		t.Fatalf("back-to-back slot after booking should be open: %+v", slots)
	}
	// Anything overlapping 9:30-10:00 is blocked.
	for _, blocked := range []string{"9:15 AM", "9:30 AM", "9:45 AM"} {
		if times[blocked] {
			t.Fatalf("slot %s overlaps booking: %+v", blocked, slots)
		}
	}
}

func TestComputeSlotsSlotMustFitBeforeClose(t *testing.T) {
	slots := ComputeSlots(day(16, 45), day(17, 0), 30, nil)
	if len(slots) != 0 {
		t.Fatalf("no 30-minute slot fits in 15 minutes: %+v", slots)
	}
}

func TestWorkingWindow(t *testing.T) {
	p := &backend.Provider{WorkingHours: map[string]backend.DayHours{
		"monday": {Start: "08:00", End: "17:00"},
	}}
	start, end, ok := WorkingWindow(p, day(0, 0))
	if !ok {
		t.Fatalf("expected monday window")
	}
	if start.Hour() != 8 || end.Hour() != 17 {
		t.Fatalf("unexpected window %v-%v", start, end)
	}

	// Tuesday has no entry.
	_, _, ok = WorkingWindow(p, day(0, 0).AddDate(0, 0, 1))
	if ok {
		t.Fatalf("expected no window for unconfigured day")
	}

	if _, _, ok = WorkingWindow(nil, day(0, 0)); ok {
		t.Fatalf("nil provider has no window")
	}
}

func TestCombineDateTime(t *testing.T) {
	base := day(0, 0)
	cases := map[string]int{
		"morning":   9,
		"afternoon": 13,
		"2:30 PM":   14,
		"15:00":     15,
		"9 AM":      9,
	}
	for in, wantHour := range cases {
		got := CombineDateTime(base, in)
		if got.Hour() != wantHour {
			t.Fatalf("%q: got hour %d, want %d", in, got.Hour(), wantHour)
		}
	}
	if got := CombineDateTime(base, "whenever"); got.Hour() != 0 {
		t.Fatalf("unparseable time should stay midnight, got %v", got)
	}
}

func TestMatchSlot(t *testing.T) {
	slots := []Slot{
		{Time: "9:00 AM"}, {Time: "2:00 PM"}, {Time: "2:30 PM"},
	}
	if got := MatchSlot(slots, "2:30"); got.Time != "2:30 PM" {
		t.Fatalf("expected 2:30 PM, got %s", got.Time)
	}
	if got := MatchSlot(slots, "6:00 PM"); got.Time != "9:00 AM" {
		t.Fatalf("no match should fall back to first slot, got %s", got.Time)
	}
}
