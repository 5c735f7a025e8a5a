package tools

import (
	"strings"
	"time"

	"github.com/dentaldesk/voicedesk/pkg/backend"
)

// DefaultSlotDuration is the appointment length offered to callers.
const DefaultSlotDuration = 30

// slotStep is the enumeration granularity for open slots.
const slotStep = 15 * time.Minute

type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Duration  int    `json:"duration"`
}

// WorkingWindow resolves a provider's hours on the given date. Returns
// false when the provider has no hours configured for that weekday.
func WorkingWindow(p *backend.Provider, date time.Time) (start, end time.Time, ok bool) {
	if p == nil || p.WorkingHours == nil {
		return time.Time{}, time.Time{}, false
	}
	day := strings.ToLower(date.Weekday().String())
	entry, found := p.WorkingHours[day]
	if !found || entry.Start == "" || entry.End == "" {
		return time.Time{}, time.Time{}, false
	}
	start = CombineDateTime(date, entry.Start)
	end = CombineDateTime(date, entry.End)
	if !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// ComputeSlots enumerates open slots between start and end, stepping
// every 15 minutes. A slot conflicts with an appointment when the
// half-open intervals overlap: slot.start < appt.end && slot.end >
// appt.start, so back-to-back bookings are allowed.
func ComputeSlots(start, end time.Time, durationMinutes int, booked []backend.Appointment) []Slot {
	if durationMinutes <= 0 {
		durationMinutes = DefaultSlotDuration
	}
	duration := time.Duration(durationMinutes) * time.Minute

	var slots []Slot
	for slotStart := start; !slotStart.Add(duration).After(end); slotStart = slotStart.Add(slotStep) {
		slotEnd := slotStart.Add(duration)
		conflict := false
		for _, appt := range booked {
			if slotStart.Before(appt.End) && slotEnd.After(appt.Start) {
				conflict = true
				break
			}
		}
		if !conflict {
			slots = append(slots, Slot{
				Time:      formatSlotTime(slotStart),
				Available: true,
				Duration:  durationMinutes,
			})
		}
	}
	return slots
}

// MatchSlot picks the slot whose display time contains the caller's
// preference, falling back to the first slot.
func MatchSlot(slots []Slot, preferred string) Slot {
	if len(slots) == 0 {
		return Slot{}
	}
	p := strings.ToLower(preferred)
	for _, s := range slots {
		if strings.Contains(strings.ToLower(s.Time), p) {
			return s
		}
	}
	return slots[0]
}

// CombineDateTime anchors a spoken time onto a date. "morning" and
// "afternoon" map to 9 AM and 1 PM; clock shapes accepted are
// "3:04 PM", "3 PM", and "15:04". Unparseable times return midnight.
func CombineDateTime(date time.Time, timeStr string) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	clean := strings.ToLower(strings.TrimSpace(timeStr))
	if clean == "" {
		return day
	}
	switch clean {
	case "morning", "am":
		return day.Add(9 * time.Hour)
	case "afternoon", "pm":
		return day.Add(13 * time.Hour)
	}
	for _, layout := range []string{"3:04 PM", "3 PM", "15:04"} {
		if t, err := time.Parse(layout, strings.ToUpper(timeStr)); err == nil {
			return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
		}
	}
	return day
}

func formatSlotTime(t time.Time) string {
	return strings.TrimPrefix(t.Format("3:04 PM"), "0")
}
