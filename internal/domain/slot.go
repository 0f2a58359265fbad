package domain

import (
	"time"
)

// Slot represents a fixed-duration candidate window derived from a weekly template
type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// DaySlots is the result of slot generation for one provider and one date
type DaySlots struct {
	ProviderID  int64  `json:"provider_id"`
	Date        string `json:"date"`
	Timezone    string `json:"timezone"`
	SlotMinutes int    `json:"slot_minutes"`

	// ProviderUnavailable is set when the weekday is disabled in the template
	ProviderUnavailable bool   `json:"provider_unavailable"`
	Slots               []Slot `json:"slots"`
}

// SlotAt returns the slot starting exactly at instant
func (d *DaySlots) SlotAt(instant time.Time) (Slot, bool) {
	for _, s := range d.Slots {
		if s.Start.Equal(instant) {
			return s, true
		}
	}
	return Slot{}, false
}

// AvailableCount returns the number of open slots
func (d *DaySlots) AvailableCount() int {
	n := 0
	for _, s := range d.Slots {
		if s.Available {
			n++
		}
	}
	return n
}

// GenerateSlots expands the weekly template for date into consecutive slots of slotMinutes.
// date is interpreted as a calendar date in the template timezone; only its year, month and day are used.
// A slot is unavailable if an occupying reservation starts within [slot.Start, slot.End).
func GenerateSlots(tpl *WeeklyTemplate, date time.Time, reservations []*Reservation, slotMinutes int, now time.Time) (*DaySlots, error) {
	if tpl == nil {
		return nil, NewValidationError("template", CodeRequired, "weekly template is required")
	}
	if slotMinutes <= 0 {
		return nil, NewValidationError("slot_minutes", CodeInvalidValue, "slot duration must be positive")
	}

	loc := tpl.Location()
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	ny, nm, nd := now.In(loc).Date()
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, loc)
	if day.Before(today) {
		return nil, NewInvalidRangeError("date", "date is in the past")
	}

	result := &DaySlots{
		ProviderID:  tpl.ProviderID,
		Date:        day.Format(DateFormat),
		Timezone:    loc.String(),
		SlotMinutes: slotMinutes,
		Slots:       []Slot{},
	}

	schedule := tpl.Day(day.Weekday())
	if !schedule.Enabled {
		result.ProviderUnavailable = true
		return result, nil
	}

	length := time.Duration(slotMinutes) * time.Minute
	start := schedule.Start.On(day, loc)
	end := schedule.End.On(day, loc)

	for cur := start; !cur.Add(length).After(end); cur = cur.Add(length) {
		slot := Slot{
			Start:     cur,
			End:       cur.Add(length),
			Available: true,
		}
		for _, r := range reservations {
			if !r.IsOccupying() {
				continue
			}
			if !r.ScheduledAt.Before(slot.Start) && r.ScheduledAt.Before(slot.End) {
				slot.Available = false
				break
			}
		}
		result.Slots = append(result.Slots, slot)
	}

	return result, nil
}

// DayBounds returns [00:00, next day 00:00) of the calendar date in loc
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

// ResolveSlot checks that instant is in the future and is the start of a slot in the template.
// Occupancy is not checked here; callers re-verify it under the slot lock.
func ResolveSlot(tpl *WeeklyTemplate, instant time.Time, slotMinutes int, now time.Time) (Slot, error) {
	if !instant.After(now) {
		return Slot{}, NewWindowError(WindowNotInFuture, "appointment time must be in the future", nil)
	}

	local := instant.In(tpl.Location())
	day, err := GenerateSlots(tpl, local, nil, slotMinutes, now)
	if err != nil {
		return Slot{}, err
	}
	if day.ProviderUnavailable {
		return Slot{}, NewValidationError("scheduled_at", CodeProviderUnavailable, "provider does not work on this day")
	}

	slot, ok := day.SlotAt(instant)
	if !ok {
		return Slot{}, NewValidationError("scheduled_at", CodeNotASlot, "time does not match any slot of the provider schedule")
	}

	return slot, nil
}
