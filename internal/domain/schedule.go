package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/pkg/types"
)

// DaySchedule represents the working hours of a provider for one weekday
type DaySchedule struct {
	Enabled bool
	Start   types.TimeString
	End     types.TimeString
}

// WeeklyTemplate represents the recurring weekly availability of a provider.
// Days missing from the map are treated as disabled.
type WeeklyTemplate struct {
	ProviderID int64
	Timezone   string
	Days       map[time.Weekday]DaySchedule
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DefaultWeeklyTemplate returns the template used when a provider has not configured one:
// Monday to Friday 09:00-17:00, weekend disabled
func DefaultWeeklyTemplate(providerID int64, timezone string) *WeeklyTemplate {
	if timezone == "" {
		timezone = DefaultTimezone
	}

	days := make(map[time.Weekday]DaySchedule, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		day := DaySchedule{Start: "09:00", End: "17:00"}
		day.Enabled = wd != time.Saturday && wd != time.Sunday
		days[wd] = day
	}

	return &WeeklyTemplate{
		ProviderID: providerID,
		Timezone:   timezone,
		Days:       days,
	}
}

// Day returns the schedule for the weekday
func (t *WeeklyTemplate) Day(wd time.Weekday) DaySchedule {
	if t == nil || t.Days == nil {
		return DaySchedule{}
	}
	return t.Days[wd]
}

// Location returns the provider timezone, UTC if it cannot be loaded
func (t *WeeklyTemplate) Location() *time.Location {
	if t == nil || t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the template invariants: known timezone and start < end for every enabled day
func (t *WeeklyTemplate) Validate() error {
	if t.ProviderID <= 0 {
		return NewValidationError("provider_id", CodeInvalidValue, "provider id must be positive")
	}
	if t.Timezone == "" {
		return NewValidationError("timezone", CodeRequired, "timezone is required")
	}
	if _, err := time.LoadLocation(t.Timezone); err != nil {
		return NewValidationError("timezone", CodeInvalidValue, fmt.Sprintf("unknown timezone %q", t.Timezone))
	}

	for wd, day := range t.Days {
		if wd < time.Sunday || wd > time.Saturday {
			return NewValidationError("days", CodeInvalidValue, fmt.Sprintf("unknown weekday %d", wd))
		}
		if !day.Enabled {
			continue
		}

		field := "days." + WeekdayName(wd)
		if err := day.Start.Validate(); err != nil {
			return NewValidationError(field+".start", CodeInvalidValue, err.Error())
		}
		if err := day.End.Validate(); err != nil {
			return NewValidationError(field+".end", CodeInvalidValue, err.Error())
		}
		if !day.Start.IsBefore(day.End) {
			return NewInvalidRangeError(field, "start must be before end")
		}
	}

	return nil
}

// WeekdayName returns the lowercase english weekday name
func WeekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String())
}

// ParseWeekday parses a lowercase english weekday name
func ParseWeekday(name string) (time.Weekday, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(wd.String(), name) {
			return wd, true
		}
	}
	return 0, false
}
