package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/Sahatak-SchedulingService/pkg/ptr"
)

// 2030-01-07 is a Monday
var (
	monday  = time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	nowTime = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
)

func mondayTemplate(tz string) *WeeklyTemplate {
	return &WeeklyTemplate{
		ProviderID: 7,
		Timezone:   tz,
		Days: map[time.Weekday]DaySchedule{
			time.Monday: {Enabled: true, Start: "09:00", End: "10:00"},
		},
	}
}

func TestGenerateSlots_MondayMorning(t *testing.T) {
	slots, err := GenerateSlots(mondayTemplate("UTC"), monday, nil, 30, nowTime)
	require.NoError(t, err)

	assert.False(t, slots.ProviderUnavailable)
	require.Len(t, slots.Slots, 2)

	assert.Equal(t, time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC), slots.Slots[0].Start.UTC())
	assert.Equal(t, time.Date(2030, 1, 7, 9, 30, 0, 0, time.UTC), slots.Slots[0].End.UTC())
	assert.True(t, slots.Slots[0].Available)

	assert.Equal(t, time.Date(2030, 1, 7, 9, 30, 0, 0, time.UTC), slots.Slots[1].Start.UTC())
	assert.Equal(t, time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC), slots.Slots[1].End.UTC())
	assert.True(t, slots.Slots[1].Available)
}

func TestGenerateSlots_DisabledDay(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)

	slots, err := GenerateSlots(mondayTemplate("UTC"), tuesday, nil, 30, nowTime)
	require.NoError(t, err)

	assert.True(t, slots.ProviderUnavailable)
	assert.Empty(t, slots.Slots)
}

func TestGenerateSlots_DropsTrailingPartialWindow(t *testing.T) {
	tpl := mondayTemplate("UTC")
	tpl.Days[time.Monday] = DaySchedule{Enabled: true, Start: "09:00", End: "10:45"}

	slots, err := GenerateSlots(tpl, monday, nil, 30, nowTime)
	require.NoError(t, err)

	require.Len(t, slots.Slots, 3)
	assert.Equal(t, 10, slots.Slots[2].Start.UTC().Hour())
	assert.Equal(t, 0, slots.Slots[2].Start.UTC().Minute())
}

func TestGenerateSlots_NoOverlapsAndFixedLength(t *testing.T) {
	tpl := DefaultWeeklyTemplate(1, "UTC")

	for _, minutes := range []int{15, 20, 30, 45, 60} {
		slots, err := GenerateSlots(tpl, monday, nil, minutes, nowTime)
		require.NoError(t, err)
		require.NotEmpty(t, slots.Slots)

		for i, s := range slots.Slots {
			assert.Equal(t, time.Duration(minutes)*time.Minute, s.End.Sub(s.Start))
			if i > 0 {
				assert.False(t, s.Start.Before(slots.Slots[i-1].End), "slot %d overlaps previous", i)
			}
		}
	}
}

func TestGenerateSlots_OccupyingReservations(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2030, 1, 7, h, m, 0, 0, time.UTC) }

	reservations := []*Reservation{
		{ID: 1, ProviderID: 7, PatientID: ptr.Ptr(int64(3)), ScheduledAt: at(9, 0), Status: StatusCancelled},
		{ID: 2, ProviderID: 7, ScheduledAt: at(9, 40), Status: StatusBlocked},
	}

	slots, err := GenerateSlots(mondayTemplate("UTC"), monday, reservations, 30, nowTime)
	require.NoError(t, err)
	require.Len(t, slots.Slots, 2)

	assert.True(t, slots.Slots[0].Available, "cancelled reservation frees the slot")
	assert.False(t, slots.Slots[1].Available, "block inside the window occupies the slot")
}

func TestGenerateSlots_PastDate(t *testing.T) {
	_, err := GenerateSlots(mondayTemplate("UTC"), monday, nil, 30, monday.AddDate(0, 0, 1))

	require.ErrorIs(t, err, ErrValidation)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, CodeInvalidRange, vErr.Code)
}

func TestGenerateSlots_TodayIsAllowed(t *testing.T) {
	_, err := GenerateSlots(mondayTemplate("UTC"), monday, nil, 30, monday.Add(23*time.Hour))
	assert.NoError(t, err)
}

func TestGenerateSlots_ProviderTimezone(t *testing.T) {
	tpl := mondayTemplate("Africa/Khartoum")
	loc := tpl.Location()
	if loc == time.UTC {
		t.Skip("tzdata not available")
	}

	slots, err := GenerateSlots(tpl, monday, nil, 30, nowTime)
	require.NoError(t, err)
	require.Len(t, slots.Slots, 2)

	// Khartoum is UTC+2
	assert.Equal(t, time.Date(2030, 1, 7, 7, 0, 0, 0, time.UTC), slots.Slots[0].Start.UTC())
	assert.Equal(t, "Africa/Khartoum", slots.Timezone)
}

func TestGenerateSlots_Idempotent(t *testing.T) {
	tpl := mondayTemplate("UTC")
	reservations := []*Reservation{{ID: 1, ScheduledAt: time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC), Status: StatusScheduled}}

	first, err := GenerateSlots(tpl, monday, reservations, 30, nowTime)
	require.NoError(t, err)
	second, err := GenerateSlots(tpl, monday, reservations, 30, nowTime)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateSlots_InvalidDuration(t *testing.T) {
	_, err := GenerateSlots(mondayTemplate("UTC"), monday, nil, -30, nowTime)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDaySlots_SlotAt(t *testing.T) {
	slots, err := GenerateSlots(mondayTemplate("UTC"), monday, nil, 30, nowTime)
	require.NoError(t, err)

	_, ok := slots.SlotAt(time.Date(2030, 1, 7, 9, 30, 0, 0, time.UTC))
	assert.True(t, ok)

	_, ok = slots.SlotAt(time.Date(2030, 1, 7, 9, 10, 0, 0, time.UTC))
	assert.False(t, ok)
	assert.Equal(t, 2, slots.AvailableCount())
}

func TestResolveSlot(t *testing.T) {
	tpl := mondayTemplate("UTC")

	slot, err := ResolveSlot(tpl, time.Date(2030, 1, 7, 9, 30, 0, 0, time.UTC), 30, nowTime)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC), slot.End.UTC())

	tests := []struct {
		name    string
		instant time.Time
		target  error
		code    string
	}{
		{"past", nowTime.Add(-time.Hour), ErrWindow, WindowNotInFuture},
		{"now", nowTime, ErrWindow, WindowNotInFuture},
		{"misaligned", time.Date(2030, 1, 7, 9, 10, 0, 0, time.UTC), ErrValidation, CodeNotASlot},
		{"outside hours", time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC), ErrValidation, CodeNotASlot},
		{"disabled day", time.Date(2030, 1, 8, 9, 0, 0, 0, time.UTC), ErrValidation, CodeProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveSlot(tpl, tt.instant, 30, nowTime)
			require.ErrorIs(t, err, tt.target)

			var wErr *WindowError
			var vErr *ValidationError
			switch {
			case errors.As(err, &wErr):
				assert.Equal(t, tt.code, wErr.Code)
			case errors.As(err, &vErr):
				assert.Equal(t, tt.code, vErr.Code)
			default:
				t.Fatalf("unexpected error type %T", err)
			}
		})
	}
}
