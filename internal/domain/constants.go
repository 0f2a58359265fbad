package domain

import "time"

// Default configuration values
const (
	DefaultSlotMinutes        = 30
	DefaultCancellationWindow = time.Hour
	DefaultTimezone           = "UTC"
)

// Default record-access windows
const (
	DefaultUpcomingAccessWindow = 30 * 24 * time.Hour
	DefaultActiveAccessWindow   = 24 * time.Hour
	DefaultHistoryAccessWindow  = 365 * 24 * time.Hour
)

// Business validation constants
const (
	MinSlotMinutes           = 5
	MaxSlotMinutes           = 240
	MaxReasonLength          = 500
	MaxNotesLength           = 1000
	MaxJustificationLength   = 1000
	MinJustificationLength   = 10
	MaxProviderAgendaRange   = 62 * 24 * time.Hour
	MaxBlockRangePerRequest  = 24 * time.Hour
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// OccupyingStatuses statuses that make an instant unavailable for new bookings
var OccupyingStatuses = []ReservationStatus{
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
	StatusBlocked,
}

// AppointmentStatuses statuses a patient appointment can have
var AppointmentStatuses = []ReservationStatus{
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}
