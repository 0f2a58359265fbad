package domain

import "time"

// ReservationStatus represents the lifecycle status of a reservation
type ReservationStatus string

const (
	StatusScheduled  ReservationStatus = "scheduled"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusInProgress ReservationStatus = "in_progress"
	StatusCompleted  ReservationStatus = "completed"
	StatusCancelled  ReservationStatus = "cancelled"
	StatusNoShow     ReservationStatus = "no_show"
	StatusBlocked    ReservationStatus = "blocked"

	// StatusDeleted is never persisted on a reservation; it marks unblock events in the audit log
	StatusDeleted ReservationStatus = "deleted"
)

// Modality represents how the consultation is held
type Modality string

const (
	ModalityVideo   Modality = "video"
	ModalityAudio   Modality = "audio"
	ModalityChat    Modality = "chat"
	ModalityBlocked Modality = "blocked"
)

// Reservation is the unit of exclusivity on a provider's calendar.
// A reservation is either a patient appointment or a provider block;
// blocks have no patient and carry the blocked status and modality.
type Reservation struct {
	ID          int64
	ProviderID  int64
	PatientID   *int64 // nil = provider block
	ScheduledAt time.Time
	Modality    Modality
	Status      ReservationStatus

	// Fee is copied from the provider profile at creation time
	Fee float64

	Reason *string
	Notes  *string

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsBlock returns true if the reservation is a provider-initiated block
func (r *Reservation) IsBlock() bool {
	return r.PatientID == nil || r.Status == StatusBlocked
}

// IsOccupying returns true if the reservation makes its instant unavailable
func (r *Reservation) IsOccupying() bool {
	return r.Status.IsOccupying()
}

// BelongsToPatient returns true if the reservation was booked by the patient
func (r *Reservation) BelongsToPatient(patientID int64) bool {
	return r.PatientID != nil && *r.PatientID == patientID
}

// CanBeCancelled returns true if the status allows cancellation
func (r *Reservation) CanBeCancelled() bool {
	return r.Status == StatusScheduled || r.Status == StatusConfirmed
}

// CanBeRescheduled returns true if the status allows moving the appointment
func (r *Reservation) CanBeRescheduled() bool {
	return r.Status == StatusScheduled || r.Status == StatusConfirmed
}

// EndsAt returns the implicit end of the reservation
func (r *Reservation) EndsAt(slotMinutes int) time.Time {
	return r.ScheduledAt.Add(time.Duration(slotMinutes) * time.Minute)
}

// IsOccupying returns true for statuses that hold an instant
func (s ReservationStatus) IsOccupying() bool {
	for _, occupying := range OccupyingStatuses {
		if s == occupying {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// IsValid returns true for statuses that can be stored on a reservation
func (s ReservationStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusBlocked:
		return true
	}
	return false
}

// IsBookable returns true for modalities a patient can request
func (m Modality) IsBookable() bool {
	return m == ModalityVideo || m == ModalityAudio || m == ModalityChat
}

// transitions describes the appointment state machine.
// Reschedule is modelled as X -> scheduled.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusNoShow, StatusScheduled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow, StatusScheduled},
	StatusInProgress: {StatusCompleted},
	StatusBlocked:    {StatusDeleted},
}

// CanTransition returns true if the state machine allows from -> to
func CanTransition(from, to ReservationStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ReservationFilter фильтр для выборки резерваций
type ReservationFilter struct {
	ProviderID *int64
	PatientID  *int64
	From       *time.Time // включительно
	To         *time.Time // не включительно
	Statuses   []ReservationStatus

	NewestFirst bool
	Limit       uint64 // 0 = без ограничения
}
