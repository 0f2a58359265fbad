package domain

import "time"

// TransitionEvent is an audit record of a reservation lifecycle transition
type TransitionEvent struct {
	ID            int64
	ReservationID int64
	ActorID       int64
	ActorRole     Role
	FromStatus    *ReservationStatus // nil on creation
	ToStatus      ReservationStatus
	Reason        *string
	Metadata      map[string]any
	CreatedAt     time.Time
}

// NewTransitionEvent creates an audit event for the reservation
func NewTransitionEvent(r *Reservation, actor Actor, from *ReservationStatus, to ReservationStatus, reason *string, metadata map[string]any) *TransitionEvent {
	return &TransitionEvent{
		ReservationID: r.ID,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		FromStatus:    from,
		ToStatus:      to,
		Reason:        reason,
		Metadata:      metadata,
	}
}

// AccessAuditEntry is an audit record of one access policy evaluation
type AccessAuditEntry struct {
	ID            int64
	RequesterID   int64
	RequesterRole Role
	ProviderID    int64 // provider whose appointments were evaluated
	PatientID     int64
	Allowed       bool
	Reason        AccessReason
	ReservationID *int64
	Emergency     bool
	GrantID       *string
	Justification *string
	EvaluatedAt   time.Time
}
