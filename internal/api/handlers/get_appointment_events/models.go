package get_appointment_events

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// EventResponse HTTP модель события жизненного цикла
type EventResponse struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actorId"`
	ActorRole  string         `json:"actorRole"`
	FromStatus *string        `json:"fromStatus,omitempty"`
	ToStatus   string         `json:"toStatus"`
	Reason     *string        `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  string         `json:"createdAt"`
}

// EventListResponse история приёма
type EventListResponse struct {
	AppointmentID int64            `json:"appointmentId"`
	Events        []*EventResponse `json:"events"`
}

// FromEvents конвертирует события в HTTP модель
func FromEvents(appointmentID int64, events []*domain.TransitionEvent) *EventListResponse {
	resp := &EventListResponse{
		AppointmentID: appointmentID,
		Events:        make([]*EventResponse, 0, len(events)),
	}

	for _, e := range events {
		item := &EventResponse{
			ID:        e.ID,
			ActorID:   e.ActorID,
			ActorRole: string(e.ActorRole),
			ToStatus:  string(e.ToStatus),
			Reason:    e.Reason,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		}
		if e.FromStatus != nil {
			from := string(*e.FromStatus)
			item.FromStatus = &from
		}
		resp.Events = append(resp.Events, item)
	}

	return resp
}
