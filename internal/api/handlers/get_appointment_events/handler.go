package get_appointment_events

import (
	"net/http"

	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/middleware"
)

const (
	msgMissingActor         = "отсутствует аутентифицированный пользователь"
	msgInvalidAppointmentID = "некорректный ID приёма"
)

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/appointments/{appointmentId}/events
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.PathID(r, "appointmentId")
	if err != nil {
		h.logger.Warn("GET /appointments/{id}/events - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("GET /appointments/{id}/events - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	events, err := h.service.GetHistory(r.Context(), actor, appointmentID)
	if err != nil {
		if handlers.IsClientError(err) {
			h.logger.Warn("GET /appointments/{id}/events - Rejected: appointment_id=%d, actor=%d: %v", appointmentID, actor.ID, err)
		} else {
			h.logger.Error("GET /appointments/{id}/events - Failed to get history: appointment_id=%d, error=%v", appointmentID, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("GET /appointments/{id}/events - History retrieved successfully: appointment_id=%d, events=%d",
		appointmentID, len(events))
	handlers.RespondJSON(w, http.StatusOK, FromEvents(appointmentID, events))
}
