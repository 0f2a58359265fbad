package cancel_appointment

import (
	"errors"
	"io"
	"net/http"

	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/middleware"
	"github.com/m04kA/Sahatak-SchedulingService/internal/service/appointments/models"
)

const (
	msgMissingActor         = "отсутствует аутентифицированный пользователь"
	msgInvalidAppointmentID = "некорректный ID приёма"
	msgInvalidRequestBody   = "некорректное тело запроса"
)

type Handler struct {
	service     AppointmentService
	slotMinutes int
	logger      Logger
}

func NewHandler(service AppointmentService, slotMinutes int, logger Logger) *Handler {
	return &Handler{
		service:     service,
		slotMinutes: slotMinutes,
		logger:      logger,
	}
}

// Handle PATCH /api/v1/appointments/{appointmentId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.PathID(r, "appointmentId")
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/cancel - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("PATCH /appointments/{id}/cancel - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req CancelAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("PATCH /appointments/{id}/cancel - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Cancel(r.Context(), appointmentID, &models.CancelRequest{
		Actor:  actor,
		Reason: req.Reason,
	})
	if err != nil {
		if handlers.IsClientError(err) {
			h.logger.Warn("PATCH /appointments/{id}/cancel - Rejected: appointment_id=%d, actor=%d: %v", appointmentID, actor.ID, err)
		} else {
			h.logger.Error("PATCH /appointments/{id}/cancel - Failed to cancel appointment: appointment_id=%d, error=%v", appointmentID, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("PATCH /appointments/{id}/cancel - Appointment cancelled successfully: appointment_id=%d, actor=%d",
		appointmentID, actor.ID)
	handlers.RespondJSON(w, http.StatusOK, handlers.FromReservation(result, h.slotMinutes))
}
