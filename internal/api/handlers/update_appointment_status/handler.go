package update_appointment_status

import (
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

// Handle PATCH /api/v1/appointments/{appointmentId}/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.PathID(r, "appointmentId")
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/status - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("PATCH /appointments/{id}/status - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req UpdateStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /appointments/{id}/status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Допустимость действия проверяет сервис
	result, err := h.service.Transition(r.Context(), appointmentID, &models.TransitionRequest{
		Actor:  actor,
		Action: req.Action,
		Reason: req.Reason,
	})
	if err != nil {
		if handlers.IsClientError(err) {
			h.logger.Warn("PATCH /appointments/{id}/status - Rejected: appointment_id=%d, action=%s, actor=%d: %v",
				appointmentID, req.Action, actor.ID, err)
		} else {
			h.logger.Error("PATCH /appointments/{id}/status - Failed to update status: appointment_id=%d, action=%s, error=%v",
				appointmentID, req.Action, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("PATCH /appointments/{id}/status - Status updated successfully: appointment_id=%d, status=%s",
		appointmentID, result.Status)
	handlers.RespondJSON(w, http.StatusOK, handlers.FromReservation(result, h.slotMinutes))
}
