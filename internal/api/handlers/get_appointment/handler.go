package get_appointment

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

// Handle GET /api/v1/appointments/{appointmentId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.PathID(r, "appointmentId")
	if err != nil {
		h.logger.Warn("GET /appointments/{id} - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("GET /appointments/{id} - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	// Сервис сам проверит права доступа
	appointment, err := h.service.GetByID(r.Context(), actor, appointmentID)
	if err != nil {
		if handlers.IsClientError(err) {
			h.logger.Warn("GET /appointments/{id} - Rejected: appointment_id=%d, actor=%d: %v", appointmentID, actor.ID, err)
		} else {
			h.logger.Error("GET /appointments/{id} - Failed to get appointment: appointment_id=%d, error=%v", appointmentID, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("GET /appointments/{id} - Appointment retrieved successfully: appointment_id=%d, actor=%d",
		appointmentID, actor.ID)
	handlers.RespondJSON(w, http.StatusOK, handlers.FromReservation(appointment, h.slotMinutes))
}
