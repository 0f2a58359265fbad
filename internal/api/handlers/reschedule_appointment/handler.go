package reschedule_appointment

import (
	"net/http"

	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/middleware"
	rescheduleAppointment "github.com/m04kA/Sahatak-SchedulingService/internal/usecase/reschedule_appointment"
)

const (
	msgMissingActor         = "отсутствует аутентифицированный пользователь"
	msgInvalidAppointmentID = "некорректный ID приёма"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidScheduledAt   = "некорректное время приёма, ожидается RFC3339"
)

type Handler struct {
	useCase     RescheduleAppointmentUseCase
	slotMinutes int
	logger      Logger
}

func NewHandler(useCase RescheduleAppointmentUseCase, slotMinutes int, logger Logger) *Handler {
	return &Handler{
		useCase:     useCase,
		slotMinutes: slotMinutes,
		logger:      logger,
	}
}

// Handle PATCH /api/v1/appointments/{appointmentId}/reschedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.PathID(r, "appointmentId")
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/reschedule - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("PATCH /appointments/{id}/reschedule - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req RescheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /appointments/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	scheduledAt, err := handlers.ParseInstant(req.ScheduledAt)
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/reschedule - Invalid scheduledAt %q: %v", req.ScheduledAt, err)
		handlers.RespondBadRequest(w, msgInvalidScheduledAt)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &rescheduleAppointment.Request{
		Actor:         actor,
		AppointmentID: appointmentID,
		ScheduledAt:   scheduledAt,
	})
	if err != nil {
		if handlers.IsClientError(err) {
			h.logger.Warn("PATCH /appointments/{id}/reschedule - Rejected: appointment_id=%d, actor=%d, to=%s: %v",
				appointmentID, actor.ID, req.ScheduledAt, err)
		} else {
			h.logger.Error("PATCH /appointments/{id}/reschedule - Failed to reschedule: appointment_id=%d, error=%v", appointmentID, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("PATCH /appointments/{id}/reschedule - Appointment rescheduled successfully: appointment_id=%d, to=%s",
		appointmentID, req.ScheduledAt)
	handlers.RespondJSON(w, http.StatusOK, handlers.FromReservation(result, h.slotMinutes))
}
