package create_appointment

import (
	"net/http"

	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/middleware"
)

const (
	msgMissingActor       = "отсутствует аутентифицированный пользователь"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidScheduledAt = "некорректное время приёма, ожидается RFC3339"
)

type Handler struct {
	useCase     CreateAppointmentUseCase
	slotMinutes int
	logger      Logger
}

func NewHandler(useCase CreateAppointmentUseCase, slotMinutes int, logger Logger) *Handler {
	return &Handler{
		useCase:     useCase,
		slotMinutes: slotMinutes,
		logger:      logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("POST /appointments - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req CreateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(actor)
	if err != nil {
		h.logger.Warn("POST /appointments - Invalid scheduledAt %q: %v", req.ScheduledAt, err)
		handlers.RespondBadRequest(w, msgInvalidScheduledAt)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		if handlers.IsClientError(err) {
			h.logger.Warn("POST /appointments - Rejected: actor=%d, provider_id=%d, scheduled_at=%s: %v",
				actor.ID, req.ProviderID, req.ScheduledAt, err)
		} else {
			h.logger.Error("POST /appointments - Failed to create appointment: actor=%d, provider_id=%d, error=%v",
				actor.ID, req.ProviderID, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("POST /appointments - Appointment created successfully: appointment_id=%d, provider_id=%d, patient_id=%d",
		result.ID, result.ProviderID, useCaseReq.PatientID)
	handlers.RespondJSON(w, http.StatusCreated, handlers.FromReservation(result, h.slotMinutes))
}
