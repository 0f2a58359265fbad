package get_provider_appointments

import (
	"net/http"

	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/middleware"
	"github.com/m04kA/Sahatak-SchedulingService/internal/service/appointments/models"
)

const (
	msgMissingActor      = "отсутствует аутентифицированный пользователь"
	msgInvalidProviderID = "некорректный ID врача"
	msgInvalidPeriod     = "параметры from и to обязательны, ожидается RFC3339"
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

// Handle GET /api/v1/providers/{providerId}/appointments
// Query params: from, to (required, RFC3339; to не включительно)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := handlers.PathID(r, "providerId")
	if err != nil {
		h.logger.Warn("GET /providers/{id}/appointments - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("GET /providers/{id}/appointments - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	query := r.URL.Query()
	from, err := handlers.ParseInstant(query.Get("from"))
	if err != nil {
		h.logger.Warn("GET /providers/{id}/appointments - Invalid from: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPeriod)
		return
	}
	to, err := handlers.ParseInstant(query.Get("to"))
	if err != nil {
		h.logger.Warn("GET /providers/{id}/appointments - Invalid to: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPeriod)
		return
	}

	list, err := h.service.ListProviderAppointments(r.Context(), &models.ListProviderRequest{
		Actor:      actor,
		ProviderID: providerID,
		From:       from,
		To:         to,
	})
	if err != nil {
		if handlers.IsClientError(err) {
			h.logger.Warn("GET /providers/{id}/appointments - Rejected: provider_id=%d, actor=%d: %v", providerID, actor.ID, err)
		} else {
			h.logger.Error("GET /providers/{id}/appointments - Failed to list appointments: provider_id=%d, error=%v", providerID, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("GET /providers/{id}/appointments - Agenda retrieved successfully: provider_id=%d, count=%d",
		providerID, len(list))
	handlers.RespondJSON(w, http.StatusOK, handlers.FromReservations(list, h.slotMinutes))
}
