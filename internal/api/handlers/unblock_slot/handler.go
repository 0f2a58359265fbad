package unblock_slot

import (
	"net/http"

	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/middleware"
)

const (
	msgMissingActor      = "отсутствует аутентифицированный пользователь"
	msgInvalidProviderID = "некорректный ID врача"
	msgInvalidBlockID    = "некорректный ID блокировки"
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

// Handle DELETE /api/v1/providers/{providerId}/blocks/{blockId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := handlers.PathID(r, "providerId")
	if err != nil {
		h.logger.Warn("DELETE /providers/{id}/blocks/{id} - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	blockID, err := handlers.PathID(r, "blockId")
	if err != nil {
		h.logger.Warn("DELETE /providers/{id}/blocks/{id} - Invalid block ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBlockID)
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("DELETE /providers/{id}/blocks/{id} - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	if err := h.service.Unblock(r.Context(), actor, providerID, blockID); err != nil {
		if handlers.IsClientError(err) {
			h.logger.Warn("DELETE /providers/{id}/blocks/{id} - Rejected: provider_id=%d, block_id=%d, actor=%d: %v",
				providerID, blockID, actor.ID, err)
		} else {
			h.logger.Error("DELETE /providers/{id}/blocks/{id} - Failed to unblock: block_id=%d, error=%v", blockID, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("DELETE /providers/{id}/blocks/{id} - Block removed successfully: provider_id=%d, block_id=%d",
		providerID, blockID)
	w.WriteHeader(http.StatusNoContent)
}
