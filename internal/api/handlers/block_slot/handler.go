package block_slot

import (
	"net/http"

	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/middleware"
	blockSlot "github.com/m04kA/Sahatak-SchedulingService/internal/usecase/block_slot"
)

const (
	msgMissingActor       = "отсутствует аутентифицированный пользователь"
	msgInvalidProviderID  = "некорректный ID врача"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInterval    = "некорректный интервал, ожидается RFC3339"
)

type Handler struct {
	useCase     BlockSlotUseCase
	slotMinutes int
	logger      Logger
}

func NewHandler(useCase BlockSlotUseCase, slotMinutes int, logger Logger) *Handler {
	return &Handler{
		useCase:     useCase,
		slotMinutes: slotMinutes,
		logger:      logger,
	}
}

// Handle POST /api/v1/providers/{providerId}/blocks
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := handlers.PathID(r, "providerId")
	if err != nil {
		h.logger.Warn("POST /providers/{id}/blocks - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("POST /providers/{id}/blocks - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req BlockRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /providers/{id}/blocks - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	start, err := handlers.ParseInstant(req.Start)
	if err != nil {
		h.logger.Warn("POST /providers/{id}/blocks - Invalid start %q: %v", req.Start, err)
		handlers.RespondBadRequest(w, msgInvalidInterval)
		return
	}
	end, err := handlers.ParseInstant(req.End)
	if err != nil {
		h.logger.Warn("POST /providers/{id}/blocks - Invalid end %q: %v", req.End, err)
		handlers.RespondBadRequest(w, msgInvalidInterval)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &blockSlot.Request{
		Actor:      actor,
		ProviderID: providerID,
		Start:      start,
		End:        end,
		Reason:     req.Reason,
	})
	if err != nil {
		if handlers.IsClientError(err) {
			h.logger.Warn("POST /providers/{id}/blocks - Rejected: provider_id=%d, actor=%d: %v", providerID, actor.ID, err)
		} else {
			h.logger.Error("POST /providers/{id}/blocks - Failed to block: provider_id=%d, error=%v", providerID, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("POST /providers/{id}/blocks - Blocks created successfully: provider_id=%d, created=%d, skipped=%d",
		providerID, len(result.Blocks), len(result.Skipped))
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result, h.slotMinutes))
}
