package authorize_emergency

import (
	"net/http"

	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/middleware"
)

const (
	msgMissingActor       = "отсутствует аутентифицированный пользователь"
	msgInvalidRequestBody = "некорректное тело запроса"
)

type Handler struct {
	service AccessService
	logger  Logger
}

func NewHandler(service AccessService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/access/emergency-grants
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("POST /access/emergency-grants - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req EmergencyRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /access/emergency-grants - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	grant, err := h.service.AuthorizeEmergency(r.Context(), actor, req.Justification)
	if err != nil {
		if handlers.IsClientError(err) {
			h.logger.Warn("POST /access/emergency-grants - Rejected: actor=%d (%s): %v", actor.ID, actor.Role, err)
		} else {
			h.logger.Error("POST /access/emergency-grants - Failed to issue grant: actor=%d, error=%v", actor.ID, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("POST /access/emergency-grants - Grant issued: actor=%d, grant_id=%s", actor.ID, grant.ID)
	handlers.RespondJSON(w, http.StatusCreated, FromGrant(grant))
}
