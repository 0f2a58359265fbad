package evaluate_access

import (
	"errors"
	"net/http"

	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/middleware"
	"github.com/m04kA/Sahatak-SchedulingService/internal/service/access"
)

const (
	msgMissingActor       = "отсутствует аутентифицированный пользователь"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgAuditUnavailable   = "журнал доступа недоступен, решение не может быть выдано"
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

// Handle POST /api/v1/access/evaluate
// 200 - доступ разрешен, 403 - запрещен; тело в обоих случаях содержит решение
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("POST /access/evaluate - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req EvaluateRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /access/evaluate - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	decision, err := h.service.Evaluate(r.Context(), &access.EvaluateRequest{
		Actor:      actor,
		PatientID:  req.PatientID,
		ProviderID: req.ProviderID,
		GrantID:    req.GrantID,
	})
	if err != nil {
		switch {
		case errors.Is(err, access.ErrAuditUnavailable):
			h.logger.Error("POST /access/evaluate - Audit unavailable: actor=%d, patient_id=%d, error=%v", actor.ID, req.PatientID, err)
			handlers.RespondError(w, http.StatusServiceUnavailable, msgAuditUnavailable)
			return

		case handlers.IsClientError(err):
			h.logger.Warn("POST /access/evaluate - Rejected: actor=%d, patient_id=%d: %v", actor.ID, req.PatientID, err)

		default:
			h.logger.Error("POST /access/evaluate - Failed to evaluate access: actor=%d, patient_id=%d, error=%v",
				actor.ID, req.PatientID, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	if !decision.Allowed {
		handlers.RespondJSON(w, http.StatusForbidden, FromDecision(decision))
		return
	}

	h.logger.Info("POST /access/evaluate - Access granted: actor=%d, patient_id=%d, reason=%s",
		actor.ID, req.PatientID, decision.Reason)
	handlers.RespondJSON(w, http.StatusOK, FromDecision(decision))
}
