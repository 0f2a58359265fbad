package get_available_slots

import (
	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ProviderID <= 0 {
		return domain.NewValidationError("provider_id", domain.CodeInvalidValue, "provider_id must be positive")
	}

	if req.Date.IsZero() {
		return domain.NewValidationError("date", domain.CodeRequired, "date is required")
	}

	return nil
}
