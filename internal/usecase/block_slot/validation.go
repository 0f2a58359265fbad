package block_slot

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ProviderID <= 0 {
		return domain.NewValidationError("provider_id", domain.CodeInvalidValue, "provider_id must be positive")
	}

	if req.Start.IsZero() {
		return domain.NewValidationError("start", domain.CodeRequired, "start is required")
	}

	if req.End.IsZero() {
		return domain.NewValidationError("end", domain.CodeRequired, "end is required")
	}

	if !req.Start.Before(req.End) {
		return domain.NewInvalidRangeError("end", "end must be after start")
	}

	if req.End.Sub(req.Start) > domain.MaxBlockRangePerRequest {
		return domain.NewInvalidRangeError("end", "range is too long")
	}

	if req.Reason != nil && len(*req.Reason) > domain.MaxReasonLength {
		return domain.NewValidationError("reason", domain.CodeTooLong, "reason is too long")
	}

	return nil
}

// blockInstants возвращает начала слотов в [start, end) с шагом slotMinutes по возрастанию
func blockInstants(start, end time.Time, slotMinutes int) []time.Time {
	step := time.Duration(slotMinutes) * time.Minute
	var instants []time.Time
	for cur := start; cur.Before(end); cur = cur.Add(step) {
		instants = append(instants, cur.UTC())
	}
	return instants
}
