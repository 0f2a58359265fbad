package block_slot

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	blockSlot "github.com/m04kA/Sahatak-SchedulingService/internal/usecase/block_slot"
)

// BlockRequest HTTP request model
type BlockRequest struct {
	Start  string  `json:"start"` // RFC3339, включительно
	End    string  `json:"end"`   // RFC3339, не включительно
	Reason *string `json:"reason,omitempty"`
}

// BlockResponse HTTP response model
type BlockResponse struct {
	Blocks  []*handlers.AppointmentResponse `json:"blocks"`
	Skipped []string                        `json:"skipped"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *blockSlot.Response, slotMinutes int) *BlockResponse {
	result := &BlockResponse{
		Blocks:  handlers.FromReservations(resp.Blocks, slotMinutes).Appointments,
		Skipped: make([]string, 0, len(resp.Skipped)),
	}
	for _, instant := range resp.Skipped {
		result.Skipped = append(result.Skipped, instant.UTC().Format(time.RFC3339))
	}
	return result
}
