package get_available_slots

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	getAvailableSlots "github.com/m04kA/Sahatak-SchedulingService/internal/usecase/get_available_slots"
)

// SlotResponse HTTP модель слота
type SlotResponse struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

// SlotsResponse HTTP модель слотов врача на дату
type SlotsResponse struct {
	ProviderID          int64          `json:"providerId"`
	Date                string         `json:"date"`
	Timezone            string         `json:"timezone"`
	SlotMinutes         int            `json:"slotMinutes"`
	ProviderUnavailable bool           `json:"providerUnavailable"`
	AvailableCount      int            `json:"availableCount"`
	Slots               []SlotResponse `json:"slots"`
}

// ToUseCaseRequest конвертирует параметры запроса в модель use case
func ToUseCaseRequest(providerID int64, date string) (*getAvailableSlots.Request, error) {
	parsed, err := time.Parse(domain.DateFormat, date)
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		ProviderID: providerID,
		Date:       parsed,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response.
// Время слотов отдается в часовом поясе врача.
func FromUseCaseResponse(day *domain.DaySlots) *SlotsResponse {
	loc, err := time.LoadLocation(day.Timezone)
	if err != nil {
		loc = time.UTC
	}

	slots := make([]SlotResponse, 0, len(day.Slots))
	for _, s := range day.Slots {
		slots = append(slots, SlotResponse{
			Start:     s.Start.In(loc).Format(time.RFC3339),
			End:       s.End.In(loc).Format(time.RFC3339),
			Available: s.Available,
		})
	}

	return &SlotsResponse{
		ProviderID:          day.ProviderID,
		Date:                day.Date,
		Timezone:            day.Timezone,
		SlotMinutes:         day.SlotMinutes,
		ProviderUnavailable: day.ProviderUnavailable,
		AvailableCount:      day.AvailableCount(),
		Slots:               slots,
	}
}
