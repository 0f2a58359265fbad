package handlers

import (
	"fmt"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/types"
)

// DayScheduleDTO рабочие часы врача в день недели
type DayScheduleDTO struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"` // "09:00"
	End     string `json:"end"`   // "17:00"
}

// ScheduleResponse HTTP модель недельного шаблона
type ScheduleResponse struct {
	ProviderID int64                     `json:"providerId"`
	Timezone   string                    `json:"timezone"`
	Days       map[string]DayScheduleDTO `json:"days"` // ключ - день недели: "monday", ...
}

// FromTemplate конвертирует шаблон в HTTP модель
func FromTemplate(tpl *domain.WeeklyTemplate) *ScheduleResponse {
	resp := &ScheduleResponse{
		ProviderID: tpl.ProviderID,
		Timezone:   tpl.Timezone,
		Days:       make(map[string]DayScheduleDTO, 7),
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		day := tpl.Day(wd)
		resp.Days[domain.WeekdayName(wd)] = DayScheduleDTO{
			Enabled: day.Enabled,
			Start:   day.Start.String(),
			End:     day.End.String(),
		}
	}
	return resp
}

// ToTemplate собирает шаблон из HTTP модели. Не указанные дни считаются выходными.
func ToTemplate(providerID int64, timezone string, days map[string]DayScheduleDTO) (*domain.WeeklyTemplate, error) {
	tpl := &domain.WeeklyTemplate{
		ProviderID: providerID,
		Timezone:   timezone,
		Days:       make(map[time.Weekday]domain.DaySchedule, len(days)),
	}
	for name, day := range days {
		wd, ok := domain.ParseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		tpl.Days[wd] = domain.DaySchedule{
			Enabled: day.Enabled,
			Start:   types.TimeString(day.Start),
			End:     types.TimeString(day.End),
		}
	}
	return tpl, nil
}
