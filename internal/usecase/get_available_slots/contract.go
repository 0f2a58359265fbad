package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// ReservationRepository интерфейс репозитория резерваций
type ReservationRepository interface {
	List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error)
}

// TemplateResolver возвращает недельный шаблон врача (или шаблон по умолчанию)
type TemplateResolver interface {
	Resolve(ctx context.Context, providerID int64) (*domain.WeeklyTemplate, error)
}

// SlotCache интерфейс кэша доступных слотов
type SlotCache interface {
	Get(ctx context.Context, providerID int64, date string) (*domain.DaySlots, bool, error)
	Stamp(ctx context.Context, providerID int64, date string) (string, error)
	Set(ctx context.Context, providerID int64, date, stamp string, slots *domain.DaySlots) (bool, error)
}

// Metrics интерфейс метрик кэша
type Metrics interface {
	IncSlotCache(result string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
