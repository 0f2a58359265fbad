package block_slot

import (
	"context"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// ReservationRepository интерфейс репозитория резерваций
type ReservationRepository interface {
	LockSlot(ctx context.Context, providerID int64, instant time.Time) error
	FindOccupying(ctx context.Context, providerID int64, from, to time.Time, excludeID *int64) ([]*domain.Reservation, error)
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
}

// AuditRepository интерфейс журнала переходов
type AuditRepository interface {
	RecordTransition(ctx context.Context, event *domain.TransitionEvent) error
}

// SlotCache интерфейс кэша доступных слотов
type SlotCache interface {
	InvalidateInstant(ctx context.Context, providerID int64, instant time.Time) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
