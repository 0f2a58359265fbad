package appointments

import (
	"context"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// ReservationRepository интерфейс репозитория резерваций
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.ReservationStatus) (*domain.Reservation, error)
	Cancel(ctx context.Context, id int64, from domain.ReservationStatus, reason *string) (*domain.Reservation, error)
	DeleteBlock(ctx context.Context, id, providerID int64) (*domain.Reservation, error)
}

// AuditRepository интерфейс журнала переходов
type AuditRepository interface {
	RecordTransition(ctx context.Context, event *domain.TransitionEvent) error
	ListTransitions(ctx context.Context, reservationID int64) ([]*domain.TransitionEvent, error)
}

// SlotCache интерфейс кэша доступных слотов
type SlotCache interface {
	InvalidateInstant(ctx context.Context, providerID int64, instant time.Time) error
}

// Notifier интерфейс публикации уведомлений
type Notifier interface {
	AppointmentCancelled(ctx context.Context, r *domain.Reservation)
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
