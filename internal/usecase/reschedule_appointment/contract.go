package reschedule_appointment

import (
	"context"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// ReservationRepository интерфейс репозитория резерваций
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error)
	LockSlot(ctx context.Context, providerID int64, instant time.Time) error
	FindOccupying(ctx context.Context, providerID int64, from, to time.Time, excludeID *int64) ([]*domain.Reservation, error)
	Reschedule(ctx context.Context, id int64, from domain.ReservationStatus, instant time.Time) (*domain.Reservation, error)
}

// AuditRepository интерфейс журнала переходов
type AuditRepository interface {
	RecordTransition(ctx context.Context, event *domain.TransitionEvent) error
}

// TemplateResolver возвращает недельный шаблон врача (или шаблон по умолчанию)
type TemplateResolver interface {
	Resolve(ctx context.Context, providerID int64) (*domain.WeeklyTemplate, error)
}

// SlotCache интерфейс кэша доступных слотов
type SlotCache interface {
	InvalidateInstant(ctx context.Context, providerID int64, instant time.Time) error
}

// Notifier интерфейс публикации уведомлений
type Notifier interface {
	AppointmentRescheduled(ctx context.Context, r *domain.Reservation, previous time.Time)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics интерфейс метрик бронирования
type Metrics interface {
	IncBooking(result string)
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
