package create_appointment

import (
	"context"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/internal/integrations/providerservice"
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

// TemplateRepository интерфейс репозитория недельных шаблонов
type TemplateRepository interface {
	GetByProviderID(ctx context.Context, providerID int64) (*domain.WeeklyTemplate, error)
}

// ProviderClient интерфейс клиента ProviderService
type ProviderClient interface {
	GetProfile(ctx context.Context, providerID int64) (*providerservice.Profile, error)
}

// SlotCache интерфейс кэша доступных слотов
type SlotCache interface {
	InvalidateInstant(ctx context.Context, providerID int64, instant time.Time) error
}

// Notifier интерфейс публикации уведомлений
type Notifier interface {
	AppointmentCreated(ctx context.Context, r *domain.Reservation)
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
