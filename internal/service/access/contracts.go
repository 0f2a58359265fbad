package access

import (
	"context"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// ReservationRepository интерфейс репозитория резерваций
type ReservationRepository interface {
	List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error)
}

// AuditRepository интерфейс журнала доступа к медкартам
type AuditRepository interface {
	RecordAccess(ctx context.Context, entry *domain.AccessAuditEntry) error
}

// Metrics интерфейс метрик решений о доступе
type Metrics interface {
	IncAccessDecision(outcome string)
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
