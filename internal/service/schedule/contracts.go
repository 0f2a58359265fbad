package schedule

import (
	"context"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/internal/integrations/providerservice"
)

// TemplateRepository интерфейс хранилища недельных шаблонов
type TemplateRepository interface {
	GetByProviderID(ctx context.Context, providerID int64) (*domain.WeeklyTemplate, error)
	Upsert(ctx context.Context, tpl *domain.WeeklyTemplate) (*domain.WeeklyTemplate, error)
}

// ProviderClient интерфейс клиента ProviderService
type ProviderClient interface {
	GetProfile(ctx context.Context, providerID int64) (*providerservice.Profile, error)
}

// SlotCache интерфейс кэша слотов
type SlotCache interface {
	InvalidateProvider(ctx context.Context, providerID int64) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
