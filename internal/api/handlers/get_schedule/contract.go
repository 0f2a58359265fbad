package get_schedule

import (
	"context"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

type ScheduleService interface {
	Get(ctx context.Context, providerID int64) (*domain.WeeklyTemplate, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
