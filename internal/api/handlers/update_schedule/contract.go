package update_schedule

import (
	"context"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

type ScheduleService interface {
	Update(ctx context.Context, actor domain.Actor, tpl *domain.WeeklyTemplate) (*domain.WeeklyTemplate, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
