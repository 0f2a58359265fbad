package get_appointment_events

import (
	"context"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

type AppointmentService interface {
	GetHistory(ctx context.Context, actor domain.Actor, id int64) ([]*domain.TransitionEvent, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
