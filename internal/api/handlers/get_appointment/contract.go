package get_appointment

import (
	"context"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

type AppointmentService interface {
	GetByID(ctx context.Context, actor domain.Actor, id int64) (*domain.Reservation, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
