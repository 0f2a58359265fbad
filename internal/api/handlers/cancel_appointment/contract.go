package cancel_appointment

import (
	"context"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/internal/service/appointments/models"
)

type AppointmentService interface {
	Cancel(ctx context.Context, id int64, req *models.CancelRequest) (*domain.Reservation, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
