package get_provider_appointments

import (
	"context"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/internal/service/appointments/models"
)

type AppointmentService interface {
	ListProviderAppointments(ctx context.Context, req *models.ListProviderRequest) ([]*domain.Reservation, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
