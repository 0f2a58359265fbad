package get_patient_appointments

import (
	"context"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/internal/service/appointments/models"
)

type AppointmentService interface {
	ListPatientAppointments(ctx context.Context, req *models.ListPatientRequest) ([]*domain.Reservation, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
