package reschedule_appointment

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.AppointmentID <= 0 {
		return domain.NewValidationError("appointment_id", domain.CodeInvalidValue, "appointment_id must be positive")
	}

	if req.ScheduledAt.IsZero() {
		return domain.NewValidationError("scheduled_at", domain.CodeRequired, "scheduled_at is required")
	}

	return nil
}

// checkReschedulable проверяет владельца, статус и окно переноса
func checkReschedulable(res *domain.Reservation, actor domain.Actor, now time.Time, window time.Duration) error {
	if res.IsBlock() || !actor.IsPatient(*res.PatientID) {
		return domain.NewAccessDeniedError("only the booking patient can reschedule the appointment")
	}

	if !res.CanBeRescheduled() {
		return domain.NewInvalidStatusError(res.Status, domain.StatusScheduled)
	}

	if res.ScheduledAt.Sub(now) <= window {
		deadline := res.ScheduledAt.Add(-window)
		return domain.NewWindowError(domain.WindowReschedule,
			"appointment can no longer be rescheduled", &deadline)
	}

	return nil
}
