package create_appointment

import (
	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ProviderID <= 0 {
		return domain.NewValidationError("provider_id", domain.CodeInvalidValue, "provider_id must be positive")
	}

	if req.PatientID <= 0 {
		return domain.NewValidationError("patient_id", domain.CodeInvalidValue, "patient_id must be positive")
	}

	if req.ScheduledAt.IsZero() {
		return domain.NewValidationError("scheduled_at", domain.CodeRequired, "scheduled_at is required")
	}

	if !req.Modality.IsBookable() {
		return domain.NewValidationError("modality", domain.CodeInvalidValue, "modality must be one of video, audio, chat")
	}

	if req.Reason != nil && len(*req.Reason) > domain.MaxReasonLength {
		return domain.NewValidationError("reason", domain.CodeTooLong, "reason is too long")
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return domain.NewValidationError("notes", domain.CodeTooLong, "notes are too long")
	}

	return nil
}

// authorize проверяет, что записывает сам пациент или администратор
func authorize(req *Request) error {
	if req.Actor.IsPatient(req.PatientID) || req.Actor.IsAdmin() {
		return nil
	}
	return domain.NewAccessDeniedError("appointments can only be booked by the patient")
}
