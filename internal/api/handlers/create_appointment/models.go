package create_appointment

import (
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	createAppointment "github.com/m04kA/Sahatak-SchedulingService/internal/usecase/create_appointment"
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	ProviderID  int64   `json:"providerId"`
	PatientID   *int64  `json:"patientId,omitempty"` // по умолчанию - текущий пациент
	ScheduledAt string  `json:"scheduledAt"`         // RFC3339, "2030-01-07T09:00:00Z"
	Modality    string  `json:"modality"`
	Reason      *string `json:"reason,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateAppointmentRequest) ToUseCaseRequest(actor domain.Actor) (*createAppointment.Request, error) {
	scheduledAt, err := handlers.ParseInstant(r.ScheduledAt)
	if err != nil {
		return nil, err
	}

	patientID := actor.ID
	if r.PatientID != nil {
		patientID = *r.PatientID
	}

	return &createAppointment.Request{
		Actor:       actor,
		ProviderID:  r.ProviderID,
		PatientID:   patientID,
		ScheduledAt: scheduledAt,
		Modality:    domain.Modality(r.Modality),
		Reason:      r.Reason,
		Notes:       r.Notes,
	}, nil
}
