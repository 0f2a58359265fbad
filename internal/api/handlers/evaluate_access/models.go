package evaluate_access

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// EvaluateRequest HTTP request model
type EvaluateRequest struct {
	PatientID  int64   `json:"patientId"`
	ProviderID *int64  `json:"providerId,omitempty"`
	GrantID    *string `json:"grantId,omitempty"`
}

// DecisionResponse HTTP модель решения о доступе
type DecisionResponse struct {
	Allowed       bool    `json:"allowed"`
	Reason        string  `json:"reason"`
	AppointmentID *int64  `json:"appointmentId,omitempty"`
	Emergency     bool    `json:"emergency"`
	GrantID       *string `json:"grantId,omitempty"`
	EvaluatedAt   string  `json:"evaluatedAt"`
}

// FromDecision конвертирует решение в HTTP модель
func FromDecision(d *domain.AccessDecision) *DecisionResponse {
	return &DecisionResponse{
		Allowed:       d.Allowed,
		Reason:        string(d.Reason),
		AppointmentID: d.ReservationID,
		Emergency:     d.Emergency,
		GrantID:       d.GrantID,
		EvaluatedAt:   d.EvaluatedAt.UTC().Format(time.RFC3339),
	}
}
