package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// AppointmentResponse HTTP модель резервации (приём или блокировка)
type AppointmentResponse struct {
	ID                 int64   `json:"id"`
	ProviderID         int64   `json:"providerId"`
	PatientID          *int64  `json:"patientId,omitempty"`
	ScheduledAt        string  `json:"scheduledAt"`
	EndsAt             string  `json:"endsAt"`
	Modality           string  `json:"modality"`
	Status             string  `json:"status"`
	Fee                float64 `json:"fee"`
	Reason             *string `json:"reason,omitempty"`
	Notes              *string `json:"notes,omitempty"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// AppointmentListResponse список резерваций
type AppointmentListResponse struct {
	Appointments []*AppointmentResponse `json:"appointments"`
	Total        int                    `json:"total"`
}

// FromReservation конвертирует доменную резервацию в HTTP модель
func FromReservation(r *domain.Reservation, slotMinutes int) *AppointmentResponse {
	resp := &AppointmentResponse{
		ID:                 r.ID,
		ProviderID:         r.ProviderID,
		PatientID:          r.PatientID,
		ScheduledAt:        r.ScheduledAt.UTC().Format(time.RFC3339),
		EndsAt:             r.EndsAt(slotMinutes).UTC().Format(time.RFC3339),
		Modality:           string(r.Modality),
		Status:             string(r.Status),
		Fee:                r.Fee,
		Reason:             r.Reason,
		Notes:              r.Notes,
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          r.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if r.CancelledAt != nil {
		cancelledAt := r.CancelledAt.UTC().Format(time.RFC3339)
		resp.CancelledAt = &cancelledAt
	}
	return resp
}

// FromReservations конвертирует список резерваций
func FromReservations(list []*domain.Reservation, slotMinutes int) *AppointmentListResponse {
	resp := &AppointmentListResponse{
		Appointments: make([]*AppointmentResponse, 0, len(list)),
		Total:        len(list),
	}
	for _, r := range list {
		resp.Appointments = append(resp.Appointments, FromReservation(r, slotMinutes))
	}
	return resp
}

// PathID извлекает положительный int64 параметр пути
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}

// ParseInstant разбирает момент времени в формате RFC3339
func ParseInstant(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
