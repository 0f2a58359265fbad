package models

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// Действия врача над приёмом
const (
	ActionConfirm  = "confirm"
	ActionStart    = "start"
	ActionComplete = "complete"
	ActionNoShow   = "no_show"
)

// CancelRequest запрос на отмену приёма
type CancelRequest struct {
	Actor  domain.Actor
	Reason *string
}

// TransitionRequest запрос врача на смену статуса приёма
type TransitionRequest struct {
	Actor  domain.Actor
	Action string
	Reason *string
}

// ListPatientRequest запрос истории приёмов пациента
type ListPatientRequest struct {
	Actor     domain.Actor
	PatientID int64
	Status    *string // Фильтр по статусу (опционально)
}

// ListProviderRequest запрос расписания врача за период
type ListProviderRequest struct {
	Actor      domain.Actor
	ProviderID int64
	From       time.Time // включительно
	To         time.Time // не включительно
}

// TargetStatus возвращает статус, в который переводит действие
func TargetStatus(action string) (domain.ReservationStatus, bool) {
	switch action {
	case ActionConfirm:
		return domain.StatusConfirmed, true
	case ActionStart:
		return domain.StatusInProgress, true
	case ActionComplete:
		return domain.StatusCompleted, true
	case ActionNoShow:
		return domain.StatusNoShow, true
	}
	return "", false
}

// ParseAppointmentStatus проверяет статус из фильтра
func ParseAppointmentStatus(s string) (domain.ReservationStatus, bool) {
	for _, status := range domain.AppointmentStatuses {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}
