package create_appointment

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// Request модель запроса на запись к врачу
type Request struct {
	Actor       domain.Actor    // Кто выполняет запрос
	ProviderID  int64           // ID врача
	PatientID   int64           // ID пациента
	ScheduledAt time.Time       // Начало слота
	Modality    domain.Modality // Формат консультации
	Reason      *string         // Причина обращения (опционально)
	Notes       *string         // Заметки (опционально)
}

// Settings параметры бронирования из конфигурации
type Settings struct {
	SlotMinutes int           // Длительность слота
	LockTimeout time.Duration // Ограничение времени на захват слота
}

// Исходы бронирования для метрик
const (
	resultCreated  = "created"
	resultConflict = "conflict"
	resultRejected = "rejected"
	resultError    = "error"
)
