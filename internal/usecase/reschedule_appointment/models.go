package reschedule_appointment

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// Request модель запроса на перенос приёма
type Request struct {
	Actor         domain.Actor // Кто выполняет запрос
	AppointmentID int64        // ID приёма
	ScheduledAt   time.Time    // Новое время начала
}

// Settings параметры переноса из конфигурации
type Settings struct {
	SlotMinutes  int           // Длительность слота
	NoticeWindow time.Duration // Минимальное время до приёма, когда перенос еще разрешен
	LockTimeout  time.Duration // Ограничение времени на захват слота
}

// Исходы для метрик бронирования
const (
	resultRescheduled = "rescheduled"
	resultConflict    = "conflict"
	resultRejected    = "rejected"
	resultError       = "error"
)
