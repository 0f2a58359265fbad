package block_slot

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// Request модель запроса на блокировку времени врачом
type Request struct {
	Actor      domain.Actor // Кто выполняет запрос
	ProviderID int64        // ID врача
	Start      time.Time    // Начало блокируемого интервала (включительно)
	End        time.Time    // Конец блокируемого интервала (не включительно)
	Reason     *string      // Причина (опционально)
}

// Response результат блокировки
type Response struct {
	Blocks  []*domain.Reservation // Созданные блокировки
	Skipped []time.Time           // Моменты, которые уже были заблокированы
}

// Settings параметры блокировки из конфигурации
type Settings struct {
	SlotMinutes int           // Шаг блокировки
	LockTimeout time.Duration // Ограничение времени на захват слотов
}
