package get_available_slots

import (
	"time"
)

// Request модель запроса на получение слотов врача
type Request struct {
	ProviderID int64     // ID врача
	Date       time.Time // Календарная дата в часовом поясе врача (используются только год, месяц, день)
}

// Исходы обращения к кэшу для метрик
const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)
