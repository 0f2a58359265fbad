package access

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// EvaluateRequest запрос на проверку доступа врача к медкарте пациента
type EvaluateRequest struct {
	Actor     domain.Actor
	PatientID int64
	// ProviderID врач, от имени которого проверяется доступ.
	// Администратор обязан его указать, врач проверяет только собственный доступ.
	ProviderID *int64
	GrantID    *string // ID экстренного допуска (опционально)
}

// EmergencyGrant экстренный допуск к медкартам, выданный конкретному актору на короткое время
type EmergencyGrant struct {
	ID            string
	ActorID       int64
	ActorRole     domain.Role
	Justification string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// Settings параметры политики доступа из конфигурации
type Settings struct {
	Windows       domain.AccessWindows
	GrantTTL      time.Duration
	GrantsPerHour int
}

// Исходы решений для метрик
const (
	outcomeGranted   = "granted"
	outcomeDenied    = "denied"
	outcomeEmergency = "emergency"
)
