package authorize_emergency

import (
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/service/access"
)

// EmergencyRequest HTTP request model
type EmergencyRequest struct {
	Justification string `json:"justification"`
}

// GrantResponse HTTP модель экстренного допуска
type GrantResponse struct {
	GrantID   string `json:"grantId"`
	IssuedAt  string `json:"issuedAt"`
	ExpiresAt string `json:"expiresAt"`
}

// FromGrant конвертирует допуск в HTTP модель
func FromGrant(g *access.EmergencyGrant) *GrantResponse {
	return &GrantResponse{
		GrantID:   g.ID,
		IssuedAt:  g.IssuedAt.UTC().Format(time.RFC3339),
		ExpiresAt: g.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
