package authorize_emergency

import (
	"context"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/internal/service/access"
)

type AccessService interface {
	AuthorizeEmergency(ctx context.Context, actor domain.Actor, justification string) (*access.EmergencyGrant, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
