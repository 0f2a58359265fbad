package evaluate_access

import (
	"context"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/internal/service/access"
)

type AccessService interface {
	Evaluate(ctx context.Context, req *access.EvaluateRequest) (*domain.AccessDecision, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
