package unblock_slot

import (
	"context"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

type AppointmentService interface {
	Unblock(ctx context.Context, actor domain.Actor, providerID, blockID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
