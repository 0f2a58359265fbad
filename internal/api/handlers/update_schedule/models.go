package update_schedule

import (
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
)

// UpdateScheduleRequest HTTP request model
type UpdateScheduleRequest struct {
	Timezone string                             `json:"timezone"`
	Days     map[string]handlers.DayScheduleDTO `json:"days"`
}
