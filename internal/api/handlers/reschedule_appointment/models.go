package reschedule_appointment

// RescheduleRequest HTTP request model
type RescheduleRequest struct {
	ScheduledAt string `json:"scheduledAt"` // RFC3339
}
