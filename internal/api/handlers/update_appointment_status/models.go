package update_appointment_status

// UpdateStatusRequest HTTP request model
type UpdateStatusRequest struct {
	Action string  `json:"action"` // confirm, start, complete, no_show
	Reason *string `json:"reason,omitempty"`
}
