package get_patient_appointments

import (
	"net/http"

	"github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers"
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/middleware"
	"github.com/m04kA/Sahatak-SchedulingService/internal/service/appointments/models"
)

const (
	msgMissingActor     = "отсутствует аутентифицированный пользователь"
	msgInvalidPatientID = "некорректный ID пациента"
)

type Handler struct {
	service     AppointmentService
	slotMinutes int
	logger      Logger
}

func NewHandler(service AppointmentService, slotMinutes int, logger Logger) *Handler {
	return &Handler{
		service:     service,
		slotMinutes: slotMinutes,
		logger:      logger,
	}
}

// Handle GET /api/v1/patients/{patientId}/appointments
// Query params: status (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	patientID, err := handlers.PathID(r, "patientId")
	if err != nil {
		h.logger.Warn("GET /patients/{id}/appointments - Invalid patient ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPatientID)
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.logger.Warn("GET /patients/{id}/appointments - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	req := &models.ListPatientRequest{
		Actor:     actor,
		PatientID: patientID,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		req.Status = &status
	}

	list, err := h.service.ListPatientAppointments(r.Context(), req)
	if err != nil {
		if handlers.IsClientError(err) {
			h.logger.Warn("GET /patients/{id}/appointments - Rejected: patient_id=%d, actor=%d: %v", patientID, actor.ID, err)
		} else {
			h.logger.Error("GET /patients/{id}/appointments - Failed to list appointments: patient_id=%d, error=%v", patientID, err)
		}
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("GET /patients/{id}/appointments - Appointments retrieved successfully: patient_id=%d, count=%d",
		patientID, len(list))
	handlers.RespondJSON(w, http.StatusOK, handlers.FromReservations(list, h.slotMinutes))
}
