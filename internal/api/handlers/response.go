package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

const (
	msgInternalError = "внутренняя ошибка сервера"
	msgForbidden     = "доступ запрещен"
)

// Коды ошибок в теле ответа для ошибок без доменной детализации
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal_error"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Code     string  `json:"code"`
	Field    string  `json:"field,omitempty"`
	Reason   string  `json:"reason,omitempty"`
	Deadline *string `json:"deadline,omitempty"`
	Message  string  `json:"message"`
}

// RespondJSON отправляет JSON ответ
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// RespondError отправляет ошибку с кодом по HTTP статусу
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Code: codeForStatus(status), Message: message})
}

// RespondBadRequest отправляет 400
func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

// RespondUnauthorized отправляет 401
func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, message)
}

// RespondForbidden отправляет 403
func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

// RespondNotFound отправляет 404
func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

// RespondInternalError отправляет 500 без деталей
func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// RespondDomainError переводит ошибку сервиса в HTTP ответ.
// Внутренние ошибки наружу не отдаются.
func RespondDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		conflictErr   *domain.ConflictError
		windowErr     *domain.WindowError
		notFoundErr   *domain.NotFoundError
		accessErr     *domain.AccessDeniedError
	)

	switch {
	case errors.As(err, &validationErr):
		RespondJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    validationErr.Code,
			Field:   validationErr.Field,
			Message: validationErr.Message,
		})

	case errors.As(err, &conflictErr):
		RespondJSON(w, http.StatusConflict, ErrorResponse{
			Code:    "conflict",
			Reason:  string(conflictErr.Reason),
			Message: conflictErr.Error(),
		})

	case errors.As(err, &windowErr):
		resp := ErrorResponse{
			Code:    windowErr.Code,
			Message: windowErr.Message,
		}
		if windowErr.Deadline != nil {
			deadline := windowErr.Deadline.UTC().Format(time.RFC3339)
			resp.Deadline = &deadline
		}
		RespondJSON(w, http.StatusUnprocessableEntity, resp)

	case errors.As(err, &notFoundErr):
		RespondJSON(w, http.StatusNotFound, ErrorResponse{
			Code:    CodeNotFound,
			Field:   notFoundErr.Entity,
			Message: notFoundErr.Error(),
		})

	case errors.As(err, &accessErr):
		RespondJSON(w, http.StatusForbidden, ErrorResponse{
			Code:    CodeForbidden,
			Reason:  accessErr.Reason,
			Message: msgForbidden,
		})

	default:
		RespondInternalError(w)
	}
}

// IsClientError true для ошибок, вызванных запросом клиента (4xx)
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrWindow) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrAccessDenied)
}

// DecodeJSON декодирует тело запроса, неизвестные поля запрещены
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusServiceUnavailable:
		return CodeUnavailable
	default:
		return CodeInternal
	}
}
