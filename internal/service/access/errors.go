package access

import "errors"

var (
	// ErrAuditUnavailable возвращается, если решение не удалось записать в журнал доступа.
	// Без записи в журнал доступ не выдается.
	ErrAuditUnavailable = errors.New("access.service: access audit unavailable")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("access.service: internal error")
)
