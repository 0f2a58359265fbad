package providerservice

import "errors"

var (
	// ErrProviderNotFound возвращается, когда врач не найден в ProviderService
	ErrProviderNotFound = errors.New("providerservice client: provider not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("providerservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("providerservice client: invalid response")

	// ErrServiceUnavailable возвращается, когда ProviderService недоступен (сеть, таймаут, 5xx)
	ErrServiceUnavailable = errors.New("providerservice client: service unavailable")
)
