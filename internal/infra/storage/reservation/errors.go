package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrReservationNotFound возвращается, когда резервация не найдена
	ErrReservationNotFound = errors.New("reservation.repository: reservation not found")

	// ErrSlotTaken возвращается при нарушении уникального индекса занятых слотов
	ErrSlotTaken = errors.New("reservation.repository: slot already taken")

	// ErrStaleState возвращается, когда статус изменился между чтением и записью
	ErrStaleState = errors.New("reservation.repository: reservation status changed concurrently")

	// ErrLockUnavailable возвращается при конфликте сериализации, дедлоке или таймауте блокировки
	ErrLockUnavailable = errors.New("reservation.repository: slot lock unavailable")

	// ErrNoTransaction возвращается, если блокировка слота запрошена вне транзакции
	ErrNoTransaction = errors.New("reservation.repository: operation requires transaction")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reservation.repository: failed to scan row")
)

// Коды ошибок PostgreSQL
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
	pqQueryCanceled        = "57014"
)

// classify переводит ошибку драйвера в ошибку репозитория
func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s: %v", ErrSlotTaken, op, err)
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable, pqQueryCanceled:
			return fmt.Errorf("%w: %s: %v", ErrLockUnavailable, op, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %v", ErrLockUnavailable, op, err)
	}

	return fmt.Errorf("%w: %s: %v", ErrExecQuery, op, err)
}
