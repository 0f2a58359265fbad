package reschedule_appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	reservationRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/reservation"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/txmanager"
)

// UseCase use case для переноса приёма на другое время
type UseCase struct {
	reservationRepo ReservationRepository
	auditRepo       AuditRepository
	templates       TemplateResolver
	cache           SlotCache
	notifier        Notifier
	txManager       TransactionManager
	metrics         Metrics
	settings        Settings
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	auditRepo AuditRepository,
	templates TemplateResolver,
	cache SlotCache,
	notifier Notifier,
	txManager TransactionManager,
	metrics Metrics,
	settings Settings,
	logger Logger,
) *UseCase {
	if settings.SlotMinutes <= 0 {
		settings.SlotMinutes = domain.DefaultSlotMinutes
	}
	return &UseCase{
		reservationRepo: reservationRepo,
		auditRepo:       auditRepo,
		templates:       templates,
		cache:           cache,
		notifier:        notifier,
		txManager:       txManager,
		metrics:         metrics,
		settings:        settings,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет перенос приёма. Новое время проходит ту же проверку занятости, что и запись,
// без учета самого переносимого приёма. Запись обновляется на месте, статус сбрасывается в scheduled.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.Reservation, error) {
	uc.logger.Info("RescheduleAppointment: id=%d, to=%s, actor=%d (%s)",
		req.AppointmentID, req.ScheduledAt.UTC().Format(time.RFC3339), req.Actor.ID, req.Actor.Role)

	result, err := uc.execute(ctx, req)
	uc.metrics.IncBooking(outcome(err))
	return result, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*domain.Reservation, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RescheduleAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Текущее состояние приёма
	current, err := uc.reservationRepo.GetByID(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Warn("RescheduleAppointment: appointment id=%d not found", req.AppointmentID)
			return nil, domain.NewNotFoundError("appointment", req.AppointmentID)
		}
		uc.logger.Error("RescheduleAppointment: failed to get appointment id=%d: %v", req.AppointmentID, err)
		return nil, fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
	}

	// 4. Владелец, статус и окно переноса
	if err := checkReschedulable(current, req.Actor, now, uc.settings.NoticeWindow); err != nil {
		uc.logger.Warn("RescheduleAppointment: id=%d rejected: %v", req.AppointmentID, err)
		return nil, err
	}

	if current.ScheduledAt.Equal(req.ScheduledAt) {
		return nil, domain.NewValidationError("scheduled_at", domain.CodeInvalidValue, "appointment is already at this time")
	}

	// 5. Новое время должно быть началом слота врача
	tpl, err := uc.templates.Resolve(ctx, current.ProviderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		uc.logger.Error("RescheduleAppointment: failed to resolve template for provider=%d: %v", current.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to resolve template: %v", ErrInternal, err)
	}

	slot, err := domain.ResolveSlot(tpl, req.ScheduledAt, uc.settings.SlotMinutes, now)
	if err != nil {
		uc.logger.Warn("RescheduleAppointment: target slot rejected: %v", err)
		return nil, err
	}

	lockCtx := ctx
	if uc.settings.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, uc.settings.LockTimeout)
		defer cancel()
	}

	var (
		result   *domain.Reservation
		previous time.Time
	)

	// 6. Перенос в транзакции read committed под блокировкой нового слота
	err = uc.txManager.Do(lockCtx, func(txCtx context.Context) error {
		// 6.1. Блокировка пары (врач, новое время)
		if err := uc.reservationRepo.LockSlot(txCtx, current.ProviderID, slot.Start); err != nil {
			return err
		}

		// 6.2. Перечитываем приём под блокировкой строки
		locked, err := uc.reservationRepo.GetByIDForUpdate(txCtx, req.AppointmentID)
		if err != nil {
			return err
		}
		if err := checkReschedulable(locked, req.Actor, now, uc.settings.NoticeWindow); err != nil {
			return err
		}

		// 6.3. Новое время не должно быть занято другими резервациями
		occupying, err := uc.reservationRepo.FindOccupying(txCtx, locked.ProviderID, slot.Start, slot.End, &locked.ID)
		if err != nil {
			return err
		}
		if len(occupying) > 0 {
			return domain.ConflictFor(occupying[0])
		}

		// 6.4. Обновляем время на месте
		updated, err := uc.reservationRepo.Reschedule(txCtx, locked.ID, locked.Status, slot.Start.UTC())
		if err != nil {
			return err
		}

		// 6.5. Журнал переходов
		event := domain.NewTransitionEvent(updated, req.Actor, &locked.Status, domain.StatusScheduled, nil, map[string]any{
			"previous_scheduled_at": locked.ScheduledAt.UTC().Format(time.RFC3339),
			"scheduled_at":          updated.ScheduledAt.UTC().Format(time.RFC3339),
		})
		if err := uc.auditRepo.RecordTransition(txCtx, event); err != nil {
			return err
		}

		previous = locked.ScheduledAt
		result = updated
		return nil
	})

	if err != nil {
		return nil, uc.mapTxError(lockCtx, current, slot.Start, err)
	}

	uc.logger.Info("RescheduleAppointment: appointment id=%d moved from %s to %s",
		result.ID, previous.UTC().Format(time.RFC3339), result.ScheduledAt.UTC().Format(time.RFC3339))

	// 7. Сбрасываем кэш старой и новой даты
	for _, instant := range []time.Time{previous, result.ScheduledAt} {
		if err := uc.cache.InvalidateInstant(ctx, result.ProviderID, instant); err != nil {
			uc.logger.Error("RescheduleAppointment: failed to invalidate slot cache for provider=%d: %v", result.ProviderID, err)
		}
	}

	// 8. Уведомление (fire-and-forget)
	uc.notifier.AppointmentRescheduled(ctx, result, previous)

	return result, nil
}

// mapTxError приводит ошибки транзакции к доменной таксономии
func (uc *UseCase) mapTxError(lockCtx context.Context, current *domain.Reservation, instant time.Time, err error) error {
	switch {
	case isDomainError(err):
		uc.logger.Warn("RescheduleAppointment: %v", err)
		return err
	case errors.Is(err, reservationRepo.ErrReservationNotFound):
		return domain.NewNotFoundError("appointment", current.ID)
	case errors.Is(err, reservationRepo.ErrStaleState):
		uc.logger.Warn("RescheduleAppointment: appointment id=%d changed concurrently", current.ID)
		return domain.NewConflictError(domain.ConflictStaleState, current.ProviderID, instant)
	case errors.Is(err, reservationRepo.ErrSlotTaken):
		uc.logger.Warn("RescheduleAppointment: slot provider=%d at %s taken concurrently", current.ProviderID, instant.UTC())
		return domain.NewConflictError(domain.ConflictAlreadyBooked, current.ProviderID, instant)
	case errors.Is(err, reservationRepo.ErrLockUnavailable),
		errors.Is(err, txmanager.ErrSerializationFailure),
		lockCtx.Err() != nil:
		uc.logger.Warn("RescheduleAppointment: slot provider=%d at %s busy: %v", current.ProviderID, instant.UTC(), err)
		return domain.NewConflictError(domain.ConflictSlotBusy, current.ProviderID, instant)
	default:
		uc.logger.Error("RescheduleAppointment: transaction failed: %v", err)
		return fmt.Errorf("%w: failed to reschedule appointment: %v", ErrInternal, err)
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrWindow) ||
		errors.Is(err, domain.ErrAccessDenied) ||
		errors.Is(err, domain.ErrValidation)
}

// outcome возвращает метку метрики для результата переноса
func outcome(err error) string {
	switch {
	case err == nil:
		return resultRescheduled
	case errors.Is(err, domain.ErrConflict):
		return resultConflict
	case errors.Is(err, ErrInternal):
		return resultError
	default:
		return resultRejected
	}
}
