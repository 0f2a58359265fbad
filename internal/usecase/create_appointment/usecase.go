package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	reservationRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/reservation"
	scheduleRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/schedule"
	"github.com/m04kA/Sahatak-SchedulingService/internal/integrations/providerservice"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/txmanager"
)

// UseCase use case для записи пациента к врачу
type UseCase struct {
	reservationRepo ReservationRepository
	auditRepo       AuditRepository
	templateRepo    TemplateRepository
	providerClient  ProviderClient
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
	templateRepo TemplateRepository,
	providerClient ProviderClient,
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
		templateRepo:    templateRepo,
		providerClient:  providerClient,
		cache:           cache,
		notifier:        notifier,
		txManager:       txManager,
		metrics:         metrics,
		settings:        settings,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case записи к врачу.
// Проверка занятости и вставка выполняются в одной транзакции (read committed) под блокировкой слота.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.Reservation, error) {
	uc.logger.Info("CreateAppointment: provider=%d, patient=%d, at=%s, modality=%s, actor=%d (%s)",
		req.ProviderID, req.PatientID, req.ScheduledAt.UTC().Format(time.RFC3339),
		req.Modality, req.Actor.ID, req.Actor.Role)

	result, err := uc.execute(ctx, req)
	uc.metrics.IncBooking(outcome(err))
	return result, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*domain.Reservation, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Проверка прав
	if err := authorize(req); err != nil {
		uc.logger.Warn("CreateAppointment: actor=%d (%s) tried to book for patient=%d",
			req.Actor.ID, req.Actor.Role, req.PatientID)
		return nil, err
	}

	// 3. Получаем текущее время
	now := uc.timeProvider.Now()

	// 4. Профиль врача (стоимость, часовой пояс) запрашиваем до открытия транзакции
	profile, err := uc.providerClient.GetProfile(ctx, req.ProviderID)
	if err != nil {
		if providerservice.IsNotFound(err) {
			uc.logger.Warn("CreateAppointment: provider id=%d not found", req.ProviderID)
			return nil, domain.NewNotFoundError("provider", req.ProviderID)
		}
		uc.logger.Error("CreateAppointment: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider profile: %v", ErrInternal, err)
	}

	// 5. Недельный шаблон врача
	tpl, err := uc.templateRepo.GetByProviderID(ctx, req.ProviderID)
	if err != nil && !errors.Is(err, scheduleRepo.ErrTemplateNotFound) {
		uc.logger.Error("CreateAppointment: failed to get template for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get weekly template: %v", ErrInternal, err)
	}

	// Если шаблон не настроен, используем дефолтный с часовым поясом врача
	if tpl == nil {
		tpl = domain.DefaultWeeklyTemplate(req.ProviderID, profile.Timezone)
		uc.logger.Info("CreateAppointment: using default template for provider=%d (timezone=%s)",
			req.ProviderID, profile.Timezone)
	}

	// 6. Время должно быть в будущем и совпадать с началом слота
	slot, err := domain.ResolveSlot(tpl, req.ScheduledAt, uc.settings.SlotMinutes, now)
	if err != nil {
		uc.logger.Warn("CreateAppointment: slot rejected: %v", err)
		return nil, err
	}

	lockCtx := ctx
	if uc.settings.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, uc.settings.LockTimeout)
		defer cancel()
	}

	// Переменная для хранения результата
	var result *domain.Reservation

	// 7. Проверка занятости и вставка в транзакции read committed:
	// после ожидания блокировки каждый запрос видит уже зафиксированные строки конкурента
	err = uc.txManager.Do(lockCtx, func(txCtx context.Context) error {
		// 7.1. Блокировка пары (врач, время)
		if err := uc.reservationRepo.LockSlot(txCtx, req.ProviderID, slot.Start); err != nil {
			return err
		}

		// 7.2. Повторная проверка занятости под блокировкой (FOR UPDATE)
		occupying, err := uc.reservationRepo.FindOccupying(txCtx, req.ProviderID, slot.Start, slot.End, nil)
		if err != nil {
			return err
		}
		if len(occupying) > 0 {
			return domain.ConflictFor(occupying[0])
		}

		// 7.3. Создаем запись
		created, err := uc.reservationRepo.Create(txCtx, &domain.Reservation{
			ProviderID:  req.ProviderID,
			PatientID:   &req.PatientID,
			ScheduledAt: slot.Start.UTC(),
			Modality:    req.Modality,
			Status:      domain.StatusScheduled,
			Fee:         profile.ConsultationFee,
			Reason:      req.Reason,
			Notes:       req.Notes,
		})
		if err != nil {
			return err
		}

		// 7.4. Запись в журнал переходов в той же транзакции
		event := domain.NewTransitionEvent(created, req.Actor, nil, domain.StatusScheduled, req.Reason, map[string]any{
			"modality": string(created.Modality),
			"fee":      created.Fee,
		})
		if err := uc.auditRepo.RecordTransition(txCtx, event); err != nil {
			return err
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, uc.mapTxError(lockCtx, req, slot.Start, err)
	}

	uc.logger.Info("CreateAppointment: successfully created appointment id=%d", result.ID)

	// 8. Сбрасываем кэш слотов после коммита
	if err := uc.cache.InvalidateInstant(ctx, result.ProviderID, result.ScheduledAt); err != nil {
		uc.logger.Error("CreateAppointment: failed to invalidate slot cache for provider=%d: %v", result.ProviderID, err)
	}

	// 9. Уведомление (fire-and-forget)
	uc.notifier.AppointmentCreated(ctx, result)

	return result, nil
}

// mapTxError приводит ошибки транзакции к доменной таксономии
func (uc *UseCase) mapTxError(lockCtx context.Context, req *Request, instant time.Time, err error) error {
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		uc.logger.Warn("CreateAppointment: %v", err)
		return err
	case errors.Is(err, reservationRepo.ErrSlotTaken):
		uc.logger.Warn("CreateAppointment: slot provider=%d at %s taken concurrently", req.ProviderID, instant.UTC())
		return domain.NewConflictError(domain.ConflictAlreadyBooked, req.ProviderID, instant)
	case errors.Is(err, reservationRepo.ErrLockUnavailable),
		errors.Is(err, txmanager.ErrSerializationFailure),
		lockCtx.Err() != nil:
		uc.logger.Warn("CreateAppointment: slot provider=%d at %s busy: %v", req.ProviderID, instant.UTC(), err)
		return domain.NewConflictError(domain.ConflictSlotBusy, req.ProviderID, instant)
	default:
		uc.logger.Error("CreateAppointment: transaction failed: %v", err)
		return fmt.Errorf("%w: failed to create appointment: %v", ErrInternal, err)
	}
}

// outcome возвращает метку метрики для результата бронирования
func outcome(err error) string {
	switch {
	case err == nil:
		return resultCreated
	case errors.Is(err, domain.ErrConflict):
		return resultConflict
	case errors.Is(err, ErrInternal):
		return resultError
	default:
		return resultRejected
	}
}
