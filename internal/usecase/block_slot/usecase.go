package block_slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	reservationRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/reservation"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/txmanager"
)

// UseCase use case для блокировки времени врачом
type UseCase struct {
	reservationRepo ReservationRepository
	auditRepo       AuditRepository
	cache           SlotCache
	txManager       TransactionManager
	settings        Settings
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	auditRepo AuditRepository,
	cache SlotCache,
	txManager TransactionManager,
	settings Settings,
	logger Logger,
) *UseCase {
	if settings.SlotMinutes <= 0 {
		settings.SlotMinutes = domain.DefaultSlotMinutes
	}
	return &UseCase{
		reservationRepo: reservationRepo,
		auditRepo:       auditRepo,
		cache:           cache,
		txManager:       txManager,
		settings:        settings,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute создает блокировки на каждый слот интервала одной транзакцией.
// Если хотя бы один слот занят приёмом пациента, не создается ничего.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("BlockSlot: provider=%d, from=%s, to=%s, actor=%d (%s)", req.ProviderID,
		req.Start.UTC().Format(time.RFC3339), req.End.UTC().Format(time.RFC3339), req.Actor.ID, req.Actor.Role)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("BlockSlot: validation failed: %v", err)
		return nil, err
	}

	// 2. Блокировать время может только сам врач
	if !req.Actor.IsProvider(req.ProviderID) {
		uc.logger.Warn("BlockSlot: actor=%d (%s) is not provider=%d", req.Actor.ID, req.Actor.Role, req.ProviderID)
		return nil, domain.NewAccessDeniedError("only the provider can block their time")
	}

	// 3. Блокировать можно только будущее время
	now := uc.timeProvider.Now()
	if !req.Start.After(now) {
		return nil, domain.NewWindowError(domain.WindowNotInFuture, "blocked time must be in the future", nil)
	}

	instants := blockInstants(req.Start, req.End, uc.settings.SlotMinutes)
	length := time.Duration(uc.settings.SlotMinutes) * time.Minute

	lockCtx := ctx
	if uc.settings.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, uc.settings.LockTimeout)
		defer cancel()
	}

	result := &Response{Blocks: []*domain.Reservation{}, Skipped: []time.Time{}}

	// 4. Все слоты блокируются в одной транзакции, блокировки берутся по возрастанию времени
	err := uc.txManager.Do(lockCtx, func(txCtx context.Context) error {
		result.Blocks = result.Blocks[:0]
		result.Skipped = result.Skipped[:0]

		for _, instant := range instants {
			// 4.1. Блокировка пары (врач, время)
			if err := uc.reservationRepo.LockSlot(txCtx, req.ProviderID, instant); err != nil {
				return err
			}

			// 4.2. Проверка занятости
			occupying, err := uc.reservationRepo.FindOccupying(txCtx, req.ProviderID, instant, instant.Add(length), nil)
			if err != nil {
				return err
			}

			alreadyBlocked := false
			for _, occ := range occupying {
				if !occ.IsBlock() {
					return domain.ConflictFor(occ)
				}
				alreadyBlocked = true
			}
			if alreadyBlocked {
				result.Skipped = append(result.Skipped, instant)
				continue
			}

			// 4.3. Создаем блокировку
			block, err := uc.reservationRepo.Create(txCtx, &domain.Reservation{
				ProviderID:  req.ProviderID,
				ScheduledAt: instant,
				Modality:    domain.ModalityBlocked,
				Status:      domain.StatusBlocked,
				Reason:      req.Reason,
			})
			if err != nil {
				return err
			}

			// 4.4. Журнал переходов
			event := domain.NewTransitionEvent(block, req.Actor, nil, domain.StatusBlocked, req.Reason, nil)
			if err := uc.auditRepo.RecordTransition(txCtx, event); err != nil {
				return err
			}

			result.Blocks = append(result.Blocks, block)
		}
		return nil
	})

	if err != nil {
		return nil, uc.mapTxError(lockCtx, req, err)
	}

	uc.logger.Info("BlockSlot: provider=%d, created %d blocks, skipped %d already blocked",
		req.ProviderID, len(result.Blocks), len(result.Skipped))

	// 5. Сбрасываем кэш затронутых дат
	if len(result.Blocks) > 0 {
		for _, instant := range []time.Time{result.Blocks[0].ScheduledAt, result.Blocks[len(result.Blocks)-1].ScheduledAt} {
			if err := uc.cache.InvalidateInstant(ctx, req.ProviderID, instant); err != nil {
				uc.logger.Error("BlockSlot: failed to invalidate slot cache for provider=%d: %v", req.ProviderID, err)
			}
		}
	}

	return result, nil
}

// mapTxError приводит ошибки транзакции к доменной таксономии
func (uc *UseCase) mapTxError(lockCtx context.Context, req *Request, err error) error {
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		uc.logger.Warn("BlockSlot: %v", err)
		return err
	case errors.Is(err, reservationRepo.ErrSlotTaken):
		uc.logger.Warn("BlockSlot: slot of provider=%d taken concurrently", req.ProviderID)
		return domain.NewConflictError(domain.ConflictAlreadyBooked, req.ProviderID, req.Start)
	case errors.Is(err, reservationRepo.ErrLockUnavailable),
		errors.Is(err, txmanager.ErrSerializationFailure),
		lockCtx.Err() != nil:
		uc.logger.Warn("BlockSlot: slots of provider=%d busy: %v", req.ProviderID, err)
		return domain.NewConflictError(domain.ConflictSlotBusy, req.ProviderID, req.Start)
	default:
		uc.logger.Error("BlockSlot: transaction failed: %v", err)
		return fmt.Errorf("%w: failed to block slots: %v", ErrInternal, err)
	}
}
