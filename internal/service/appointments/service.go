package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	reservationRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/reservation"
	"github.com/m04kA/Sahatak-SchedulingService/internal/service/appointments/models"
)

// Settings параметры жизненного цикла приёмов из конфигурации
type Settings struct {
	CancellationWindow time.Duration // Минимальное время до приёма, когда отмена еще разрешена
	SlotMinutes        int           // Длительность слота
}

// Service сервис жизненного цикла приёмов
type Service struct {
	reservationRepo ReservationRepository
	auditRepo       AuditRepository
	cache           SlotCache
	notifier        Notifier
	txManager       TransactionManager
	settings        Settings
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса приёмов
func NewService(
	reservationRepo ReservationRepository,
	auditRepo AuditRepository,
	cache SlotCache,
	notifier Notifier,
	txManager TransactionManager,
	settings Settings,
	logger Logger,
) *Service {
	if settings.SlotMinutes <= 0 {
		settings.SlotMinutes = domain.DefaultSlotMinutes
	}
	return &Service{
		reservationRepo: reservationRepo,
		auditRepo:       auditRepo,
		cache:           cache,
		notifier:        notifier,
		txManager:       txManager,
		settings:        settings,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// GetByID получает приём по ID.
// Видеть приём могут пациент, врач и администратор.
func (s *Service) GetByID(ctx context.Context, actor domain.Actor, id int64) (*domain.Reservation, error) {
	s.logger.Info("GetByID: fetching appointment id=%d for actor=%d (%s)", id, actor.ID, actor.Role)

	res, err := s.get(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if err := checkViewAccess(res, actor); err != nil {
		s.logger.Warn("GetByID: access denied for actor=%d (%s) to appointment id=%d", actor.ID, actor.Role, id)
		return nil, err
	}

	return res, nil
}

// GetHistory возвращает журнал переходов приёма
func (s *Service) GetHistory(ctx context.Context, actor domain.Actor, id int64) ([]*domain.TransitionEvent, error) {
	s.logger.Info("GetHistory: fetching events of appointment id=%d for actor=%d (%s)", id, actor.ID, actor.Role)

	res, err := s.get(ctx, "GetHistory", id)
	if err != nil {
		return nil, err
	}

	if err := checkViewAccess(res, actor); err != nil {
		s.logger.Warn("GetHistory: access denied for actor=%d (%s) to appointment id=%d", actor.ID, actor.Role, id)
		return nil, err
	}

	events, err := s.auditRepo.ListTransitions(ctx, id)
	if err != nil {
		s.logger.Error("GetHistory: repository error for appointment id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetHistory - repository error: %v", ErrInternal, err)
	}

	return events, nil
}

// ListPatientAppointments получает историю приёмов пациента, новые первыми.
// Опционально фильтрует по статусу.
func (s *Service) ListPatientAppointments(ctx context.Context, req *models.ListPatientRequest) ([]*domain.Reservation, error) {
	s.logger.Info("ListPatientAppointments: patient=%d, status=%v, actor=%d (%s)",
		req.PatientID, req.Status, req.Actor.ID, req.Actor.Role)

	if !req.Actor.IsPatient(req.PatientID) && !req.Actor.IsAdmin() {
		s.logger.Warn("ListPatientAppointments: access denied for actor=%d (%s)", req.Actor.ID, req.Actor.Role)
		return nil, domain.NewAccessDeniedError("patients can only list their own appointments")
	}

	filter := domain.ReservationFilter{
		PatientID:   &req.PatientID,
		NewestFirst: true,
	}
	if req.Status != nil {
		status, ok := models.ParseAppointmentStatus(*req.Status)
		if !ok {
			return nil, domain.NewValidationError("status", domain.CodeInvalidValue, "unknown appointment status")
		}
		filter.Statuses = []domain.ReservationStatus{status}
	}

	list, err := s.reservationRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListPatientAppointments: repository error for patient=%d: %v", req.PatientID, err)
		return nil, fmt.Errorf("%w: ListPatientAppointments - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListPatientAppointments: fetched %d appointments for patient=%d", len(list), req.PatientID)
	return list, nil
}

// ListProviderAppointments получает расписание врача за период, включая блокировки
func (s *Service) ListProviderAppointments(ctx context.Context, req *models.ListProviderRequest) ([]*domain.Reservation, error) {
	s.logger.Info("ListProviderAppointments: provider=%d, period=%s to %s, actor=%d (%s)", req.ProviderID,
		req.From.UTC().Format(time.RFC3339), req.To.UTC().Format(time.RFC3339), req.Actor.ID, req.Actor.Role)

	if !req.Actor.IsProvider(req.ProviderID) && !req.Actor.IsAdmin() {
		s.logger.Warn("ListProviderAppointments: access denied for actor=%d (%s)", req.Actor.ID, req.Actor.Role)
		return nil, domain.NewAccessDeniedError("providers can only list their own agenda")
	}

	if req.From.IsZero() || req.To.IsZero() {
		return nil, domain.NewValidationError("from", domain.CodeRequired, "from and to are required")
	}
	if !req.From.Before(req.To) {
		return nil, domain.NewInvalidRangeError("to", "to must be after from")
	}
	if req.To.Sub(req.From) > domain.MaxProviderAgendaRange {
		return nil, domain.NewInvalidRangeError("to", "period is too long")
	}

	list, err := s.reservationRepo.List(ctx, domain.ReservationFilter{
		ProviderID: &req.ProviderID,
		From:       &req.From,
		To:         &req.To,
	})
	if err != nil {
		s.logger.Error("ListProviderAppointments: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: ListProviderAppointments - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListProviderAppointments: fetched %d reservations for provider=%d", len(list), req.ProviderID)
	return list, nil
}

// Cancel отменяет приём.
// Отменить может только записавшийся пациент и только раньше, чем за окно отмены до начала.
func (s *Service) Cancel(ctx context.Context, id int64, req *models.CancelRequest) (*domain.Reservation, error) {
	s.logger.Info("Cancel: cancelling appointment id=%d by actor=%d (%s)", id, req.Actor.ID, req.Actor.Role)

	if req.Reason != nil && len(*req.Reason) > domain.MaxReasonLength {
		return nil, domain.NewValidationError("reason", domain.CodeTooLong, "reason is too long")
	}

	// Получаем приём
	res, err := s.get(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}

	// Проверяем владельца
	if res.IsBlock() || !req.Actor.IsPatient(*res.PatientID) {
		s.logger.Warn("Cancel: actor=%d (%s) is not the patient of appointment id=%d", req.Actor.ID, req.Actor.Role, id)
		return nil, domain.NewAccessDeniedError("only the booking patient can cancel the appointment")
	}

	// Проверяем статус
	if !res.CanBeCancelled() {
		s.logger.Warn("Cancel: appointment id=%d cannot be cancelled, status=%s", id, res.Status)
		return nil, domain.NewInvalidStatusError(res.Status, domain.StatusCancelled)
	}

	// Проверяем окно отмены
	now := s.timeProvider.Now()
	if res.ScheduledAt.Sub(now) <= s.settings.CancellationWindow {
		deadline := res.ScheduledAt.Add(-s.settings.CancellationWindow)
		s.logger.Warn("Cancel: appointment id=%d is inside the cancellation window (deadline %s)",
			id, deadline.UTC().Format(time.RFC3339))
		return nil, domain.NewWindowError(domain.WindowCancellation, "appointment can no longer be cancelled", &deadline)
	}

	var cancelled *domain.Reservation
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		updated, err := s.reservationRepo.Cancel(txCtx, id, res.Status, req.Reason)
		if err != nil {
			return err
		}

		event := domain.NewTransitionEvent(updated, req.Actor, &res.Status, domain.StatusCancelled, req.Reason, nil)
		if err := s.auditRepo.RecordTransition(txCtx, event); err != nil {
			return err
		}

		cancelled = updated
		return nil
	})
	if err != nil {
		return nil, s.mapWriteError("Cancel", res, err)
	}

	s.logger.Info("Cancel: successfully cancelled appointment id=%d", id)

	s.invalidate(ctx, "Cancel", cancelled)
	s.notifier.AppointmentCancelled(ctx, cancelled)

	return cancelled, nil
}

// Transition выполняет действие врача над приёмом: confirm, start, complete, no_show
func (s *Service) Transition(ctx context.Context, id int64, req *models.TransitionRequest) (*domain.Reservation, error) {
	s.logger.Info("Transition: appointment id=%d, action=%s by actor=%d (%s)", id, req.Action, req.Actor.ID, req.Actor.Role)

	target, ok := models.TargetStatus(req.Action)
	if !ok {
		return nil, domain.NewValidationError("action", domain.CodeInvalidValue, "unknown action")
	}

	res, err := s.get(ctx, "Transition", id)
	if err != nil {
		return nil, err
	}

	// Менять статус может только врач приёма
	if !req.Actor.IsProvider(res.ProviderID) {
		s.logger.Warn("Transition: actor=%d (%s) is not the provider of appointment id=%d", req.Actor.ID, req.Actor.Role, id)
		return nil, domain.NewAccessDeniedError("only the provider can change the appointment status")
	}

	if !domain.CanTransition(res.Status, target) || res.IsBlock() {
		s.logger.Warn("Transition: appointment id=%d, %s -> %s is not allowed", id, res.Status, target)
		return nil, domain.NewInvalidStatusError(res.Status, target)
	}

	// Неявку можно отметить только после начала приёма
	now := s.timeProvider.Now()
	if target == domain.StatusNoShow && !now.After(res.ScheduledAt) {
		start := res.ScheduledAt
		return nil, domain.NewWindowError(domain.WindowNotYetStarted, "appointment has not started yet", &start)
	}

	updated, err := s.transition(ctx, res, target, req.Actor, req.Reason, nil)
	if err != nil {
		return nil, s.mapWriteError("Transition", res, err)
	}

	s.logger.Info("Transition: appointment id=%d moved %s -> %s", id, res.Status, target)
	s.invalidate(ctx, "Transition", updated)

	return updated, nil
}

// Unblock удаляет блокировку врача
func (s *Service) Unblock(ctx context.Context, actor domain.Actor, providerID, blockID int64) error {
	s.logger.Info("Unblock: block id=%d of provider=%d by actor=%d (%s)", blockID, providerID, actor.ID, actor.Role)

	if !actor.IsProvider(providerID) {
		s.logger.Warn("Unblock: actor=%d (%s) is not provider=%d", actor.ID, actor.Role, providerID)
		return domain.NewAccessDeniedError("only the provider can remove their blocks")
	}

	var deleted *domain.Reservation
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		block, err := s.reservationRepo.DeleteBlock(txCtx, blockID, providerID)
		if err != nil {
			return err
		}

		from := domain.StatusBlocked
		event := domain.NewTransitionEvent(block, actor, &from, domain.StatusDeleted, nil, map[string]any{
			"scheduled_at": block.ScheduledAt.UTC().Format(time.RFC3339),
		})
		if err := s.auditRepo.RecordTransition(txCtx, event); err != nil {
			return err
		}

		deleted = block
		return nil
	})
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("Unblock: block id=%d of provider=%d not found", blockID, providerID)
			return domain.NewNotFoundError("block", blockID)
		}
		s.logger.Error("Unblock: failed to delete block id=%d: %v", blockID, err)
		return fmt.Errorf("%w: Unblock - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Unblock: successfully removed block id=%d", blockID)
	s.invalidate(ctx, "Unblock", deleted)

	return nil
}

// MarkNoShows переводит в no_show приёмы, слот которых закончился раньше, чем grace назад.
// Возвращает количество отмеченных приёмов.
func (s *Service) MarkNoShows(ctx context.Context, grace time.Duration) (int, error) {
	now := s.timeProvider.Now()
	cutoff := now.Add(-grace - time.Duration(s.settings.SlotMinutes)*time.Minute)

	overdue, err := s.reservationRepo.List(ctx, domain.ReservationFilter{
		To:       &cutoff,
		Statuses: []domain.ReservationStatus{domain.StatusScheduled, domain.StatusConfirmed},
	})
	if err != nil {
		s.logger.Error("MarkNoShows: repository error: %v", err)
		return 0, fmt.Errorf("%w: MarkNoShows - repository error: %v", ErrInternal, err)
	}

	marked := 0
	for _, res := range overdue {
		updated, err := s.transition(ctx, res, domain.StatusNoShow, domain.SystemActor(), nil, map[string]any{
			"grace_minutes": int(grace.Minutes()),
		})
		if err != nil {
			if errors.Is(err, reservationRepo.ErrStaleState) {
				continue
			}
			s.logger.Error("MarkNoShows: failed to mark appointment id=%d: %v", res.ID, err)
			continue
		}
		s.invalidate(ctx, "MarkNoShows", updated)
		marked++
	}

	if marked > 0 {
		s.logger.Info("MarkNoShows: marked %d appointments as no_show", marked)
	}
	return marked, nil
}

// Вспомогательные методы

func (s *Service) get(ctx context.Context, op string, id int64) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("%s: appointment id=%d not found", op, id)
			return nil, domain.NewNotFoundError("appointment", id)
		}
		s.logger.Error("%s: repository error for appointment id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return res, nil
}

// transition меняет статус и пишет журнал в одной транзакции
func (s *Service) transition(
	ctx context.Context,
	res *domain.Reservation,
	to domain.ReservationStatus,
	actor domain.Actor,
	reason *string,
	metadata map[string]any,
) (*domain.Reservation, error) {
	var updated *domain.Reservation
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.reservationRepo.UpdateStatus(txCtx, res.ID, res.Status, to)
		if err != nil {
			return err
		}

		event := domain.NewTransitionEvent(updated, actor, &res.Status, to, reason, metadata)
		return s.auditRepo.RecordTransition(txCtx, event)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) mapWriteError(op string, res *domain.Reservation, err error) error {
	if errors.Is(err, reservationRepo.ErrStaleState) {
		s.logger.Warn("%s: appointment id=%d changed concurrently", op, res.ID)
		return domain.NewConflictError(domain.ConflictStaleState, res.ProviderID, res.ScheduledAt)
	}
	s.logger.Error("%s: failed to update appointment id=%d: %v", op, res.ID, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func (s *Service) invalidate(ctx context.Context, op string, res *domain.Reservation) {
	if err := s.cache.InvalidateInstant(ctx, res.ProviderID, res.ScheduledAt); err != nil {
		s.logger.Error("%s: failed to invalidate slot cache for provider=%d: %v", op, res.ProviderID, err)
	}
}

// checkViewAccess проверяет, что актор участвует в приёме или является администратором
func checkViewAccess(res *domain.Reservation, actor domain.Actor) error {
	if actor.IsAdmin() || actor.IsProvider(res.ProviderID) {
		return nil
	}
	if res.PatientID != nil && actor.IsPatient(*res.PatientID) {
		return nil
	}
	return domain.NewAccessDeniedError("actor is not a participant of the appointment")
}
