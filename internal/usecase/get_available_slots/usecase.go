package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// UseCase use case для получения слотов врача на дату
type UseCase struct {
	reservationRepo ReservationRepository
	templates       TemplateResolver
	cache           SlotCache
	metrics         Metrics
	slotMinutes     int
	group           singleflight.Group
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	templates TemplateResolver,
	cache SlotCache,
	metrics Metrics,
	slotMinutes int,
	logger Logger,
) *UseCase {
	if slotMinutes <= 0 {
		slotMinutes = domain.DefaultSlotMinutes
	}
	return &UseCase{
		reservationRepo: reservationRepo,
		templates:       templates,
		cache:           cache,
		metrics:         metrics,
		slotMinutes:     slotMinutes,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case получения слотов.
// Слоты берутся из кэша; при промахе генерируются из шаблона и занятых резерваций.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.DaySlots, error) {
	uc.logger.Info("GetAvailableSlots: provider=%d, date=%s", req.ProviderID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Шаблон врача определяет часовой пояс даты
	tpl, err := uc.templates.Resolve(ctx, req.ProviderID)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		uc.logger.Error("GetAvailableSlots: failed to resolve template for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to resolve template: %v", ErrInternal, err)
	}

	loc := tpl.Location()
	dayStart, dayEnd := domain.DayBounds(req.Date, loc)
	date := dayStart.Format(domain.DateFormat)

	// 4. Дата в прошлом не обслуживается
	todayStart, _ := domain.DayBounds(now.In(loc), loc)
	if dayStart.Before(todayStart) {
		uc.logger.Warn("GetAvailableSlots: date %s is in the past for provider=%d", date, req.ProviderID)
		return nil, domain.NewInvalidRangeError("date", "date is in the past")
	}

	// 5. Кэш
	cached, found, err := uc.cache.Get(ctx, req.ProviderID, date)
	switch {
	case err != nil:
		uc.metrics.IncSlotCache(cacheError)
		uc.logger.Warn("GetAvailableSlots: cache read failed for provider=%d date=%s: %v", req.ProviderID, date, err)
	case found:
		uc.metrics.IncSlotCache(cacheHit)
		return markElapsed(cached, now), nil
	default:
		uc.metrics.IncSlotCache(cacheMiss)
	}

	// 6. Генерация; одновременные промахи по одному ключу схлопываются
	key := fmt.Sprintf("%d:%s", req.ProviderID, date)
	v, err, _ := uc.group.Do(key, func() (interface{}, error) {
		return uc.generate(ctx, tpl, dayStart, dayEnd, now)
	})
	if err != nil {
		return nil, err
	}
	day := v.(*domain.DaySlots)

	uc.logger.Info("GetAvailableSlots: provider=%d date=%s, %d/%d slots available",
		req.ProviderID, date, day.AvailableCount(), len(day.Slots))

	return markElapsed(day, now), nil
}

// generate строит слоты на день и кладет их в кэш
func (uc *UseCase) generate(ctx context.Context, tpl *domain.WeeklyTemplate, dayStart, dayEnd, now time.Time) (*domain.DaySlots, error) {
	date := dayStart.Format(domain.DateFormat)

	// Отметка берется до чтения резерваций: если запись в БД инвалидирует дату
	// во время генерации, устаревший список не попадет в кэш
	stamp, err := uc.cache.Stamp(ctx, tpl.ProviderID, date)
	cacheable := err == nil
	if err != nil {
		uc.logger.Warn("GetAvailableSlots: cache stamp failed for provider=%d date=%s: %v", tpl.ProviderID, date, err)
	}

	reservations, err := uc.reservationRepo.List(ctx, domain.ReservationFilter{
		ProviderID: &tpl.ProviderID,
		From:       &dayStart,
		To:         &dayEnd,
		Statuses:   domain.OccupyingStatuses,
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list reservations for provider=%d: %v", tpl.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to list reservations: %v", ErrInternal, err)
	}

	day, err := domain.GenerateSlots(tpl, dayStart, reservations, uc.slotMinutes, now)
	if err != nil {
		return nil, err
	}

	if cacheable {
		stored, err := uc.cache.Set(ctx, tpl.ProviderID, day.Date, stamp, day)
		switch {
		case err != nil:
			uc.logger.Warn("GetAvailableSlots: cache write failed for provider=%d date=%s: %v", tpl.ProviderID, day.Date, err)
		case !stored:
			uc.logger.Info("GetAvailableSlots: provider=%d date=%s changed during generation, cache write skipped",
				tpl.ProviderID, day.Date)
		}
	}

	return day, nil
}

// markElapsed возвращает копию, в которой уже начавшиеся слоты помечены недоступными.
// Кэш хранит слоты без учета текущего времени.
func markElapsed(day *domain.DaySlots, now time.Time) *domain.DaySlots {
	result := *day
	result.Slots = make([]domain.Slot, len(day.Slots))
	for i, slot := range day.Slots {
		if !slot.Start.After(now) {
			slot.Available = false
		}
		result.Slots[i] = slot
	}
	return &result
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrAccessDenied)
}
