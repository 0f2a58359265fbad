package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	scheduleRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/schedule"
	"github.com/m04kA/Sahatak-SchedulingService/internal/integrations/providerservice"
)

// Service сервис недельных шаблонов расписания
type Service struct {
	repo      TemplateRepository
	providers ProviderClient
	cache     SlotCache
	logger    Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(repo TemplateRepository, providers ProviderClient, cache SlotCache, logger Logger) *Service {
	return &Service{
		repo:      repo,
		providers: providers,
		cache:     cache,
		logger:    logger,
	}
}

// Resolve возвращает шаблон врача. Если врач его не настраивал, подставляется шаблон
// по умолчанию с часовым поясом из профиля врача.
func (s *Service) Resolve(ctx context.Context, providerID int64) (*domain.WeeklyTemplate, error) {
	tpl, err := s.repo.GetByProviderID(ctx, providerID)
	if err == nil {
		return tpl, nil
	}
	if !errors.Is(err, scheduleRepo.ErrTemplateNotFound) {
		s.logger.Error("Resolve: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: Resolve - repository error: %v", ErrInternal, err)
	}

	profile, err := s.providers.GetProfile(ctx, providerID)
	if err != nil {
		if providerservice.IsNotFound(err) {
			s.logger.Warn("Resolve: provider=%d not found", providerID)
			return nil, domain.NewNotFoundError("provider", providerID)
		}
		s.logger.Error("Resolve: failed to get profile for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: Resolve - provider profile: %v", ErrInternal, err)
	}

	s.logger.Info("Resolve: provider=%d has no template, using defaults (timezone=%s)", providerID, profile.Timezone)
	return domain.DefaultWeeklyTemplate(providerID, profile.Timezone), nil
}

// Get возвращает шаблон врача (или шаблон по умолчанию)
func (s *Service) Get(ctx context.Context, providerID int64) (*domain.WeeklyTemplate, error) {
	s.logger.Info("Get: fetching weekly template for provider=%d", providerID)
	return s.Resolve(ctx, providerID)
}

// Update заменяет шаблон врача. Изменять шаблон может только сам врач или администратор.
func (s *Service) Update(ctx context.Context, actor domain.Actor, tpl *domain.WeeklyTemplate) (*domain.WeeklyTemplate, error) {
	s.logger.Info("Update: provider=%d by actor=%d (%s)", tpl.ProviderID, actor.ID, actor.Role)

	// 1. Проверка прав
	if !actor.IsProvider(tpl.ProviderID) && !actor.IsAdmin() {
		s.logger.Warn("Update: actor=%d (%s) is not allowed to edit schedule of provider=%d", actor.ID, actor.Role, tpl.ProviderID)
		return nil, domain.NewAccessDeniedError("only the provider can edit their schedule")
	}

	// 2. Валидация инвариантов шаблона
	if err := tpl.Validate(); err != nil {
		s.logger.Warn("Update: invalid template for provider=%d: %v", tpl.ProviderID, err)
		return nil, err
	}

	// 3. Сохранение
	saved, err := s.repo.Upsert(ctx, tpl)
	if err != nil {
		s.logger.Error("Update: repository error for provider=%d: %v", tpl.ProviderID, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	// 4. Все закэшированные слоты врача устарели
	if err := s.cache.InvalidateProvider(ctx, tpl.ProviderID); err != nil {
		s.logger.Error("Update: failed to invalidate slot cache for provider=%d: %v", tpl.ProviderID, err)
	}

	s.logger.Info("Update: weekly template saved for provider=%d", tpl.ProviderID)
	return saved, nil
}
