package access

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// Service вычисляет право врача на доступ к медкарте пациента
type Service struct {
	reservationRepo ReservationRepository
	auditRepo       AuditRepository
	metrics         Metrics
	windows         domain.AccessWindows
	grants          *grantStore
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса доступа
func NewService(
	reservationRepo ReservationRepository,
	auditRepo AuditRepository,
	metrics Metrics,
	settings Settings,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		auditRepo:       auditRepo,
		metrics:         metrics,
		windows:         settings.Windows,
		grants:          newGrantStore(settings.GrantTTL, settings.GrantsPerHour),
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// AuthorizeEmergency выдает экстренный допуск врачу или администратору.
// Допуск привязан к актору, ограничен по времени и по частоте выдачи.
func (s *Service) AuthorizeEmergency(ctx context.Context, actor domain.Actor, justification string) (*EmergencyGrant, error) {
	if actor.Role != domain.RoleProvider && actor.Role != domain.RoleAdmin {
		s.logger.Warn("Security: emergency grant refused for actor=%d (%s): role not allowed", actor.ID, actor.Role)
		return nil, domain.NewAccessDeniedError("only providers and administrators can request emergency access")
	}

	justification = strings.TrimSpace(justification)
	if len(justification) < domain.MinJustificationLength {
		return nil, domain.NewValidationError("justification", domain.CodeRequired, "justification is too short")
	}
	if len(justification) > domain.MaxJustificationLength {
		return nil, domain.NewValidationError("justification", domain.CodeTooLong, "justification is too long")
	}

	now := s.timeProvider.Now()
	grant, ok := s.grants.issue(actor, justification, now)
	if !ok {
		s.logger.Warn("Security: emergency grant rate limit exceeded for actor=%d (%s)", actor.ID, actor.Role)
		return nil, domain.NewAccessDeniedError("emergency access rate limit exceeded")
	}

	s.logger.Error("Security: emergency grant %s issued to actor=%d (%s), expires %s, justification=%q",
		grant.ID, actor.ID, actor.Role, grant.ExpiresAt.UTC().Format(time.RFC3339), justification)

	return grant, nil
}

// Evaluate вычисляет решение о доступе и записывает его в журнал.
// Если запись в журнал не удалась, решение не возвращается.
func (s *Service) Evaluate(ctx context.Context, req *EvaluateRequest) (*domain.AccessDecision, error) {
	s.logger.Info("Evaluate: actor=%d (%s), patient=%d", req.Actor.ID, req.Actor.Role, req.PatientID)

	// 1. Валидация
	if req.PatientID <= 0 {
		return nil, domain.NewValidationError("patient_id", domain.CodeInvalidValue, "patient_id must be positive")
	}
	if req.Actor.Role != domain.RoleProvider && req.Actor.Role != domain.RoleAdmin {
		s.logger.Warn("Security: access evaluation refused for actor=%d (%s)", req.Actor.ID, req.Actor.Role)
		return nil, domain.NewAccessDeniedError("only providers can access patient records")
	}

	providerID, err := s.resolveProvider(req)
	if err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()

	var (
		decision      domain.AccessDecision
		justification *string
	)

	// 2. Экстренный допуск
	var grant *EmergencyGrant
	if req.GrantID != nil {
		var ok bool
		grant, ok = s.grants.lookup(*req.GrantID, req.Actor, now)
		if !ok {
			s.logger.Warn("Security: invalid or expired emergency grant %s presented by actor=%d", *req.GrantID, req.Actor.ID)
		}
	}

	if grant != nil {
		decision = domain.AccessDecision{
			Allowed:     true,
			Reason:      domain.AccessEmergencyOverride,
			Emergency:   true,
			GrantID:     &grant.ID,
			EvaluatedAt: now,
		}
		justification = &grant.Justification
	} else {
		// 3. Политика по приёмам между врачом и пациентом
		decision, err = s.evaluatePolicy(ctx, providerID, req.PatientID, now)
		if err != nil {
			return nil, err
		}
	}

	// 4. Обязательная запись в журнал доступа
	entry := &domain.AccessAuditEntry{
		RequesterID:   req.Actor.ID,
		RequesterRole: req.Actor.Role,
		ProviderID:    providerID,
		PatientID:     req.PatientID,
		Allowed:       decision.Allowed,
		Reason:        decision.Reason,
		ReservationID: decision.ReservationID,
		Emergency:     decision.Emergency,
		GrantID:       decision.GrantID,
		Justification: justification,
		EvaluatedAt:   now,
	}
	if err := s.auditRepo.RecordAccess(ctx, entry); err != nil {
		s.logger.Error("Evaluate: failed to record access decision for actor=%d patient=%d: %v",
			req.Actor.ID, req.PatientID, err)
		return nil, fmt.Errorf("%w: %v", ErrAuditUnavailable, err)
	}

	// 5. Логирование и метрики
	switch {
	case decision.Emergency:
		s.metrics.IncAccessDecision(outcomeEmergency)
		s.logger.Error("Security: EMERGENCY ACCESS actor=%d (%s) patient=%d grant=%s",
			req.Actor.ID, req.Actor.Role, req.PatientID, *decision.GrantID)
	case decision.Allowed:
		s.metrics.IncAccessDecision(outcomeGranted)
		s.logger.Info("Evaluate: access granted to actor=%d for patient=%d (%s)", req.Actor.ID, req.PatientID, decision.Reason)
	default:
		s.metrics.IncAccessDecision(outcomeDenied)
		s.logger.Warn("Security: access denied to actor=%d (%s) for patient=%d (%s)",
			req.Actor.ID, req.Actor.Role, req.PatientID, decision.Reason)
	}

	return &decision, nil
}

// resolveProvider определяет врача, чьи приёмы дают право доступа
func (s *Service) resolveProvider(req *EvaluateRequest) (int64, error) {
	if req.Actor.Role == domain.RoleAdmin {
		if req.ProviderID == nil || *req.ProviderID <= 0 {
			return 0, domain.NewValidationError("provider_id", domain.CodeRequired, "provider_id is required for administrators")
		}
		return *req.ProviderID, nil
	}

	if req.ProviderID != nil && *req.ProviderID != req.Actor.ID {
		s.logger.Warn("Security: actor=%d tried to evaluate access of provider=%d", req.Actor.ID, *req.ProviderID)
		return 0, domain.NewAccessDeniedError("providers can only evaluate their own access")
	}
	return req.Actor.ID, nil
}

func (s *Service) evaluatePolicy(ctx context.Context, providerID, patientID int64, now time.Time) (domain.AccessDecision, error) {
	from, to := s.windows.Range(now)
	to = to.Add(1) // верхняя граница окон включительна

	reservations, err := s.reservationRepo.List(ctx, domain.ReservationFilter{
		ProviderID: &providerID,
		PatientID:  &patientID,
		From:       &from,
		To:         &to,
	})
	if err != nil {
		s.logger.Error("Evaluate: repository error for provider=%d patient=%d: %v", providerID, patientID, err)
		return domain.AccessDecision{}, fmt.Errorf("%w: Evaluate - repository error: %v", ErrInternal, err)
	}

	return s.windows.Evaluate(reservations, now), nil
}
