package access

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// grantStore хранит выданные экстренные допуски и ограничивает частоту выдачи по актору
type grantStore struct {
	mu       sync.Mutex
	grants   map[string]*EmergencyGrant
	limiters map[int64]*rate.Limiter

	ttl   time.Duration
	limit rate.Limit
	burst int
}

func newGrantStore(ttl time.Duration, perHour int) *grantStore {
	if perHour <= 0 {
		perHour = 1
	}
	return &grantStore{
		grants:   make(map[string]*EmergencyGrant),
		limiters: make(map[int64]*rate.Limiter),
		ttl:      ttl,
		limit:    rate.Every(time.Hour / time.Duration(perHour)),
		burst:    perHour,
	}
}

// issue выдает допуск, если актор не превысил лимит. false означает превышение лимита.
func (s *grantStore) issue(actor domain.Actor, justification string, now time.Time) (*EmergencyGrant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired(now)

	limiter, ok := s.limiters[actor.ID]
	if !ok {
		limiter = rate.NewLimiter(s.limit, s.burst)
		s.limiters[actor.ID] = limiter
	}
	if !limiter.AllowN(now, 1) {
		return nil, false
	}

	grant := &EmergencyGrant{
		ID:            uuid.NewString(),
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		Justification: justification,
		IssuedAt:      now,
		ExpiresAt:     now.Add(s.ttl),
	}
	s.grants[grant.ID] = grant
	return grant, true
}

// lookup возвращает действующий допуск, выданный именно этому актору
func (s *grantStore) lookup(id string, actor domain.Actor, now time.Time) (*EmergencyGrant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[id]
	if !ok {
		return nil, false
	}
	if !now.Before(grant.ExpiresAt) {
		delete(s.grants, id)
		return nil, false
	}
	if grant.ActorID != actor.ID || grant.ActorRole != actor.Role {
		return nil, false
	}
	return grant, true
}

// evictExpired удаляет истекшие допуски и лимитеры, полностью восстановившие запас.
// Такой лимитер ничем не отличается от нового.
func (s *grantStore) evictExpired(now time.Time) {
	for id, grant := range s.grants {
		if !now.Before(grant.ExpiresAt) {
			delete(s.grants, id)
		}
	}
	for actorID, limiter := range s.limiters {
		if limiter.TokensAt(now) >= float64(s.burst) {
			delete(s.limiters, actorID)
		}
	}
}
