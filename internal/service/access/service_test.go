package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/logger"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/ptr"
)

const (
	providerID int64 = 7
	patientID  int64 = 42
)

var now = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	rows []*domain.Reservation
}

func (r *fakeRepo) List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error) {
	var result []*domain.Reservation
	for _, res := range r.rows {
		if filter.ProviderID != nil && res.ProviderID != *filter.ProviderID {
			continue
		}
		if filter.PatientID != nil && (res.PatientID == nil || *res.PatientID != *filter.PatientID) {
			continue
		}
		if filter.From != nil && res.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !res.ScheduledAt.Before(*filter.To) {
			continue
		}
		result = append(result, res)
	}
	return result, nil
}

type fakeAudit struct {
	entries []*domain.AccessAuditEntry
	err     error
}

func (a *fakeAudit) RecordAccess(ctx context.Context, entry *domain.AccessAuditEntry) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

type fakeMetrics struct {
	outcomes []string
}

func (m *fakeMetrics) IncAccessDecision(outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	audit   *fakeAudit
	metrics *fakeMetrics
}

func newFixture(rows ...*domain.Reservation) *fixture {
	f := &fixture{
		repo:    &fakeRepo{rows: rows},
		audit:   &fakeAudit{},
		metrics: &fakeMetrics{},
	}
	f.svc = NewService(f.repo, f.audit, f.metrics, Settings{
		Windows:       domain.DefaultAccessWindows(),
		GrantTTL:      15 * time.Minute,
		GrantsPerHour: 2,
	}, logger.NewNop())
	f.svc.timeProvider = fixedTime{t: now}
	return f
}

func completedAt(at time.Time) *domain.Reservation {
	return &domain.Reservation{
		ID:          1,
		ProviderID:  providerID,
		PatientID:   ptr.Ptr(patientID),
		ScheduledAt: at,
		Modality:    domain.ModalityVideo,
		Status:      domain.StatusCompleted,
	}
}

var provider = domain.Actor{ID: providerID, Role: domain.RoleProvider}

func TestEvaluate_RecentHistory(t *testing.T) {
	f := newFixture(completedAt(now.AddDate(0, 0, -200)))

	decision, err := f.svc.Evaluate(context.Background(), &EvaluateRequest{Actor: provider, PatientID: patientID})
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, domain.AccessRecentHistory, decision.Reason)
	require.NotNil(t, decision.ReservationID)
	assert.Equal(t, int64(1), *decision.ReservationID)

	require.Len(t, f.audit.entries, 1)
	assert.True(t, f.audit.entries[0].Allowed)
	assert.False(t, f.audit.entries[0].Emergency)
	assert.Equal(t, []string{outcomeGranted}, f.metrics.outcomes)
}

func TestEvaluate_HistoryTooOld(t *testing.T) {
	f := newFixture(completedAt(now.AddDate(0, 0, -366)))

	decision, err := f.svc.Evaluate(context.Background(), &EvaluateRequest{Actor: provider, PatientID: patientID})
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.AccessNoRelationship, decision.Reason)
	require.Len(t, f.audit.entries, 1)
	assert.False(t, f.audit.entries[0].Allowed)
	assert.Equal(t, []string{outcomeDenied}, f.metrics.outcomes)
}

func TestEvaluate_OtherProviderAppointmentsDoNotCount(t *testing.T) {
	res := completedAt(now.AddDate(0, 0, -10))
	res.ProviderID = 99
	f := newFixture(res)

	decision, err := f.svc.Evaluate(context.Background(), &EvaluateRequest{Actor: provider, PatientID: patientID})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestEvaluate_AuditFailureReturnsNoDecision(t *testing.T) {
	f := newFixture(completedAt(now.AddDate(0, 0, -10)))
	f.audit.err = errors.New("db down")

	decision, err := f.svc.Evaluate(context.Background(), &EvaluateRequest{Actor: provider, PatientID: patientID})

	assert.ErrorIs(t, err, ErrAuditUnavailable)
	assert.Nil(t, decision)
	assert.Empty(t, f.metrics.outcomes)
}

func TestEvaluate_Rejections(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Evaluate(context.Background(), &EvaluateRequest{
		Actor: domain.Actor{ID: patientID, Role: domain.RolePatient}, PatientID: patientID,
	})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.svc.Evaluate(context.Background(), &EvaluateRequest{Actor: provider})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Empty(t, f.audit.entries)
}

func TestEmergencyGrant(t *testing.T) {
	f := newFixture()

	grant, err := f.svc.AuthorizeEmergency(context.Background(), provider, "patient unconscious in ER")
	require.NoError(t, err)
	assert.NotEmpty(t, grant.ID)
	assert.True(t, grant.ExpiresAt.Equal(now.Add(15*time.Minute)))

	decision, err := f.svc.Evaluate(context.Background(), &EvaluateRequest{
		Actor: provider, PatientID: patientID, GrantID: &grant.ID,
	})
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.True(t, decision.Emergency)
	assert.Equal(t, domain.AccessEmergencyOverride, decision.Reason)

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.True(t, entry.Emergency)
	require.NotNil(t, entry.GrantID)
	assert.Equal(t, grant.ID, *entry.GrantID)
	require.NotNil(t, entry.Justification)
	assert.Equal(t, "patient unconscious in ER", *entry.Justification)
	assert.Equal(t, []string{outcomeEmergency}, f.metrics.outcomes)
}

func TestEmergencyGrant_BoundToActor(t *testing.T) {
	f := newFixture()

	grant, err := f.svc.AuthorizeEmergency(context.Background(), provider, "patient unconscious in ER")
	require.NoError(t, err)

	other := domain.Actor{ID: 8, Role: domain.RoleProvider}
	decision, err := f.svc.Evaluate(context.Background(), &EvaluateRequest{
		Actor: other, PatientID: patientID, GrantID: &grant.ID,
	})
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.False(t, decision.Emergency)
}

func TestEmergencyGrant_Expires(t *testing.T) {
	f := newFixture()

	grant, err := f.svc.AuthorizeEmergency(context.Background(), provider, "patient unconscious in ER")
	require.NoError(t, err)

	f.svc.timeProvider = fixedTime{t: now.Add(16 * time.Minute)}

	decision, err := f.svc.Evaluate(context.Background(), &EvaluateRequest{
		Actor: provider, PatientID: patientID, GrantID: &grant.ID,
	})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestAuthorizeEmergency_Rejections(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AuthorizeEmergency(context.Background(), domain.Actor{ID: patientID, Role: domain.RolePatient}, "patient unconscious in ER")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.svc.AuthorizeEmergency(context.Background(), provider, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.AuthorizeEmergency(context.Background(), provider, "urgent")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthorizeEmergency_RateLimited(t *testing.T) {
	f := newFixture()

	for i := 0; i < 2; i++ {
		_, err := f.svc.AuthorizeEmergency(context.Background(), provider, "patient unconscious in ER")
		require.NoError(t, err)
	}

	_, err := f.svc.AuthorizeEmergency(context.Background(), provider, "patient unconscious in ER")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	// лимит считается отдельно для каждого актора
	_, err = f.svc.AuthorizeEmergency(context.Background(), domain.Actor{ID: 1, Role: domain.RoleAdmin}, "patient unconscious in ER")
	assert.NoError(t, err)
}

func TestAuthorizeEmergency_AdminsAreRateLimited(t *testing.T) {
	f := newFixture()
	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}

	for i := 0; i < 2; i++ {
		_, err := f.svc.AuthorizeEmergency(context.Background(), admin, "mass casualty incident")
		require.NoError(t, err)
	}

	_, err := f.svc.AuthorizeEmergency(context.Background(), admin, "mass casualty incident")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestEvaluate_AdminEvaluatesNamedProvider(t *testing.T) {
	f := newFixture(completedAt(now.AddDate(0, 0, -10)))
	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}

	decision, err := f.svc.Evaluate(context.Background(), &EvaluateRequest{
		Actor:      admin,
		PatientID:  patientID,
		ProviderID: ptr.Ptr(providerID),
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, admin.ID, f.audit.entries[0].RequesterID)
	assert.Equal(t, domain.RoleAdmin, f.audit.entries[0].RequesterRole)
	assert.Equal(t, providerID, f.audit.entries[0].ProviderID)

	// без врача администратору проверять нечего
	_, err = f.svc.Evaluate(context.Background(), &EvaluateRequest{Actor: admin, PatientID: patientID})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, f.audit.entries, 1)
}

func TestEvaluate_ProviderCannotActForAnotherProvider(t *testing.T) {
	f := newFixture(completedAt(now.AddDate(0, 0, -10)))

	_, err := f.svc.Evaluate(context.Background(), &EvaluateRequest{
		Actor:      domain.Actor{ID: 99, Role: domain.RoleProvider},
		PatientID:  patientID,
		ProviderID: ptr.Ptr(providerID),
	})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	assert.Empty(t, f.audit.entries)

	decision, err := f.svc.Evaluate(context.Background(), &EvaluateRequest{
		Actor:      provider,
		PatientID:  patientID,
		ProviderID: ptr.Ptr(providerID),
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, providerID, f.audit.entries[0].ProviderID)
}

func TestGrantStore_EvictsIdleLimiters(t *testing.T) {
	store := newGrantStore(15*time.Minute, 2)

	for id := int64(1); id <= 5; id++ {
		_, ok := store.issue(domain.Actor{ID: id, Role: domain.RoleProvider}, "patient unconscious in ER", now)
		require.True(t, ok)
	}
	assert.Len(t, store.limiters, 5)
	assert.Len(t, store.grants, 5)

	// через два часа запас всех лимитеров восстановлен, допуски истекли
	later := now.Add(2 * time.Hour)
	_, ok := store.issue(domain.Actor{ID: 6, Role: domain.RoleProvider}, "patient unconscious in ER", later)
	require.True(t, ok)

	assert.Len(t, store.limiters, 1)
	assert.Contains(t, store.limiters, int64(6))
	assert.Len(t, store.grants, 1)
}

func TestGrantStore_KeepsLimiterOfActiveActor(t *testing.T) {
	store := newGrantStore(15*time.Minute, 2)
	actor := domain.Actor{ID: 1, Role: domain.RoleProvider}

	for i := 0; i < 2; i++ {
		_, ok := store.issue(actor, "patient unconscious in ER", now)
		require.True(t, ok)
	}

	// запрос другого актора не сбрасывает исчерпанный лимит
	_, ok := store.issue(domain.Actor{ID: 2, Role: domain.RoleProvider}, "patient unconscious in ER", now.Add(time.Minute))
	require.True(t, ok)

	_, ok = store.issue(actor, "patient unconscious in ER", now.Add(time.Minute))
	assert.False(t, ok)
}
