package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	reservationRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/reservation"
	"github.com/m04kA/Sahatak-SchedulingService/internal/service/appointments/models"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/logger"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/ptr"
)

const (
	providerID int64 = 7
	patientID  int64 = 42
)

var monday9 = time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

type fakeRepo struct {
	rows      map[int64]*domain.Reservation
	lastList  domain.ReservationFilter
	updateErr error
}

func (r *fakeRepo) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, ok := r.rows[id]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *fakeRepo) List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error) {
	r.lastList = filter
	var result []*domain.Reservation
	for _, res := range r.rows {
		if filter.To != nil && !res.ScheduledAt.Before(*filter.To) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, res.Status) {
			continue
		}
		cp := *res
		result = append(result, &cp)
	}
	return result, nil
}

func containsStatus(list []domain.ReservationStatus, s domain.ReservationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *fakeRepo) update(id int64, from domain.ReservationStatus, apply func(res *domain.Reservation)) (*domain.Reservation, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	res := r.rows[id]
	if res == nil || res.Status != from {
		return nil, reservationRepo.ErrStaleState
	}
	apply(res)
	cp := *res
	return &cp, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.ReservationStatus) (*domain.Reservation, error) {
	return r.update(id, from, func(res *domain.Reservation) { res.Status = to })
}

func (r *fakeRepo) Cancel(ctx context.Context, id int64, from domain.ReservationStatus, reason *string) (*domain.Reservation, error) {
	return r.update(id, from, func(res *domain.Reservation) {
		res.Status = domain.StatusCancelled
		res.CancellationReason = reason
	})
}

func (r *fakeRepo) DeleteBlock(ctx context.Context, id, providerID int64) (*domain.Reservation, error) {
	res, ok := r.rows[id]
	if !ok || res.ProviderID != providerID || res.Status != domain.StatusBlocked {
		return nil, reservationRepo.ErrReservationNotFound
	}
	delete(r.rows, id)
	return res, nil
}

type fakeAudit struct {
	events []*domain.TransitionEvent
}

func (a *fakeAudit) RecordTransition(ctx context.Context, event *domain.TransitionEvent) error {
	a.events = append(a.events, event)
	return nil
}

func (a *fakeAudit) ListTransitions(ctx context.Context, reservationID int64) ([]*domain.TransitionEvent, error) {
	var result []*domain.TransitionEvent
	for _, e := range a.events {
		if e.ReservationID == reservationID {
			result = append(result, e)
		}
	}
	return result, nil
}

type fakeCache struct {
	invalidated []time.Time
}

func (c *fakeCache) InvalidateInstant(ctx context.Context, providerID int64, instant time.Time) error {
	c.invalidated = append(c.invalidated, instant)
	return nil
}

type fakeNotifier struct {
	cancelled []*domain.Reservation
}

func (n *fakeNotifier) AppointmentCancelled(ctx context.Context, r *domain.Reservation) {
	n.cancelled = append(n.cancelled, r)
}

type fakeTx struct{}

func (fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	audit    *fakeAudit
	cache    *fakeCache
	notifier *fakeNotifier
}

func newFixture(now time.Time, rows ...*domain.Reservation) *fixture {
	f := &fixture{
		repo:     &fakeRepo{rows: map[int64]*domain.Reservation{}},
		audit:    &fakeAudit{},
		cache:    &fakeCache{},
		notifier: &fakeNotifier{},
	}
	for _, r := range rows {
		f.repo.rows[r.ID] = r
	}
	f.svc = NewService(f.repo, f.audit, f.cache, f.notifier, fakeTx{},
		Settings{CancellationWindow: time.Hour, SlotMinutes: 30}, logger.NewNop())
	f.svc.timeProvider = fixedTime{t: now}
	return f
}

func appointment(id int64, status domain.ReservationStatus) *domain.Reservation {
	return &domain.Reservation{
		ID:          id,
		ProviderID:  providerID,
		PatientID:   ptr.Ptr(patientID),
		ScheduledAt: monday9,
		Modality:    domain.ModalityVideo,
		Status:      status,
	}
}

var (
	patient  = domain.Actor{ID: patientID, Role: domain.RolePatient}
	provider = domain.Actor{ID: providerID, Role: domain.RoleProvider}
)

func TestCancel_Window(t *testing.T) {
	t.Run("61 minutes before succeeds", func(t *testing.T) {
		f := newFixture(monday9.Add(-61*time.Minute), appointment(1, domain.StatusScheduled))

		got, err := f.svc.Cancel(context.Background(), 1, &models.CancelRequest{Actor: patient, Reason: ptr.Ptr("feeling better")})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusCancelled, got.Status)
		require.NotNil(t, got.CancellationReason)
		assert.Equal(t, "feeling better", *got.CancellationReason)

		require.Len(t, f.audit.events, 1)
		assert.Equal(t, domain.StatusScheduled, *f.audit.events[0].FromStatus)
		assert.Equal(t, domain.StatusCancelled, f.audit.events[0].ToStatus)
		assert.Len(t, f.notifier.cancelled, 1)
		assert.Equal(t, []time.Time{monday9}, f.cache.invalidated)
	})

	t.Run("59 minutes before fails", func(t *testing.T) {
		f := newFixture(monday9.Add(-59*time.Minute), appointment(1, domain.StatusConfirmed))

		_, err := f.svc.Cancel(context.Background(), 1, &models.CancelRequest{Actor: patient})

		var window *domain.WindowError
		require.ErrorAs(t, err, &window)
		assert.Equal(t, domain.WindowCancellation, window.Code)
		require.NotNil(t, window.Deadline)
		assert.True(t, window.Deadline.Equal(monday9.Add(-time.Hour)))
		assert.Equal(t, domain.StatusConfirmed, f.repo.rows[1].Status)
		assert.Empty(t, f.notifier.cancelled)
	})
}

func TestCancel_Rejections(t *testing.T) {
	early := monday9.Add(-24 * time.Hour)

	tests := []struct {
		name    string
		res     *domain.Reservation
		actor   domain.Actor
		wantErr error
	}{
		{"another patient", appointment(1, domain.StatusScheduled), domain.Actor{ID: 5, Role: domain.RolePatient}, domain.ErrAccessDenied},
		{"provider", appointment(1, domain.StatusScheduled), provider, domain.ErrAccessDenied},
		{"completed", appointment(1, domain.StatusCompleted), patient, domain.ErrWindow},
		{"already cancelled", appointment(1, domain.StatusCancelled), patient, domain.ErrWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(early, tt.res)

			_, err := f.svc.Cancel(context.Background(), 1, &models.CancelRequest{Actor: tt.actor})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.audit.events)
		})
	}

	t.Run("not found", func(t *testing.T) {
		f := newFixture(early)
		_, err := f.svc.Cancel(context.Background(), 1, &models.CancelRequest{Actor: patient})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("concurrent change", func(t *testing.T) {
		f := newFixture(early, appointment(1, domain.StatusScheduled))
		f.repo.updateErr = reservationRepo.ErrStaleState

		_, err := f.svc.Cancel(context.Background(), 1, &models.CancelRequest{Actor: patient})

		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, domain.ConflictStaleState, conflict.Reason)
	})
}

func TestTransition_ProviderLifecycle(t *testing.T) {
	f := newFixture(monday9.Add(-time.Hour), appointment(1, domain.StatusScheduled))

	got, err := f.svc.Transition(context.Background(), 1, &models.TransitionRequest{Actor: provider, Action: models.ActionConfirm})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)

	f.svc.timeProvider = fixedTime{t: monday9.Add(time.Minute)}

	got, err = f.svc.Transition(context.Background(), 1, &models.TransitionRequest{Actor: provider, Action: models.ActionStart})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)

	got, err = f.svc.Transition(context.Background(), 1, &models.TransitionRequest{Actor: provider, Action: models.ActionComplete})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	assert.Len(t, f.audit.events, 3)

	_, err = f.svc.Transition(context.Background(), 1, &models.TransitionRequest{Actor: provider, Action: models.ActionConfirm})
	assert.ErrorIs(t, err, domain.ErrWindow)
}

func TestTransition_NoShow(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		f := newFixture(monday9.Add(-time.Minute), appointment(1, domain.StatusConfirmed))

		_, err := f.svc.Transition(context.Background(), 1, &models.TransitionRequest{Actor: provider, Action: models.ActionNoShow})

		var window *domain.WindowError
		require.ErrorAs(t, err, &window)
		assert.Equal(t, domain.WindowNotYetStarted, window.Code)
	})

	t.Run("after start", func(t *testing.T) {
		f := newFixture(monday9.Add(20*time.Minute), appointment(1, domain.StatusConfirmed))

		got, err := f.svc.Transition(context.Background(), 1, &models.TransitionRequest{Actor: provider, Action: models.ActionNoShow})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusNoShow, got.Status)
	})
}

func TestTransition_Rejections(t *testing.T) {
	f := newFixture(monday9.Add(-time.Hour), appointment(1, domain.StatusScheduled))

	_, err := f.svc.Transition(context.Background(), 1, &models.TransitionRequest{Actor: patient, Action: models.ActionConfirm})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.svc.Transition(context.Background(), 1, &models.TransitionRequest{Actor: provider, Action: "archive"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Transition(context.Background(), 1, &models.TransitionRequest{Actor: provider, Action: models.ActionComplete})
	assert.ErrorIs(t, err, domain.ErrWindow)
}

func TestGetByID_Access(t *testing.T) {
	f := newFixture(monday9, appointment(1, domain.StatusScheduled))

	for _, actor := range []domain.Actor{patient, provider, {ID: 1, Role: domain.RoleAdmin}} {
		got, err := f.svc.GetByID(context.Background(), actor, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
	}

	_, err := f.svc.GetByID(context.Background(), domain.Actor{ID: 8, Role: domain.RoleProvider}, 1)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestGetHistory(t *testing.T) {
	f := newFixture(monday9.Add(-2*time.Hour), appointment(1, domain.StatusScheduled))

	_, err := f.svc.Cancel(context.Background(), 1, &models.CancelRequest{Actor: patient})
	require.NoError(t, err)

	events, err := f.svc.GetHistory(context.Background(), patient, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.StatusCancelled, events[0].ToStatus)
}

func TestListPatientAppointments(t *testing.T) {
	f := newFixture(monday9, appointment(1, domain.StatusScheduled))

	list, err := f.svc.ListPatientAppointments(context.Background(), &models.ListPatientRequest{
		Actor:     patient,
		PatientID: patientID,
		Status:    ptr.Ptr("scheduled"),
	})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.True(t, f.repo.lastList.NewestFirst)
	assert.Equal(t, []domain.ReservationStatus{domain.StatusScheduled}, f.repo.lastList.Statuses)

	_, err = f.svc.ListPatientAppointments(context.Background(), &models.ListPatientRequest{
		Actor: patient, PatientID: patientID, Status: ptr.Ptr("blocked"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.ListPatientAppointments(context.Background(), &models.ListPatientRequest{
		Actor: domain.Actor{ID: 5, Role: domain.RolePatient}, PatientID: patientID,
	})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestListProviderAppointments_Range(t *testing.T) {
	f := newFixture(monday9)
	from := monday9.Add(-9 * time.Hour)

	_, err := f.svc.ListProviderAppointments(context.Background(), &models.ListProviderRequest{
		Actor: provider, ProviderID: providerID, From: from, To: from.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	require.NotNil(t, f.repo.lastList.ProviderID)
	assert.Equal(t, providerID, *f.repo.lastList.ProviderID)
	assert.Empty(t, f.repo.lastList.Statuses)

	_, err = f.svc.ListProviderAppointments(context.Background(), &models.ListProviderRequest{
		Actor: provider, ProviderID: providerID, From: from, To: from,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.ListProviderAppointments(context.Background(), &models.ListProviderRequest{
		Actor: provider, ProviderID: providerID, From: from, To: from.AddDate(0, 3, 0),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUnblock(t *testing.T) {
	block := &domain.Reservation{
		ID:          5,
		ProviderID:  providerID,
		ScheduledAt: monday9,
		Modality:    domain.ModalityBlocked,
		Status:      domain.StatusBlocked,
	}
	f := newFixture(monday9, block, appointment(1, domain.StatusScheduled))

	require.NoError(t, f.svc.Unblock(context.Background(), provider, providerID, 5))
	assert.NotContains(t, f.repo.rows, int64(5))
	require.Len(t, f.audit.events, 1)
	assert.Equal(t, domain.StatusDeleted, f.audit.events[0].ToStatus)
	assert.Equal(t, []time.Time{monday9}, f.cache.invalidated)

	err := f.svc.Unblock(context.Background(), provider, providerID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.svc.Unblock(context.Background(), patient, providerID, 1)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestMarkNoShows(t *testing.T) {
	overdue := appointment(1, domain.StatusConfirmed)
	recent := appointment(2, domain.StatusScheduled)
	recent.ScheduledAt = monday9.Add(time.Hour)
	done := appointment(3, domain.StatusCompleted)

	// 09:00 + 30 мин слот + 15 мин grace < 10:30, а 10:00 еще нет
	f := newFixture(monday9.Add(90*time.Minute), overdue, recent, done)

	marked, err := f.svc.MarkNoShows(context.Background(), 15*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 1, marked)
	assert.Equal(t, domain.StatusNoShow, f.repo.rows[1].Status)
	assert.Equal(t, domain.StatusScheduled, f.repo.rows[2].Status)
	require.Len(t, f.audit.events, 1)
	assert.Equal(t, domain.SystemActorID, f.audit.events[0].ActorID)
	assert.Equal(t, domain.RoleSystem, f.audit.events[0].ActorRole)
}
