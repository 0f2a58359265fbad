package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/internal/infra/cache/slots"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/logger"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/ptr"
)

// gatedRepo останавливает первое чтение после снятия снимка строк
type gatedRepo struct {
	fakeRepo
	entered chan struct{}
	release chan struct{}
}

func newGatedRepo() *gatedRepo {
	return &gatedRepo{entered: make(chan struct{}), release: make(chan struct{})}
}

func (r *gatedRepo) List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error) {
	r.mu.Lock()
	r.calls++
	first := r.calls == 1
	rows := append([]*domain.Reservation(nil), r.rows...)
	r.mu.Unlock()

	if first {
		close(r.entered)
		<-r.release
	}
	return rows, nil
}

func (r *gatedRepo) add(res *domain.Reservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, res)
}

func TestExecute_BookingDuringGenerationIsNotCachedAsAvailable(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := slots.NewCache(client, 5*time.Minute)

	repo := newGatedRepo()
	uc := NewUseCase(repo, &fakeResolver{tpl: oneHourMonday()}, cache, &fakeMetrics{}, 30, logger.NewNop())
	uc.timeProvider = fixedTime{t: sunday}

	ctx := context.Background()
	req := &Request{ProviderID: providerID, Date: monday}
	nine := monday.Add(9 * time.Hour)

	done := make(chan error, 1)
	go func() {
		_, err := uc.Execute(ctx, req)
		done <- err
	}()

	// запись на 09:00 фиксируется, пока читатель строит список по старым данным
	<-repo.entered
	repo.add(&domain.Reservation{
		ID:          1,
		ProviderID:  providerID,
		PatientID:   ptr.Ptr(int64(42)),
		ScheduledAt: nine,
		Status:      domain.StatusScheduled,
	})
	require.NoError(t, cache.InvalidateInstant(ctx, providerID, nine))
	close(repo.release)
	require.NoError(t, <-done)

	day, err := uc.Execute(ctx, req)
	require.NoError(t, err)

	require.Len(t, day.Slots, 2)
	assert.True(t, day.Slots[0].Start.Equal(nine))
	assert.False(t, day.Slots[0].Available)
	assert.True(t, day.Slots[1].Available)
	assert.Equal(t, 2, repo.calls)
}
