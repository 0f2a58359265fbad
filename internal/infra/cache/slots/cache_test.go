package slots

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client, 5*time.Minute), srv
}

func sampleSlots() *domain.DaySlots {
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	return &domain.DaySlots{
		ProviderID:  7,
		Date:        "2030-01-07",
		Timezone:    "UTC",
		SlotMinutes: 30,
		Slots: []domain.Slot{
			{Start: start, End: start.Add(30 * time.Minute), Available: true},
		},
	}
}

// store кладет слоты в кэш со свежей отметкой
func store(t *testing.T, cache *Cache, providerID int64, date string) {
	t.Helper()

	ctx := context.Background()
	stamp, err := cache.Stamp(ctx, providerID, date)
	require.NoError(t, err)

	stored, err := cache.Set(ctx, providerID, date, stamp, sampleSlots())
	require.NoError(t, err)
	require.True(t, stored)
}

func TestCache_SetGet(t *testing.T) {
	cache, srv := newCache(t)
	ctx := context.Background()

	_, found, err := cache.Get(ctx, 7, "2030-01-07")
	require.NoError(t, err)
	assert.False(t, found)

	store(t, cache, 7, "2030-01-07")
	assert.True(t, srv.Exists("slots:7:v0:2030-01-07"))
	assert.Equal(t, 5*time.Minute, srv.TTL("slots:7:v0:2030-01-07"))

	got, found, err := cache.Get(ctx, 7, "2030-01-07")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got.Slots, 1)
	assert.True(t, got.Slots[0].Start.Equal(sampleSlots().Slots[0].Start))
	assert.True(t, got.Slots[0].Available)
}

func TestCache_InvalidateInstant(t *testing.T) {
	cache, srv := newCache(t)
	ctx := context.Background()

	for _, date := range []string{"2030-01-06", "2030-01-07", "2030-01-08", "2030-01-09"} {
		store(t, cache, 7, date)
	}

	require.NoError(t, cache.InvalidateInstant(ctx, 7, time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)))

	assert.False(t, srv.Exists("slots:7:v0:2030-01-06"))
	assert.False(t, srv.Exists("slots:7:v0:2030-01-07"))
	assert.True(t, srv.Exists("slots:7:v0:2030-01-09"))

	gen, err := srv.Get("slots:7:gen:2030-01-07")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	assert.True(t, srv.TTL("slots:7:gen:2030-01-07") > 0)
}

// Список, построенный до записи в БД, не должен попасть в кэш после её инвалидации
func TestCache_SetSkippedAfterInvalidation(t *testing.T) {
	cache, srv := newCache(t)
	ctx := context.Background()

	stamp, err := cache.Stamp(ctx, 7, "2030-01-07")
	require.NoError(t, err)

	require.NoError(t, cache.InvalidateInstant(ctx, 7, time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)))

	stored, err := cache.Set(ctx, 7, "2030-01-07", stamp, sampleSlots())
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, srv.Exists("slots:7:v0:2030-01-07"))

	// со свежей отметкой запись проходит
	store(t, cache, 7, "2030-01-07")
	assert.True(t, srv.Exists("slots:7:v0:2030-01-07"))
}

func TestCache_SetSkippedAfterTemplateChange(t *testing.T) {
	cache, srv := newCache(t)
	ctx := context.Background()

	stamp, err := cache.Stamp(ctx, 7, "2030-01-07")
	require.NoError(t, err)

	require.NoError(t, cache.InvalidateProvider(ctx, 7))

	stored, err := cache.Set(ctx, 7, "2030-01-07", stamp, sampleSlots())
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, srv.Exists("slots:7:v1:2030-01-07"))
}

func TestCache_InvalidationOfOtherDateKeepsStamp(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	stamp, err := cache.Stamp(ctx, 7, "2030-01-07")
	require.NoError(t, err)

	require.NoError(t, cache.InvalidateInstant(ctx, 7, time.Date(2030, 1, 20, 9, 0, 0, 0, time.UTC)))

	stored, err := cache.Set(ctx, 7, "2030-01-07", stamp, sampleSlots())
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestCache_InvalidateProvider(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	store(t, cache, 7, "2030-01-07")
	store(t, cache, 8, "2030-01-07")
	require.NoError(t, cache.InvalidateProvider(ctx, 7))

	_, found, err := cache.Get(ctx, 7, "2030-01-07")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = cache.Get(ctx, 8, "2030-01-07")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	cache, srv := newCache(t)
	require.NoError(t, srv.Set("slots:7:v0:2030-01-07", "{not json"))

	_, found, err := cache.Get(context.Background(), 7, "2030-01-07")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_RedisDown(t *testing.T) {
	cache, srv := newCache(t)
	srv.Close()

	_, _, err := cache.Get(context.Background(), 7, "2030-01-07")
	assert.ErrorIs(t, err, ErrCacheRead)
}

func TestNoop(t *testing.T) {
	var c Noop
	ctx := context.Background()

	stamp, err := c.Stamp(ctx, 7, "2030-01-07")
	require.NoError(t, err)
	stored, err := c.Set(ctx, 7, "2030-01-07", stamp, sampleSlots())
	require.NoError(t, err)
	assert.False(t, stored)
	_, found, err := c.Get(ctx, 7, "2030-01-07")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.InvalidateInstant(ctx, 7, time.Now()))
	assert.NoError(t, c.InvalidateProvider(ctx, 7))
}
