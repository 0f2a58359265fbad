// Package slots кэширует вычисленные списки слотов в Redis (cache-aside).
//
// Ключ: slots:{provider}:v{version}:{date}. Инвалидация даты удаляет ключ и увеличивает
// поколение даты, изменение шаблона врача увеличивает версию, после чего старые ключи
// истекают по TTL. Запись в кэш выполняется только если версия и поколение не менялись
// с момента Stamp, поэтому список, построенный до конкурентной записи, не попадает в кэш.
package slots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

const (
	// maxZoneOffset максимальное смещение часового пояса от UTC
	maxZoneOffset = 14 * time.Hour

	// generationTTL время жизни счетчика поколений даты
	generationTTL = 48 * time.Hour
)

var (
	// ErrCacheRead возвращается при ошибке чтения из Redis
	ErrCacheRead = errors.New("slots.cache: failed to read")

	// ErrCacheWrite возвращается при ошибке записи или удаления в Redis
	ErrCacheWrite = errors.New("slots.cache: failed to write")
)

// Cache кэш слотов поверх Redis
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCache создает кэш слотов
func NewCache(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func versionKey(providerID int64) string {
	return fmt.Sprintf("slots:%d:version", providerID)
}

func generationKey(providerID int64, date string) string {
	return fmt.Sprintf("slots:%d:gen:%s", providerID, date)
}

func slotsKey(providerID, version int64, date string) string {
	return fmt.Sprintf("slots:%d:v%d:%s", providerID, version, date)
}

// stampReader общий интерфейс клиента и транзакции Redis для чтения счетчиков
type stampReader interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// readStamp читает версию врача и поколение даты одним запросом
func readStamp(ctx context.Context, r stampReader, providerID int64, date string) (version, generation int64, err error) {
	values, err := r.MGet(ctx, versionKey(providerID), generationKey(providerID, date)).Result()
	if err != nil {
		return 0, 0, err
	}

	counters := make([]int64, 2)
	for i, v := range values {
		if v == nil {
			continue
		}
		raw, ok := v.(string)
		if !ok {
			return 0, 0, fmt.Errorf("unexpected counter type %T", v)
		}
		if counters[i], err = strconv.ParseInt(raw, 10, 64); err != nil {
			return 0, 0, err
		}
	}

	return counters[0], counters[1], nil
}

func formatStamp(version, generation int64) string {
	return fmt.Sprintf("v%d:g%d", version, generation)
}

func (c *Cache) version(ctx context.Context, providerID int64) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(providerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Get возвращает слоты врача на дату. found=false при промахе.
func (c *Cache) Get(ctx context.Context, providerID int64, date string) (*domain.DaySlots, bool, error) {
	version, err := c.version(ctx, providerID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: Get - version: %v", ErrCacheRead, err)
	}

	data, err := c.client.Get(ctx, slotsKey(providerID, version, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: Get: %v", ErrCacheRead, err)
	}

	var slots domain.DaySlots
	if err := json.Unmarshal(data, &slots); err != nil {
		// повреждённая запись считается промахом
		return nil, false, nil
	}

	return &slots, true, nil
}

// Stamp возвращает отметку состояния даты. Берется до чтения резерваций и передается в Set.
func (c *Cache) Stamp(ctx context.Context, providerID int64, date string) (string, error) {
	version, generation, err := readStamp(ctx, c.client, providerID, date)
	if err != nil {
		return "", fmt.Errorf("%w: Stamp: %v", ErrCacheRead, err)
	}
	return formatStamp(version, generation), nil
}

// Set сохраняет слоты врача на дату, если с момента stamp дата не инвалидировалась.
// stored=false означает, что запись пропущена, так как список мог устареть.
func (c *Cache) Set(ctx context.Context, providerID int64, date, stamp string, slots *domain.DaySlots) (bool, error) {
	data, err := json.Marshal(slots)
	if err != nil {
		return false, fmt.Errorf("%w: Set - marshal: %v", ErrCacheWrite, err)
	}

	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		version, generation, err := readStamp(ctx, tx, providerID, date)
		if err != nil {
			return err
		}
		if formatStamp(version, generation) != stamp {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, slotsKey(providerID, version, date), data, c.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		stored = true
		return nil
	}, versionKey(providerID), generationKey(providerID, date))

	if errors.Is(err, redis.TxFailedErr) {
		// счетчики изменились между проверкой и записью
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: Set: %v", ErrCacheWrite, err)
	}

	return stored, nil
}

// InvalidateInstant удаляет записи всех дат, на которые может прийтись instant
// в любом часовом поясе врача, и увеличивает поколение этих дат
func (c *Cache) InvalidateInstant(ctx context.Context, providerID int64, instant time.Time) error {
	version, err := c.version(ctx, providerID)
	if err != nil {
		return fmt.Errorf("%w: InvalidateInstant - version: %v", ErrCacheRead, err)
	}

	dates := make([]string, 0, 3)
	seen := make(map[string]struct{}, 3)
	for _, shift := range []time.Duration{-maxZoneOffset, 0, maxZoneOffset} {
		date := instant.UTC().Add(shift).Format(domain.DateFormat)
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		dates = append(dates, date)
	}

	genTTL := generationTTL
	if c.ttl > genTTL {
		genTTL = c.ttl
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, date := range dates {
			pipe.Incr(ctx, generationKey(providerID, date))
			pipe.Expire(ctx, generationKey(providerID, date), genTTL)
			pipe.Del(ctx, slotsKey(providerID, version, date))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: InvalidateInstant: %v", ErrCacheWrite, err)
	}

	return nil
}

// InvalidateProvider делает недействительными все записи врача (смена шаблона)
func (c *Cache) InvalidateProvider(ctx context.Context, providerID int64) error {
	if err := c.client.Incr(ctx, versionKey(providerID)).Err(); err != nil {
		return fmt.Errorf("%w: InvalidateProvider: %v", ErrCacheWrite, err)
	}
	return nil
}

// Noop кэш-заглушка, когда Redis выключен
type Noop struct{}

func (Noop) Get(context.Context, int64, string) (*domain.DaySlots, bool, error) {
	return nil, false, nil
}

func (Noop) Stamp(context.Context, int64, string) (string, error) { return "", nil }

func (Noop) Set(context.Context, int64, string, string, *domain.DaySlots) (bool, error) {
	return false, nil
}

func (Noop) InvalidateInstant(context.Context, int64, time.Time) error { return nil }

func (Noop) InvalidateProvider(context.Context, int64) error { return nil }
