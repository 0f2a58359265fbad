package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/psqlbuilder"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/types"
)

// DBExecutor интерфейс для выполнения запросов
type DBExecutor = dbmetrics.DBExecutor

// dayRecord формат хранения одного дня в колонке days (JSONB)
type dayRecord struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Repository хранилище недельных шаблонов расписания
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByProviderID получает шаблон врача
func (r *Repository) GetByProviderID(ctx context.Context, providerID int64) (*domain.WeeklyTemplate, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("provider_id", "timezone", "days", "created_at", "updated_at").
		From("weekly_templates").
		Where(squirrel.Eq{"provider_id": providerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - build select query: %v", ErrBuildQuery, err)
	}

	var (
		tpl     domain.WeeklyTemplate
		rawDays []byte
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&tpl.ProviderID,
		&tpl.Timezone,
		&rawDays,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - scan template: %v", ErrScanRow, err)
	}

	days, err := decodeDays(rawDays)
	if err != nil {
		return nil, err
	}
	tpl.Days = days

	return &tpl, nil
}

// Upsert создает или заменяет шаблон врача
func (r *Repository) Upsert(ctx context.Context, tpl *domain.WeeklyTemplate) (*domain.WeeklyTemplate, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	rawDays, err := encodeDays(tpl.Days)
	if err != nil {
		return nil, err
	}

	query, args, err := psqlbuilder.Insert("weekly_templates").
		Columns("provider_id", "timezone", "days").
		Values(tpl.ProviderID, tpl.Timezone, rawDays).
		Suffix("ON CONFLICT (provider_id) DO UPDATE SET " +
			"timezone = EXCLUDED.timezone, days = EXCLUDED.days, updated_at = NOW() " +
			"RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt time.Time
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute upsert: %v", ErrExecQuery, err)
	}

	tpl.CreatedAt = createdAt
	tpl.UpdatedAt = updatedAt

	return tpl, nil
}

func encodeDays(days map[time.Weekday]domain.DaySchedule) ([]byte, error) {
	records := make(map[string]dayRecord, len(days))
	for wd, day := range days {
		records[domain.WeekdayName(wd)] = dayRecord{
			Enabled: day.Enabled,
			Start:   day.Start.String(),
			End:     day.End.String(),
		}
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeDays, err)
	}
	return raw, nil
}

func decodeDays(raw []byte) (map[time.Weekday]domain.DaySchedule, error) {
	var records map[string]dayRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeDays, err)
	}

	days := make(map[time.Weekday]domain.DaySchedule, len(records))
	for name, rec := range records {
		wd, ok := domain.ParseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrEncodeDays, name)
		}
		days[wd] = domain.DaySchedule{
			Enabled: rec.Enabled,
			Start:   types.TimeString(rec.Start),
			End:     types.TimeString(rec.End),
		}
	}
	return days, nil
}
