package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/psqlbuilder"
)

// DBExecutor интерфейс для выполнения запросов
type DBExecutor = dbmetrics.DBExecutor

// Repository журнал аудита: переходы статусов резерваций и решения о доступе к медкарте
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория аудита
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// RecordTransition сохраняет событие перехода статуса.
// Вызывается в той же транзакции, что и сам переход.
func (r *Repository) RecordTransition(ctx context.Context, event *domain.TransitionEvent) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	rawMetadata, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("%w: RecordTransition: %v", ErrEncodeMetadata, err)
	}

	query, args, err := psqlbuilder.Insert("appointment_events").
		Columns(
			"reservation_id",
			"actor_id",
			"actor_role",
			"from_status",
			"to_status",
			"reason",
			"metadata",
		).
		Values(
			event.ReservationID,
			event.ActorID,
			event.ActorRole,
			event.FromStatus,
			event.ToStatus,
			event.Reason,
			rawMetadata,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: RecordTransition - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&event.ID, &event.CreatedAt); err != nil {
		return fmt.Errorf("%w: RecordTransition - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// ListTransitions возвращает историю переходов резервации в хронологическом порядке
func (r *Repository) ListTransitions(ctx context.Context, reservationID int64) ([]*domain.TransitionEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"reservation_id",
		"actor_id",
		"actor_role",
		"from_status",
		"to_status",
		"reason",
		"metadata",
		"created_at",
	).
		From("appointment_events").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListTransitions - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListTransitions - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	events := make([]*domain.TransitionEvent, 0)
	for rows.Next() {
		var (
			event       domain.TransitionEvent
			fromStatus  sql.NullString
			rawMetadata []byte
		)
		err := rows.Scan(
			&event.ID,
			&event.ReservationID,
			&event.ActorID,
			&event.ActorRole,
			&fromStatus,
			&event.ToStatus,
			&event.Reason,
			&rawMetadata,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ListTransitions - scan row: %v", ErrScanRow, err)
		}

		if fromStatus.Valid {
			s := domain.ReservationStatus(fromStatus.String)
			event.FromStatus = &s
		}
		if len(rawMetadata) > 0 {
			if err := json.Unmarshal(rawMetadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("%w: ListTransitions: %v", ErrEncodeMetadata, err)
			}
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListTransitions - rows error: %v", ErrScanRow, err)
	}

	return events, nil
}

// RecordAccess сохраняет решение о доступе к медкарте
func (r *Repository) RecordAccess(ctx context.Context, entry *domain.AccessAuditEntry) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("access_audit_log").
		Columns(
			"requester_id",
			"requester_role",
			"provider_id",
			"patient_id",
			"allowed",
			"reason",
			"reservation_id",
			"emergency",
			"grant_id",
			"justification",
			"evaluated_at",
		).
		Values(
			entry.RequesterID,
			entry.RequesterRole,
			entry.ProviderID,
			entry.PatientID,
			entry.Allowed,
			entry.Reason,
			entry.ReservationID,
			entry.Emergency,
			entry.GrantID,
			entry.Justification,
			entry.EvaluatedAt.UTC(),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: RecordAccess - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID); err != nil {
		return fmt.Errorf("%w: RecordAccess - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}
