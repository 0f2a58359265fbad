package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/psqlbuilder"
)

const table = "reservations"

var columns = []string{
	"id",
	"provider_id",
	"patient_id",
	"scheduled_at",
	"modality",
	"status",
	"fee",
	"reason",
	"notes",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository реестр резерваций (приёмы пациентов и блокировки врача)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория резерваций
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// LockSlot берёт транзакционную advisory-блокировку на ключ (provider, instant).
// Блокировка освобождается при завершении транзакции, поэтому вызов возможен только внутри неё.
func (r *Repository) LockSlot(ctx context.Context, providerID int64, instant time.Time) error {
	if !dbmetrics.IsInTransaction(ctx) {
		return ErrNoTransaction
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	key := fmt.Sprintf("reservation:%d:%d", providerID, instant.UTC().Unix())
	query, args, err := psqlbuilder.Select().
		Column(squirrel.Expr("pg_advisory_xact_lock(hashtext(?))", key)).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: LockSlot - build query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return classify("LockSlot", err)
	}

	return nil
}

// FindOccupying возвращает резервации с занимающим статусом, начало которых попадает в [from, to).
// Внутри транзакции строки блокируются (FOR UPDATE).
func (r *Repository) FindOccupying(ctx context.Context, providerID int64, from, to time.Time, excludeID *int64) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"provider_id": providerID}).
		Where(squirrel.GtOrEq{"scheduled_at": from.UTC()}).
		Where(squirrel.Lt{"scheduled_at": to.UTC()}).
		Where(squirrel.Eq{"status": statusStrings(domain.OccupyingStatuses)}).
		OrderBy("scheduled_at ASC")

	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
	}

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindOccupying - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("FindOccupying", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// Create сохраняет новую резервацию.
// Нарушение частичного уникального индекса возвращается как ErrSlotTaken.
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"provider_id",
			"patient_id",
			"scheduled_at",
			"modality",
			"status",
			"fee",
			"reason",
			"notes",
		).
		Values(
			res.ProviderID,
			res.PatientID,
			res.ScheduledAt.UTC(),
			res.Modality,
			res.Status,
			res.Fee,
			res.Reason,
			res.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&res.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, classify("Create", err)
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return res, nil
}

// GetByID получает резервацию по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	return r.getByID(ctx, "GetByID", id, false)
}

// GetByIDForUpdate получает резервацию по ID и блокирует строку до конца транзакции
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error) {
	if !dbmetrics.IsInTransaction(ctx) {
		return nil, ErrNoTransaction
	}
	return r.getByID(ctx, "GetByIDForUpdate", id, true)
}

func (r *Repository) getByID(ctx context.Context, op string, id int64, forUpdate bool) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id})
	if forUpdate {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan reservation: %v", ErrScanRow, op, err)
	}

	return res, nil
}

// List возвращает резервации по фильтру
//
// Примеры:
//
// 1. История пациента, сначала новые:
//    filter := domain.ReservationFilter{PatientID: &patientID, NewestFirst: true}
//
// 2. Расписание врача на период (включая блокировки):
//    filter := domain.ReservationFilter{ProviderID: &providerID, From: &from, To: &to}
//
// 3. Просроченные приёмы для отметки неявки:
//    filter := domain.ReservationFilter{To: &before, Statuses: []domain.ReservationStatus{domain.StatusScheduled, domain.StatusConfirmed}}
func (r *Repository) List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).From(table)

	if filter.ProviderID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"provider_id": *filter.ProviderID})
	}
	if filter.PatientID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"patient_id": *filter.PatientID})
	}
	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"scheduled_at": filter.From.UTC()})
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"scheduled_at": filter.To.UTC()})
	}
	if len(filter.Statuses) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	}

	if filter.NewestFirst {
		selectBuilder = selectBuilder.OrderBy("scheduled_at DESC", "id DESC")
	} else {
		selectBuilder = selectBuilder.OrderBy("scheduled_at ASC", "id ASC")
	}
	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(filter.Limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// UpdateStatus переводит резервацию из статуса from в статус to.
// Если статус уже изменён другим запросом, возвращает ErrStaleState.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to domain.ReservationStatus) (*domain.Reservation, error) {
	return r.update(ctx, "UpdateStatus", id, from,
		psqlbuilder.Update(table).Set("status", to))
}

// Cancel отменяет приём с указанием причины
func (r *Repository) Cancel(ctx context.Context, id int64, from domain.ReservationStatus, reason *string) (*domain.Reservation, error) {
	return r.update(ctx, "Cancel", id, from,
		psqlbuilder.Update(table).
			Set("status", domain.StatusCancelled).
			Set("cancellation_reason", reason).
			Set("cancelled_at", squirrel.Expr("NOW()")))
}

// Reschedule переносит приём на новое время и сбрасывает статус в scheduled
func (r *Repository) Reschedule(ctx context.Context, id int64, from domain.ReservationStatus, instant time.Time) (*domain.Reservation, error) {
	return r.update(ctx, "Reschedule", id, from,
		psqlbuilder.Update(table).
			Set("scheduled_at", instant.UTC()).
			Set("status", domain.StatusScheduled))
}

func (r *Repository) update(ctx context.Context, op string, id int64, from domain.ReservationStatus, builder squirrel.UpdateBuilder) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaleState
	}
	if err != nil {
		return nil, classify(op, err)
	}

	return res, nil
}

// DeleteBlock удаляет блокировку врача. Приёмы пациентов этим методом не удаляются.
func (r *Repository) DeleteBlock(ctx context.Context, id, providerID int64) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(table).
		Where(squirrel.Eq{
			"id":          id,
			"provider_id": providerID,
			"status":      domain.StatusBlocked,
		}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: DeleteBlock - build delete query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: DeleteBlock - execute delete: %v", ErrExecQuery, err)
	}

	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var (
		res                  domain.Reservation
		patientID            sql.NullInt64
		createdAt, updatedAt sql.NullTime
	)

	err := row.Scan(
		&res.ID,
		&res.ProviderID,
		&patientID,
		&res.ScheduledAt,
		&res.Modality,
		&res.Status,
		&res.Fee,
		&res.Reason,
		&res.Notes,
		&res.CancellationReason,
		&res.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if patientID.Valid {
		id := patientID.Int64
		res.PatientID = &id
	}
	res.ScheduledAt = res.ScheduledAt.UTC()
	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return &res, nil
}

// scanReservations сканирует результаты запроса в слайс резерваций
func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	reservations := make([]*domain.Reservation, 0)

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %v", ErrScanRow, err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %v", ErrScanRow, err)
	}

	return reservations, nil
}

func joinColumns() string {
	out := columns[0]
	for _, c := range columns[1:] {
		out += ", " + c
	}
	return out
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
