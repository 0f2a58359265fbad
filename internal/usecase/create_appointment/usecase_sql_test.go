package create_appointment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	auditRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/audit"
	reservationRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/reservation"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/logger"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/txmanager"
)

var reservationColumns = []string{
	"id", "provider_id", "patient_id", "scheduled_at", "modality", "status", "fee",
	"reason", "notes", "cancellation_reason", "cancelled_at", "created_at", "updated_at",
}

// recordingBeginner запоминает параметры открытых транзакций
type recordingBeginner struct {
	db   *dbmetrics.DB
	opts []*sql.TxOptions
}

func (b *recordingBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	b.opts = append(b.opts, opts)
	return b.db.BeginTx(ctx, opts)
}

func newSQLFixture(t *testing.T) (*UseCase, *recordingBeginner, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	wrapped := dbmetrics.Wrap(db, nil)
	beginner := &recordingBeginner{db: wrapped}

	uc := NewUseCase(
		reservationRepo.NewRepository(wrapped),
		auditRepo.NewRepository(wrapped),
		&fakeTemplates{},
		&fakeProviders{},
		&fakeCache{},
		&fakeNotifier{},
		txmanager.NewTransactionManager(beginner),
		&fakeMetrics{},
		Settings{SlotMinutes: 30, LockTimeout: time.Second},
		logger.NewNop(),
	)
	uc.timeProvider = fixedTime{t: now}
	return uc, beginner, mock
}

func TestExecute_SQL_LockThenCheckThenInsert(t *testing.T) {
	uc, beginner, mock := newSQLFixture(t)

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM reservations .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(reservationColumns))
	mock.ExpectQuery(`INSERT INTO reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))
	mock.ExpectQuery(`INSERT INTO appointment_events`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))
	mock.ExpectCommit()

	got, err := uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	require.Len(t, beginner.opts, 1)
	assert.Equal(t, sql.LevelReadCommitted, beginner.opts[0].Isolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Проигравший гонку запрос получает блокировку после коммита победителя
// и видит его строку, поэтому причина конфликта определяется по ней.
func TestExecute_SQL_LoserSeesCommittedWinner(t *testing.T) {
	tests := []struct {
		name       string
		patient    any
		modality   string
		status     string
		wantReason domain.ConflictReason
	}{
		{name: "appointment", patient: int64(99), modality: "video", status: "scheduled", wantReason: domain.ConflictAlreadyBooked},
		{name: "block", patient: nil, modality: "blocked", status: "blocked", wantReason: domain.ConflictBlockedByProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, beginner, mock := newSQLFixture(t)

			winner := sqlmock.NewRows(reservationColumns).AddRow(
				int64(5), providerID, tt.patient, monday9, tt.modality, tt.status, 0.0,
				nil, nil, nil, nil, now, now,
			)

			mock.ExpectBegin()
			mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectQuery(`SELECT .+ FROM reservations .+ FOR UPDATE`).WillReturnRows(winner)
			mock.ExpectRollback()

			_, err := uc.Execute(context.Background(), validRequest())

			var conflict *domain.ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.wantReason, conflict.Reason)

			require.Len(t, beginner.opts, 1)
			assert.Equal(t, sql.LevelReadCommitted, beginner.opts[0].Isolation)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
