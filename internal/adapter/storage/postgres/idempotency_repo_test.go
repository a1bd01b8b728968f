package postgres

import (
	"context"
	"testing"
	"time"

	"finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	log := &domain.IdempotencyLog{
		Key:          "user:TRANSACTION:req-1",
		EventKind:    domain.EventTransaction,
		EventID:      uuid.New(),
		ResponseJSON: []byte(`{"id":"abc"}`),
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO idempotency_logs").
		WithArgs(log.Key, log.EventKind, log.EventID, log.ResponseJSON, log.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, log)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	key := "user:INCOME:req-2"
	eventID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM idempotency_logs").
		WithArgs(key).
		WillReturnRows(pgxmock.NewRows([]string{"key", "event_kind", "event_id", "response_json", "created_at"}).
			AddRow(key, domain.EventIncome, eventID, []byte(`{"id":"xyz"}`), now))

	log, err := repo.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, domain.EventIncome, log.EventKind)
	assert.Equal(t, eventID, log.EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM idempotency_logs").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"key", "event_kind", "event_id", "response_json", "created_at"}))

	log, err := repo.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, log)
	assert.NoError(t, mock.ExpectationsWereMet())
}
