package postgres

import (
	"context"
	"testing"
	"time"

	"finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(walletID uuid.UUID) *domain.Transaction {
	note := "weekly shop"
	ref := "order-001"
	return &domain.Transaction{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		WalletID:    walletID,
		Amount:      decimal.NewFromInt(30000),
		Category:    "groceries",
		Note:        &note,
		ReferenceID: &ref,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.UserID, txn.WalletID, txn.Amount, txn.Category, txn.Note, txn.ReferenceID, txn.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	rows := pgxmock.NewRows([]string{"id", "user_id", "wallet_id", "amount", "category", "note", "reference_id", "created_at"}).
		AddRow(txn.ID, txn.UserID, txn.WalletID, txn.Amount, txn.Category, txn.Note, txn.ReferenceID, txn.CreatedAt)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(txn.ID).
		WillReturnRows(rows)

	result, err := repo.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.Equal(t, "groceries", result.Category)
	assert.True(t, result.Amount.Equal(txn.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_SoftDelete_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions SET deleted_at").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.SoftDelete(context.Background(), tx, id)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncomeRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIncomeRepo(mock)
	income := &domain.Income{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		WalletID:  uuid.New(),
		Amount:    decimal.NewFromInt(5000000),
		Source:    "salary",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO incomes").
		WithArgs(income.ID, income.UserID, income.WalletID, income.Amount,
			income.Source, income.Note, income.ReferenceID, income.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, income)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncomeRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIncomeRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM incomes WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_CreateAndGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	transfer := &domain.Transfer{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		FromWalletID: uuid.New(),
		ToWalletID:   uuid.New(),
		Amount:       decimal.NewFromInt(300000),
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transfers").
		WithArgs(transfer.ID, transfer.UserID, transfer.FromWalletID, transfer.ToWalletID,
			transfer.Amount, transfer.Note, transfer.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx, transfer))

	rows := pgxmock.NewRows([]string{"id", "user_id", "from_wallet_id", "to_wallet_id", "amount", "note", "created_at"}).
		AddRow(transfer.ID, transfer.UserID, transfer.FromWalletID, transfer.ToWalletID,
			transfer.Amount, transfer.Note, transfer.CreatedAt)

	mock.ExpectQuery("SELECT .+ FROM transfers WHERE id").
		WithArgs(transfer.ID).
		WillReturnRows(rows)

	result, err := repo.GetByID(context.Background(), transfer.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, transfer.FromWalletID, result.FromWalletID)
	assert.True(t, result.Amount.Equal(transfer.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}
