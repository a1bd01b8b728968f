package postgres

import (
	"context"
	"errors"
	"fmt"

	"finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts an expense row within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, user_id, wallet_id, amount, category, note, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.UserID, t.WalletID, t.Amount, t.Category, t.Note, t.ReferenceID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a live transaction by its UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT id, user_id, wallet_id, amount, category, note, reference_id, created_at
		FROM transactions WHERE id = $1 AND deleted_at IS NULL`

	t := &domain.Transaction{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.UserID, &t.WalletID, &t.Amount, &t.Category, &t.Note, &t.ReferenceID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// SoftDelete marks a transaction deleted within a database transaction.
func (r *TransactionRepo) SoftDelete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `UPDATE transactions SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// IncomeRepo implements ports.IncomeRepository.
type IncomeRepo struct {
	pool Pool
}

// NewIncomeRepo creates a new IncomeRepo.
func NewIncomeRepo(pool Pool) *IncomeRepo {
	return &IncomeRepo{pool: pool}
}

// Create inserts an income row within a database transaction.
func (r *IncomeRepo) Create(ctx context.Context, tx pgx.Tx, income *domain.Income) error {
	query := `INSERT INTO incomes (id, user_id, wallet_id, amount, source, note, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		income.ID, income.UserID, income.WalletID, income.Amount,
		income.Source, income.Note, income.ReferenceID, income.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert income: %w", err)
	}
	return nil
}

// GetByID fetches a live income by its UUID.
func (r *IncomeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Income, error) {
	query := `SELECT id, user_id, wallet_id, amount, source, note, reference_id, created_at
		FROM incomes WHERE id = $1 AND deleted_at IS NULL`

	income := &domain.Income{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&income.ID, &income.UserID, &income.WalletID, &income.Amount,
		&income.Source, &income.Note, &income.ReferenceID, &income.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get income by id: %w", err)
	}
	return income, nil
}

// SoftDelete marks an income deleted within a database transaction.
func (r *IncomeRepo) SoftDelete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `UPDATE incomes SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete income: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("income not found: %s", id)
	}
	return nil
}

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct {
	pool Pool
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(pool Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

// Create inserts a transfer row within a database transaction.
func (r *TransferRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transfer) error {
	query := `INSERT INTO transfers (id, user_id, from_wallet_id, to_wallet_id, amount, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.UserID, t.FromWalletID, t.ToWalletID, t.Amount, t.Note, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByID fetches a transfer by its UUID.
func (r *TransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	query := `SELECT id, user_id, from_wallet_id, to_wallet_id, amount, note, created_at
		FROM transfers WHERE id = $1 AND deleted_at IS NULL`

	t := &domain.Transfer{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.UserID, &t.FromWalletID, &t.ToWalletID, &t.Amount, &t.Note, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer by id: %w", err)
	}
	return t, nil
}
