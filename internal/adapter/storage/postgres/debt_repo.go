package postgres

import (
	"context"
	"errors"
	"fmt"

	"finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DebtRepo implements ports.DebtRepository.
type DebtRepo struct {
	pool Pool
}

// NewDebtRepo creates a new DebtRepo.
func NewDebtRepo(pool Pool) *DebtRepo {
	return &DebtRepo{pool: pool}
}

// CreateDebt inserts a debt row within a database transaction.
func (r *DebtRepo) CreateDebt(ctx context.Context, tx pgx.Tx, d *domain.Debt) error {
	query := `INSERT INTO debts (id, user_id, wallet_id, counterparty, principal, fee, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		d.ID, d.UserID, d.WalletID, d.Counterparty, d.Principal, d.Fee, d.Note, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert debt: %w", err)
	}
	return nil
}

// CreateTarget inserts a repayment target row within a database transaction.
func (r *DebtRepo) CreateTarget(ctx context.Context, tx pgx.Tx, t *domain.RepaymentTarget) error {
	query := `INSERT INTO repayment_targets (id, debt_id, total_amount, paid_amount, remaining_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.DebtID, t.TotalAmount, t.PaidAmount, t.RemainingAmount, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert repayment target: %w", err)
	}
	return nil
}

// CreatePayment inserts a payment row within a database transaction.
func (r *DebtRepo) CreatePayment(ctx context.Context, tx pgx.Tx, p *domain.DebtPayment) error {
	query := `INSERT INTO debt_payments (id, debt_id, user_id, wallet_id, amount, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		p.ID, p.DebtID, p.UserID, p.WalletID, p.Amount, p.Note, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert debt payment: %w", err)
	}
	return nil
}

// GetDebtByID fetches a live debt by its UUID.
func (r *DebtRepo) GetDebtByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error) {
	query := `SELECT id, user_id, wallet_id, counterparty, principal, fee, note, created_at
		FROM debts WHERE id = $1 AND deleted_at IS NULL`

	d := &domain.Debt{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.UserID, &d.WalletID, &d.Counterparty, &d.Principal, &d.Fee, &d.Note, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get debt by id: %w", err)
	}
	return d, nil
}

// GetTargetByDebtID fetches the live repayment target of a debt.
func (r *DebtRepo) GetTargetByDebtID(ctx context.Context, debtID uuid.UUID) (*domain.RepaymentTarget, error) {
	query := `SELECT id, debt_id, total_amount, paid_amount, remaining_amount, status, created_at, updated_at
		FROM repayment_targets WHERE debt_id = $1 AND deleted_at IS NULL`

	t := &domain.RepaymentTarget{}
	err := r.pool.QueryRow(ctx, query, debtID).Scan(
		&t.ID, &t.DebtID, &t.TotalAmount, &t.PaidAmount, &t.RemainingAmount, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get repayment target: %w", err)
	}
	return t, nil
}

// GetTargetForUpdate fetches the repayment target with pessimistic locking,
// serializing concurrent payments against the same debt.
// This MUST be called within a transaction.
func (r *DebtRepo) GetTargetForUpdate(ctx context.Context, tx pgx.Tx, debtID uuid.UUID) (*domain.RepaymentTarget, error) {
	query := `SELECT id, debt_id, total_amount, paid_amount, remaining_amount, status, created_at, updated_at
		FROM repayment_targets WHERE debt_id = $1 AND deleted_at IS NULL FOR UPDATE`

	t := &domain.RepaymentTarget{}
	err := tx.QueryRow(ctx, query, debtID).Scan(
		&t.ID, &t.DebtID, &t.TotalAmount, &t.PaidAmount, &t.RemainingAmount, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get repayment target for update: %w", err)
	}
	return t, nil
}

// UpdateTarget persists the paid and remaining amounts and the status of a
// repayment target within a database transaction.
func (r *DebtRepo) UpdateTarget(ctx context.Context, tx pgx.Tx, t *domain.RepaymentTarget) error {
	query := `UPDATE repayment_targets
		SET paid_amount = $1, remaining_amount = $2, status = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL`

	tag, err := tx.Exec(ctx, query, t.PaidAmount, t.RemainingAmount, t.Status, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update repayment target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repayment target not found: %s", t.ID)
	}
	return nil
}

const listPaymentsQuery = `SELECT id, debt_id, user_id, wallet_id, amount, note, created_at
	FROM debt_payments WHERE debt_id = $1 AND deleted_at IS NULL
	ORDER BY created_at ASC`

// ListPayments returns the live payments of a debt, oldest first.
func (r *DebtRepo) ListPayments(ctx context.Context, debtID uuid.UUID) ([]domain.DebtPayment, error) {
	rows, err := r.pool.Query(ctx, listPaymentsQuery, debtID)
	if err != nil {
		return nil, fmt.Errorf("list debt payments: %w", err)
	}
	return scanPayments(rows)
}

// ListPaymentsTx is ListPayments inside a database transaction, so the
// listing sees the same snapshot the transaction's locks protect.
func (r *DebtRepo) ListPaymentsTx(ctx context.Context, tx pgx.Tx, debtID uuid.UUID) ([]domain.DebtPayment, error) {
	rows, err := tx.Query(ctx, listPaymentsQuery, debtID)
	if err != nil {
		return nil, fmt.Errorf("list debt payments: %w", err)
	}
	return scanPayments(rows)
}

func scanPayments(rows pgx.Rows) ([]domain.DebtPayment, error) {
	defer rows.Close()

	var payments []domain.DebtPayment
	for rows.Next() {
		var p domain.DebtPayment
		if err := rows.Scan(&p.ID, &p.DebtID, &p.UserID, &p.WalletID, &p.Amount, &p.Note, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan debt payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debt payments: %w", err)
	}
	return payments, nil
}

// SoftDeleteDebt marks a debt deleted within a database transaction.
func (r *DebtRepo) SoftDeleteDebt(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `UPDATE debts SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete debt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("debt not found: %s", id)
	}
	return nil
}

// SoftDeleteTarget marks a debt's repayment target deleted within a
// database transaction.
func (r *DebtRepo) SoftDeleteTarget(ctx context.Context, tx pgx.Tx, debtID uuid.UUID) error {
	query := `UPDATE repayment_targets SET deleted_at = NOW() WHERE debt_id = $1 AND deleted_at IS NULL`

	if _, err := tx.Exec(ctx, query, debtID); err != nil {
		return fmt.Errorf("soft delete repayment target: %w", err)
	}
	return nil
}

// SoftDeletePayment marks a payment deleted within a database transaction.
func (r *DebtRepo) SoftDeletePayment(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `UPDATE debt_payments SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	if _, err := tx.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("soft delete debt payment: %w", err)
	}
	return nil
}
