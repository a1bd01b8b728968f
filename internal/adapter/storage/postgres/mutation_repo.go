package postgres

import (
	"context"
	"fmt"

	"finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MutationRepo implements ports.MutationRepository.
type MutationRepo struct {
	pool Pool
}

// NewMutationRepo creates a new MutationRepo.
func NewMutationRepo(pool Pool) *MutationRepo {
	return &MutationRepo{pool: pool}
}

// Create inserts a ledger entry within a database transaction.
func (r *MutationRepo) Create(ctx context.Context, tx pgx.Tx, m *domain.Mutation) error {
	query := `INSERT INTO mutations
		(id, user_id, wallet_id, event_kind, event_id, direction, last_balance, amount, current_balance, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		m.ID, m.UserID, m.WalletID, m.Event.Kind, m.Event.ID, m.Direction,
		m.LastBalance, m.Amount, m.CurrentBalance, m.Description, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mutation: %w", err)
	}
	return nil
}

// ListByWallet returns the wallet's live ledger entries, newest first, with
// the total count of live entries for pagination.
func (r *MutationRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.Mutation, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM mutations WHERE wallet_id = $1 AND deleted_at IS NULL`
	if err := r.pool.QueryRow(ctx, countQuery, walletID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count mutations: %w", err)
	}

	query := `SELECT id, user_id, wallet_id, event_kind, event_id, direction, last_balance, amount, current_balance, description, created_at
		FROM mutations
		WHERE wallet_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	offset := (page - 1) * pageSize
	rows, err := r.pool.Query(ctx, query, walletID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list mutations: %w", err)
	}
	defer rows.Close()

	var mutations []domain.Mutation
	for rows.Next() {
		var m domain.Mutation
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.WalletID, &m.Event.Kind, &m.Event.ID, &m.Direction,
			&m.LastBalance, &m.Amount, &m.CurrentBalance, &m.Description, &m.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan mutation: %w", err)
		}
		mutations = append(mutations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate mutations: %w", err)
	}
	return mutations, total, nil
}

// SoftDeleteByEvent marks every mutation of the event deleted, within a
// transaction. Rows stay in place so balance history remains auditable.
func (r *MutationRepo) SoftDeleteByEvent(ctx context.Context, tx pgx.Tx, event domain.EventRef) error {
	query := `UPDATE mutations SET deleted_at = NOW()
		WHERE event_kind = $1 AND event_id = $2 AND deleted_at IS NULL`

	if _, err := tx.Exec(ctx, query, event.Kind, event.ID); err != nil {
		return fmt.Errorf("soft delete mutations: %w", err)
	}
	return nil
}
