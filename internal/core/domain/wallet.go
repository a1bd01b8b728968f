package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is an account holding a monetary balance owned by one user.
// The balance is maintained exclusively by the ledger engine and always
// equals the sum of the wallet's signed mutation amounts in commit order.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *time.Time      `json:"-"`
}

// IsDeleted reports whether the wallet has been soft-deleted.
func (w *Wallet) IsDeleted() bool {
	return w.DeletedAt != nil
}
