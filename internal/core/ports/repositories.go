//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

package ports

import (
	"context"

	"finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks; GetByIDForUpdate
// takes the exclusive row lock the ledger engine serializes on.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
}

// MutationRepository defines persistence for ledger entries. Mutations are
// insert-only; the only update ever performed is the soft-delete cascade
// when the owning business event is removed.
type MutationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, mutation *domain.Mutation) error
	ListByWallet(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.Mutation, int64, error)
	SoftDeleteByEvent(ctx context.Context, tx pgx.Tx, event domain.EventRef) error
}

// TransactionRepository defines persistence for expense transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	SoftDelete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// IncomeRepository defines persistence for incomes.
type IncomeRepository interface {
	Create(ctx context.Context, tx pgx.Tx, income *domain.Income) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Income, error)
	SoftDelete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// TransferRepository defines persistence for wallet-to-wallet transfers.
type TransferRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)
}

// DebtRepository defines persistence for debts, their repayment targets and
// payments. GetTargetForUpdate extends the wallet lock discipline to the
// repayment target row, closing the check-then-act race between concurrent
// payments against the same debt.
type DebtRepository interface {
	CreateDebt(ctx context.Context, tx pgx.Tx, debt *domain.Debt) error
	CreateTarget(ctx context.Context, tx pgx.Tx, target *domain.RepaymentTarget) error
	CreatePayment(ctx context.Context, tx pgx.Tx, payment *domain.DebtPayment) error
	GetDebtByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error)
	GetTargetByDebtID(ctx context.Context, debtID uuid.UUID) (*domain.RepaymentTarget, error)
	GetTargetForUpdate(ctx context.Context, tx pgx.Tx, debtID uuid.UUID) (*domain.RepaymentTarget, error)
	UpdateTarget(ctx context.Context, tx pgx.Tx, target *domain.RepaymentTarget) error
	ListPayments(ctx context.Context, debtID uuid.UUID) ([]domain.DebtPayment, error)
	ListPaymentsTx(ctx context.Context, tx pgx.Tx, debtID uuid.UUID) ([]domain.DebtPayment, error)
	SoftDeleteDebt(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	SoftDeleteTarget(ctx context.Context, tx pgx.Tx, debtID uuid.UUID) error
	SoftDeletePayment(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// IdempotencyRepository defines persistence for idempotency logs (DB backup).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
