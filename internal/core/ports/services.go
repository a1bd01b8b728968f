//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

package ports

import (
	"context"
	"time"

	"finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// --- Ledger engine ---

// RecordMutationInput holds validated input for recording one balance change.
type RecordMutationInput struct {
	Event       domain.EventRef
	UserID      uuid.UUID
	WalletID    uuid.UUID
	Amount      decimal.Decimal
	Direction   domain.Direction
	Description string // empty = auto-generated from direction, amount, wallet name
}

// LedgerService is the sole writer of wallet balances and the sole creator
// of mutation records. RecordMutationTx runs inside a caller-owned
// transaction so composite business operations commit or roll back as one
// unit; RecordMutation is the convenience form owning its own transaction.
type LedgerService interface {
	RecordMutation(ctx context.Context, input RecordMutationInput) (*domain.Mutation, error)
	RecordMutationTx(ctx context.Context, tx pgx.Tx, input RecordMutationInput) (*domain.Mutation, error)
}

// --- Wallets ---

// CreateWalletInput holds validated input for wallet creation.
type CreateWalletInput struct {
	UserID         uuid.UUID
	Name           string
	InitialBalance decimal.Decimal
}

// TransferInput holds validated input for a wallet-to-wallet transfer.
type TransferInput struct {
	UserID       uuid.UUID
	FromWalletID uuid.UUID
	ToWalletID   uuid.UUID
	Amount       decimal.Decimal
	Note         *string
}

// WalletService manages wallets and wallet-to-wallet transfers.
type WalletService interface {
	CreateWallet(ctx context.Context, input CreateWalletInput) (*domain.Wallet, error)
	GetWallet(ctx context.Context, userID, walletID uuid.UUID) (*domain.Wallet, error)
	ListMutations(ctx context.Context, userID, walletID uuid.UUID, page, pageSize int) ([]domain.Mutation, int64, error)
	Transfer(ctx context.Context, input TransferInput) (*domain.Transfer, error)
}

// --- Transactions & incomes ---

// CreateEntryInput holds validated input for an expense or income.
type CreateEntryInput struct {
	UserID      uuid.UUID
	WalletID    uuid.UUID
	Amount      decimal.Decimal
	Label       string // category for transactions, source for incomes
	Note        *string
	ReferenceID *string // optional client idempotency reference
}

// EntryService records expense transactions and incomes and reverses them
// on deletion through compensating mutations.
type EntryService interface {
	CreateTransaction(ctx context.Context, input CreateEntryInput) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error
	CreateIncome(ctx context.Context, input CreateEntryInput) (*domain.Income, error)
	DeleteIncome(ctx context.Context, userID, id uuid.UUID) error
}

// --- Debts ---

// CreateDebtInput holds validated input for creating a receivable.
type CreateDebtInput struct {
	UserID       uuid.UUID
	WalletID     uuid.UUID
	Counterparty string
	Principal    decimal.Decimal
	Fee          decimal.Decimal
	Note         *string
}

// PayDebtInput holds validated input for a debt repayment.
type PayDebtInput struct {
	UserID uuid.UUID
	DebtID uuid.UUID
	Amount decimal.Decimal
	Note   *string
}

// DebtView bundles a debt with its repayment target for read responses.
type DebtView struct {
	Debt     domain.Debt            `json:"debt"`
	Target   domain.RepaymentTarget `json:"target"`
	Payments []domain.DebtPayment   `json:"payments"`
}

// DebtService manages receivables: creation debits the origin wallet,
// payments credit it, deletion reverses every prior entry through
// compensating mutations before the rows are soft-deleted.
type DebtService interface {
	CreateDebt(ctx context.Context, input CreateDebtInput) (*domain.Debt, error)
	PayDebt(ctx context.Context, input PayDebtInput) (*domain.DebtPayment, error)
	DeleteDebt(ctx context.Context, userID, debtID uuid.UUID) error
	GetDebt(ctx context.Context, userID, debtID uuid.UUID) (*DebtView, error)
}

// --- Supporting ports ---

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// TokenService resolves bearer tokens to the acting user.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed token claims.
type TokenClaims struct {
	UserID uuid.UUID
}
