package dto

import (
	"time"

	"finance-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	Name           string          `json:"name" binding:"required,min=1,max=100"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// WalletResponse is the response body for wallet queries.
type WalletResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// CreateEntryRequest is the request body for recording a transaction
// (expense) or an income. Label carries the category of an expense or the
// source of an income.
type CreateEntryRequest struct {
	WalletID    string          `json:"wallet_id" binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Label       string          `json:"label" binding:"max=100"`
	Note        *string         `json:"note,omitempty" binding:"omitempty,max=500"`
	ReferenceID *string         `json:"reference_id,omitempty" binding:"omitempty,safe_id,max=100"`
}

// EntryResponse is the response body for a recorded transaction or income.
type EntryResponse struct {
	ID          string          `json:"id"`
	WalletID    string          `json:"wallet_id"`
	Amount      decimal.Decimal `json:"amount"`
	Label       string          `json:"label"`
	Note        *string         `json:"note,omitempty"`
	ReferenceID *string         `json:"reference_id,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// TransferRequest is the request body for moving money between wallets.
type TransferRequest struct {
	FromWalletID string          `json:"from_wallet_id" binding:"required,uuid"`
	ToWalletID   string          `json:"to_wallet_id" binding:"required,uuid"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Note         *string         `json:"note,omitempty" binding:"omitempty,max=500"`
}

// TransferResponse is the response body for a completed transfer.
type TransferResponse struct {
	ID           string          `json:"id"`
	FromWalletID string          `json:"from_wallet_id"`
	ToWalletID   string          `json:"to_wallet_id"`
	Amount       decimal.Decimal `json:"amount"`
	Note         *string         `json:"note,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

// CreateDebtRequest is the request body for recording a lent amount.
type CreateDebtRequest struct {
	WalletID     string          `json:"wallet_id" binding:"required,uuid"`
	Counterparty string          `json:"counterparty" binding:"required,min=1,max=100"`
	Principal    decimal.Decimal `json:"principal" binding:"required"`
	Fee          decimal.Decimal `json:"fee"`
	Note         *string         `json:"note,omitempty" binding:"omitempty,max=500"`
}

// PayDebtRequest is the request body for recording an incoming repayment.
type PayDebtRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Note   *string         `json:"note,omitempty" binding:"omitempty,max=500"`
}

// DebtResponse is the response body for a debt with its repayment state.
type DebtResponse struct {
	ID              string                `json:"id"`
	WalletID        string                `json:"wallet_id"`
	Counterparty    string                `json:"counterparty"`
	Principal       decimal.Decimal       `json:"principal"`
	Fee             decimal.Decimal       `json:"fee"`
	Note            *string               `json:"note,omitempty"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	PaidAmount      decimal.Decimal       `json:"paid_amount"`
	RemainingAmount decimal.Decimal       `json:"remaining_amount"`
	Status          string                `json:"status"`
	Payments        []DebtPaymentResponse `json:"payments,omitempty"`
	CreatedAt       string                `json:"created_at"`
}

// DebtPaymentResponse is one repayment inside a DebtResponse.
type DebtPaymentResponse struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Note      *string         `json:"note,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// MutationResponse is one ledger entry of a wallet.
type MutationResponse struct {
	ID             string          `json:"id"`
	WalletID       string          `json:"wallet_id"`
	EventKind      string          `json:"event_kind"`
	EventID        string          `json:"event_id"`
	Direction      string          `json:"direction"`
	LastBalance    decimal.Decimal `json:"last_balance"`
	Amount         decimal.Decimal `json:"amount"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Description    string          `json:"description"`
	CreatedAt      string          `json:"created_at"`
}

// MutationListResponse wraps a paginated ledger listing.
type MutationListResponse struct {
	Items      []MutationResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// FromWallet converts a domain wallet to its response shape.
func FromWallet(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID.String(),
		Name:      w.Name,
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

// FromMutation converts a domain ledger entry to its response shape.
func FromMutation(m *domain.Mutation) MutationResponse {
	return MutationResponse{
		ID:             m.ID.String(),
		WalletID:       m.WalletID.String(),
		EventKind:      string(m.Event.Kind),
		EventID:        m.Event.ID.String(),
		Direction:      string(m.Direction),
		LastBalance:    m.LastBalance,
		Amount:         m.Amount,
		CurrentBalance: m.CurrentBalance,
		Description:    m.Description,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}
