package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepaymentStatus is the lifecycle state of a repayment target.
// UNPAID transitions to PAID exactly when the remaining amount reaches
// zero. There is no transition back to UNPAID.
type RepaymentStatus string

const (
	RepaymentStatusUnpaid RepaymentStatus = "UNPAID"
	RepaymentStatusPaid   RepaymentStatus = "PAID"
)

// Debt is a receivable: money lent out of a wallet, tracked until repaid.
// Creating a debt debits the origin wallet for the principal and, when
// non-zero, once more for the fee.
type Debt struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	WalletID     uuid.UUID       `json:"wallet_id"`
	Counterparty string          `json:"counterparty"`
	Principal    decimal.Decimal `json:"principal"`
	Fee          decimal.Decimal `json:"fee"`
	Note         *string         `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	DeletedAt    *time.Time      `json:"-"`
}

// RepaymentTarget tracks how much of a debt has been repaid.
type RepaymentTarget struct {
	ID              uuid.UUID       `json:"id"`
	DebtID          uuid.UUID       `json:"debt_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          RepaymentStatus `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       *time.Time      `json:"-"`
}

// CanAccept reports whether a payment of the given amount fits within the
// remaining balance of the target.
func (t *RepaymentTarget) CanAccept(amount decimal.Decimal) bool {
	return t.Status == RepaymentStatusUnpaid &&
		amount.GreaterThan(decimal.Zero) &&
		amount.LessThanOrEqual(t.RemainingAmount)
}

// ApplyPayment increments the paid amount, decrements the remaining amount
// and flips the status to PAID when remaining reaches exactly zero.
// Callers must validate with CanAccept first.
func (t *RepaymentTarget) ApplyPayment(amount decimal.Decimal) {
	t.PaidAmount = t.PaidAmount.Add(amount)
	t.RemainingAmount = t.RemainingAmount.Sub(amount)
	if t.RemainingAmount.IsZero() {
		t.Status = RepaymentStatusPaid
	}
}

// DebtPayment is one incoming repayment against a debt. Each payment
// produces exactly one CREDIT mutation on the debt's wallet.
type DebtPayment struct {
	ID        uuid.UUID       `json:"id"`
	DebtID    uuid.UUID       `json:"debt_id"`
	UserID    uuid.UUID       `json:"user_id"`
	WalletID  uuid.UUID       `json:"wallet_id"`
	Amount    decimal.Decimal `json:"amount"`
	Note      *string         `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	DeletedAt *time.Time      `json:"-"`
}
