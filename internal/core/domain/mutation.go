package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction represents the effect of a mutation on a wallet balance.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Valid reports whether the direction is one of the two recognized values.
func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// Opposite returns the reversing direction, used when a business event is
// deleted and its balance effect must be compensated.
func (d Direction) Opposite() Direction {
	if d == DirectionCredit {
		return DirectionDebit
	}
	return DirectionCredit
}

// EventKind discriminates the business event a mutation is attached to.
type EventKind string

const (
	EventTransaction   EventKind = "TRANSACTION"
	EventIncome        EventKind = "INCOME"
	EventDebt          EventKind = "DEBT"
	EventDebtPayment   EventKind = "DEBT_PAYMENT"
	EventTransfer      EventKind = "TRANSFER"
	EventWalletOpening EventKind = "WALLET_OPENING"
)

// Valid reports whether the kind is a known business event type.
func (k EventKind) Valid() bool {
	switch k {
	case EventTransaction, EventIncome, EventDebt, EventDebtPayment, EventTransfer, EventWalletOpening:
		return true
	}
	return false
}

// EventRef is the polymorphic reference from a mutation to the single
// business event that caused it: a discriminant plus the event's id.
type EventRef struct {
	Kind EventKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// Mutation is an immutable ledger entry recording one balance change.
// LastBalance and CurrentBalance snapshot the wallet balance immediately
// before and after the change; successive mutations of a wallet chain:
// each entry's LastBalance equals the previous entry's CurrentBalance.
type Mutation struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	WalletID       uuid.UUID       `json:"wallet_id"`
	Event          EventRef        `json:"event"`
	Direction      Direction       `json:"direction"`
	LastBalance    decimal.Decimal `json:"last_balance"`
	Amount         decimal.Decimal `json:"amount"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Description    string          `json:"description"`
	CreatedAt      time.Time       `json:"created_at"`
	DeletedAt      *time.Time      `json:"-"`
}

// SignedAmount returns the amount with its sign relative to the wallet:
// positive for credits, negative for debits.
func (m *Mutation) SignedAmount() decimal.Decimal {
	if m.Direction == DirectionDebit {
		return m.Amount.Neg()
	}
	return m.Amount
}

// DefaultDescription builds the fallback mutation description when the
// caller supplies none.
func DefaultDescription(direction Direction, amount decimal.Decimal, walletName string) string {
	if direction == DirectionCredit {
		return fmt.Sprintf("Credit: add %s to %s", amount.String(), walletName)
	}
	return fmt.Sprintf("Debit: subtract %s from %s", amount.String(), walletName)
}
