package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDirection_Valid(t *testing.T) {
	tests := []struct {
		name      string
		direction Direction
		want      bool
	}{
		{"credit", DirectionCredit, true},
		{"debit", DirectionDebit, true},
		{"empty", Direction(""), false},
		{"lowercase", Direction("credit"), false},
		{"unknown", Direction("TRANSFER"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.direction.Valid())
		})
	}
}

func TestDirection_Opposite(t *testing.T) {
	assert.Equal(t, DirectionDebit, DirectionCredit.Opposite())
	assert.Equal(t, DirectionCredit, DirectionDebit.Opposite())
}

func TestDefaultDescription(t *testing.T) {
	amount := decimal.NewFromInt(30000)

	credit := DefaultDescription(DirectionCredit, amount, "Cash")
	assert.Equal(t, "Credit: add 30000 to Cash", credit)

	debit := DefaultDescription(DirectionDebit, amount, "Cash")
	assert.Equal(t, "Debit: subtract 30000 from Cash", debit)
}

func TestMutation_SignedAmount(t *testing.T) {
	m := &Mutation{Direction: DirectionCredit, Amount: decimal.NewFromInt(500)}
	assert.True(t, m.SignedAmount().Equal(decimal.NewFromInt(500)))

	m.Direction = DirectionDebit
	assert.True(t, m.SignedAmount().Equal(decimal.NewFromInt(-500)))
}

func TestEventKind_Valid(t *testing.T) {
	for _, k := range []EventKind{EventTransaction, EventIncome, EventDebt, EventDebtPayment, EventTransfer, EventWalletOpening} {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, EventKind("RECEIPT").Valid())
}

func TestRepaymentTarget_CanAccept(t *testing.T) {
	target := &RepaymentTarget{
		TotalAmount:     decimal.NewFromInt(50000),
		PaidAmount:      decimal.Zero,
		RemainingAmount: decimal.NewFromInt(50000),
		Status:          RepaymentStatusUnpaid,
	}

	assert.True(t, target.CanAccept(decimal.NewFromInt(50000)))
	assert.True(t, target.CanAccept(decimal.NewFromInt(1)))
	assert.False(t, target.CanAccept(decimal.NewFromInt(50001)))
	assert.False(t, target.CanAccept(decimal.Zero))
	assert.False(t, target.CanAccept(decimal.NewFromInt(-10)))

	target.Status = RepaymentStatusPaid
	assert.False(t, target.CanAccept(decimal.NewFromInt(1)))
}

func TestRepaymentTarget_ApplyPayment(t *testing.T) {
	target := &RepaymentTarget{
		TotalAmount:     decimal.NewFromInt(50000),
		PaidAmount:      decimal.Zero,
		RemainingAmount: decimal.NewFromInt(50000),
		Status:          RepaymentStatusUnpaid,
	}

	target.ApplyPayment(decimal.NewFromInt(20000))
	assert.True(t, target.PaidAmount.Equal(decimal.NewFromInt(20000)))
	assert.True(t, target.RemainingAmount.Equal(decimal.NewFromInt(30000)))
	assert.Equal(t, RepaymentStatusUnpaid, target.Status)

	// Status flips to PAID exactly when remaining reaches zero.
	target.ApplyPayment(decimal.NewFromInt(30000))
	assert.True(t, target.RemainingAmount.IsZero())
	assert.Equal(t, RepaymentStatusPaid, target.Status)
}
