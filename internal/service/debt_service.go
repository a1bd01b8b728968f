package service

import (
	"context"
	"fmt"

	"finance-ledger/internal/core/domain"
	"finance-ledger/internal/core/ports"
	"finance-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DebtServiceImpl implements ports.DebtService.
type DebtServiceImpl struct {
	debtRepo     ports.DebtRepository
	mutationRepo ports.MutationRepository
	ledger       ports.LedgerService
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewDebtService creates a new DebtServiceImpl.
func NewDebtService(
	debtRepo ports.DebtRepository,
	mutationRepo ports.MutationRepository,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *DebtServiceImpl {
	return &DebtServiceImpl{
		debtRepo:     debtRepo,
		mutationRepo: mutationRepo,
		ledger:       ledger,
		transactor:   transactor,
		log:          log,
	}
}

// CreateDebt creates a receivable: the debt and its repayment target rows,
// a DEBIT mutation for the principal leaving the wallet and, when the fee
// is non-zero, a second DEBIT for the fee. One business event, up to two
// ledger entries, all inside one transaction.
func (s *DebtServiceImpl) CreateDebt(ctx context.Context, input ports.CreateDebtInput) (*domain.Debt, error) {
	if input.Principal.IsNegative() || input.Principal.IsZero() {
		return nil, apperror.ErrInvalidAmount()
	}
	if input.Fee.IsNegative() {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	now := nowUTC()
	debt := &domain.Debt{
		ID:           uuid.New(),
		UserID:       input.UserID,
		WalletID:     input.WalletID,
		Counterparty: input.Counterparty,
		Principal:    input.Principal,
		Fee:          input.Fee,
		Note:         input.Note,
		CreatedAt:    now,
	}
	if err := s.debtRepo.CreateDebt(ctx, dbTx, debt); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create debt: %w", err))
	}

	total := input.Principal.Add(input.Fee)
	target := &domain.RepaymentTarget{
		ID:              uuid.New(),
		DebtID:          debt.ID,
		TotalAmount:     total,
		PaidAmount:      decimal.Zero,
		RemainingAmount: total,
		Status:          domain.RepaymentStatusUnpaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.debtRepo.CreateTarget(ctx, dbTx, target); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create repayment target: %w", err))
	}

	event := domain.EventRef{Kind: domain.EventDebt, ID: debt.ID}
	if _, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
		Event:       event,
		UserID:      input.UserID,
		WalletID:    input.WalletID,
		Amount:      input.Principal,
		Direction:   domain.DirectionDebit,
		Description: fmt.Sprintf("Debt to %s: principal", input.Counterparty),
	}); err != nil {
		return nil, err
	}
	if input.Fee.GreaterThan(decimal.Zero) {
		if _, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
			Event:       event,
			UserID:      input.UserID,
			WalletID:    input.WalletID,
			Amount:      input.Fee,
			Direction:   domain.DirectionDebit,
			Description: fmt.Sprintf("Debt to %s: fee", input.Counterparty),
		}); err != nil {
			return nil, err
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("debt_id", debt.ID.String()).
		Str("wallet_id", input.WalletID.String()).
		Str("principal", input.Principal.String()).
		Str("fee", input.Fee.String()).
		Msg("debt created")

	return debt, nil
}

// PayDebt records one incoming repayment. The repayment target row is
// locked before the remaining-amount check so concurrent payments against
// the same debt cannot both pass it. The payment credits the debt's wallet
// through the ledger engine inside the same transaction.
func (s *DebtServiceImpl) PayDebt(ctx context.Context, input ports.PayDebtInput) (*domain.DebtPayment, error) {
	if input.Amount.IsNegative() || input.Amount.IsZero() {
		return nil, apperror.ErrInvalidAmount()
	}

	debt, err := s.debtRepo.GetDebtByID(ctx, input.DebtID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get debt: %w", err))
	}
	if debt == nil || debt.UserID != input.UserID {
		return nil, apperror.ErrDebtNotFound()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	target, err := s.debtRepo.GetTargetForUpdate(ctx, dbTx, debt.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock repayment target: %w", err))
	}
	if target == nil {
		return nil, apperror.ErrDebtNotFound()
	}
	if target.Status == domain.RepaymentStatusPaid {
		return nil, apperror.ErrDebtAlreadyPaid()
	}
	if !target.CanAccept(input.Amount) {
		return nil, apperror.ErrPaymentExceedsRemaining()
	}

	target.ApplyPayment(input.Amount)
	target.UpdatedAt = nowUTC()
	if err := s.debtRepo.UpdateTarget(ctx, dbTx, target); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update repayment target: %w", err))
	}

	payment := &domain.DebtPayment{
		ID:        uuid.New(),
		DebtID:    debt.ID,
		UserID:    input.UserID,
		WalletID:  debt.WalletID,
		Amount:    input.Amount,
		Note:      input.Note,
		CreatedAt: nowUTC(),
	}
	if err := s.debtRepo.CreatePayment(ctx, dbTx, payment); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create payment: %w", err))
	}

	if _, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
		Event:       domain.EventRef{Kind: domain.EventDebtPayment, ID: payment.ID},
		UserID:      input.UserID,
		WalletID:    debt.WalletID,
		Amount:      input.Amount,
		Direction:   domain.DirectionCredit,
		Description: fmt.Sprintf("Payment from %s", debt.Counterparty),
	}); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("debt_id", debt.ID.String()).
		Str("payment_id", payment.ID.String()).
		Str("amount", input.Amount.String()).
		Str("status", string(target.Status)).
		Msg("debt payment recorded")

	return payment, nil
}

// DeleteDebt removes a debt by compensation, never by discarding history:
// each prior payment is reversed with a DEBIT before its row is
// soft-deleted, then the original principal+fee debit is reversed with one
// CREDIT before the debt and target rows are soft-deleted.
// The repayment target row is locked first (same target-then-wallet order
// as PayDebt) so a payment committing mid-deletion cannot slip past the
// reversal pass.
func (s *DebtServiceImpl) DeleteDebt(ctx context.Context, userID, debtID uuid.UUID) error {
	debt, err := s.debtRepo.GetDebtByID(ctx, debtID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get debt: %w", err))
	}
	if debt == nil || debt.UserID != userID {
		return apperror.ErrDebtNotFound()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	target, err := s.debtRepo.GetTargetForUpdate(ctx, dbTx, debtID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock repayment target: %w", err))
	}
	if target == nil {
		return apperror.ErrDebtNotFound()
	}

	payments, err := s.debtRepo.ListPaymentsTx(ctx, dbTx, debtID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("list payments: %w", err))
	}

	for i := range payments {
		payment := &payments[i]
		event := domain.EventRef{Kind: domain.EventDebtPayment, ID: payment.ID}
		if _, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
			Event:       event,
			UserID:      userID,
			WalletID:    payment.WalletID,
			Amount:      payment.Amount,
			Direction:   domain.DirectionDebit,
			Description: fmt.Sprintf("Reversal of payment %s", payment.ID),
		}); err != nil {
			return err
		}
		if err := s.debtRepo.SoftDeletePayment(ctx, dbTx, payment.ID); err != nil {
			return apperror.InternalError(fmt.Errorf("delete payment: %w", err))
		}
		if err := s.mutationRepo.SoftDeleteByEvent(ctx, dbTx, event); err != nil {
			return apperror.InternalError(fmt.Errorf("delete payment mutations: %w", err))
		}
	}

	event := domain.EventRef{Kind: domain.EventDebt, ID: debt.ID}
	if _, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
		Event:       event,
		UserID:      userID,
		WalletID:    debt.WalletID,
		Amount:      debt.Principal.Add(debt.Fee),
		Direction:   domain.DirectionCredit,
		Description: fmt.Sprintf("Reversal of debt to %s", debt.Counterparty),
	}); err != nil {
		return err
	}

	if err := s.debtRepo.SoftDeleteTarget(ctx, dbTx, debt.ID); err != nil {
		return apperror.InternalError(fmt.Errorf("delete repayment target: %w", err))
	}
	if err := s.debtRepo.SoftDeleteDebt(ctx, dbTx, debt.ID); err != nil {
		return apperror.InternalError(fmt.Errorf("delete debt: %w", err))
	}
	if err := s.mutationRepo.SoftDeleteByEvent(ctx, dbTx, event); err != nil {
		return apperror.InternalError(fmt.Errorf("delete debt mutations: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("debt_id", debt.ID.String()).
		Int("payments_reversed", len(payments)).
		Msg("debt reversed and deleted")

	return nil
}

// GetDebt returns the debt with its repayment target and payments.
func (s *DebtServiceImpl) GetDebt(ctx context.Context, userID, debtID uuid.UUID) (*ports.DebtView, error) {
	debt, err := s.debtRepo.GetDebtByID(ctx, debtID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get debt: %w", err))
	}
	if debt == nil || debt.UserID != userID {
		return nil, apperror.ErrDebtNotFound()
	}

	target, err := s.debtRepo.GetTargetByDebtID(ctx, debtID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get repayment target: %w", err))
	}
	if target == nil {
		return nil, apperror.ErrDebtNotFound()
	}

	payments, err := s.debtRepo.ListPayments(ctx, debtID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list payments: %w", err))
	}

	return &ports.DebtView{Debt: *debt, Target: *target, Payments: payments}, nil
}
