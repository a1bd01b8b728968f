package service

import (
	"context"
	"errors"
	"fmt"

	"finance-ledger/internal/core/domain"
	"finance-ledger/internal/core/ports"
	"finance-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SQLSTATE codes that mark a transient locking failure. The caller may
// retry the whole business operation; the engine never retries internally.
const (
	pgLockNotAvailable = "55P03"
	pgDeadlockDetected = "40P01"
	pgSerializationErr = "40001"
)

// LedgerServiceImpl implements ports.LedgerService. It is the sole writer
// of wallet balances and the sole creator of mutation records.
type LedgerServiceImpl struct {
	walletRepo   ports.WalletRepository
	mutationRepo ports.MutationRepository
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	mutationRepo ports.MutationRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo:   walletRepo,
		mutationRepo: mutationRepo,
		transactor:   transactor,
		log:          log,
	}
}

// RecordMutation records one balance change inside its own transaction.
func (s *LedgerServiceImpl) RecordMutation(ctx context.Context, input ports.RecordMutationInput) (*domain.Mutation, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	mutation, err := s.RecordMutationTx(ctx, dbTx, input)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return mutation, nil
}

// RecordMutationTx records one balance change inside a caller-owned
// transaction: it locks the wallet row, computes the new balance from the
// locked read, rejects a negative result, persists the balance and inserts
// the mutation row. The caller commits; any failure leaves the wallet
// balance and the mutation table untouched once the caller rolls back.
func (s *LedgerServiceImpl) RecordMutationTx(ctx context.Context, tx pgx.Tx, input ports.RecordMutationInput) (*domain.Mutation, error) {
	if !input.Direction.Valid() {
		return nil, apperror.ErrInvalidDirection(string(input.Direction))
	}
	if input.Amount.IsNegative() {
		return nil, apperror.ErrInvalidAmount()
	}

	// Exclusive lock on the wallet row. Serializes all concurrent mutation
	// attempts against this wallet; other wallets are unaffected.
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, tx, input.WalletID)
	if err != nil {
		return nil, classifyLockErr(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	lastBalance := wallet.Balance
	var currentBalance decimal.Decimal
	if input.Direction == domain.DirectionCredit {
		currentBalance = lastBalance.Add(input.Amount)
	} else {
		currentBalance = lastBalance.Sub(input.Amount)
	}

	if currentBalance.IsNegative() {
		return nil, apperror.ErrInsufficientBalance()
	}

	if err := s.walletRepo.UpdateBalance(ctx, tx, wallet.ID, currentBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	description := input.Description
	if description == "" {
		description = domain.DefaultDescription(input.Direction, input.Amount, wallet.Name)
	}

	mutation := &domain.Mutation{
		ID:             uuid.New(),
		UserID:         input.UserID,
		WalletID:       wallet.ID,
		Event:          input.Event,
		Direction:      input.Direction,
		LastBalance:    lastBalance,
		Amount:         input.Amount,
		CurrentBalance: currentBalance,
		Description:    description,
		CreatedAt:      nowUTC(),
	}

	if err := s.mutationRepo.Create(ctx, tx, mutation); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create mutation: %w", err))
	}

	s.log.Debug().
		Str("wallet_id", wallet.ID.String()).
		Str("direction", string(input.Direction)).
		Str("amount", input.Amount.String()).
		Str("balance", currentBalance.String()).
		Msg("mutation recorded")

	return mutation, nil
}

// classifyLockErr maps transient locking failures onto the retryable
// SYS_002 code; everything else becomes an internal error.
func classifyLockErr(err error) *apperror.AppError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationErr:
			return apperror.ErrLockTimeout(err)
		}
	}
	return apperror.InternalError(err)
}
