package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"finance-ledger/internal/core/domain"
	"finance-ledger/internal/core/ports"
	"finance-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// EntryServiceImpl implements ports.EntryService.
type EntryServiceImpl struct {
	txnRepo      ports.TransactionRepository
	incomeRepo   ports.IncomeRepository
	mutationRepo ports.MutationRepository
	idempRepo    ports.IdempotencyRepository
	idempCache   ports.IdempotencyCache
	ledger       ports.LedgerService
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewEntryService creates a new EntryServiceImpl.
func NewEntryService(
	txnRepo ports.TransactionRepository,
	incomeRepo ports.IncomeRepository,
	mutationRepo ports.MutationRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *EntryServiceImpl {
	return &EntryServiceImpl{
		txnRepo:      txnRepo,
		incomeRepo:   incomeRepo,
		mutationRepo: mutationRepo,
		idempRepo:    idempRepo,
		idempCache:   idempCache,
		ledger:       ledger,
		transactor:   transactor,
		log:          log,
	}
}

// CreateTransaction records an expense: one transaction row plus exactly one
// DEBIT mutation, committed atomically.
func (s *EntryServiceImpl) CreateTransaction(ctx context.Context, input ports.CreateEntryInput) (*domain.Transaction, error) {
	if input.Amount.IsNegative() || input.Amount.IsZero() {
		return nil, apperror.ErrInvalidAmount()
	}

	var idempKey string
	if input.ReferenceID != nil {
		idempKey = domain.BuildIdempotencyKey(input.UserID, domain.EventTransaction, *input.ReferenceID)
		if cached, hit, err := s.checkIdempotency(ctx, idempKey); err != nil {
			return nil, err
		} else if hit {
			txn := &domain.Transaction{}
			if err := json.Unmarshal(cached, txn); err != nil {
				return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transaction: %w", err))
			}
			return txn, nil
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      input.UserID,
		WalletID:    input.WalletID,
		Amount:      input.Amount,
		Category:    input.Label,
		Note:        input.Note,
		ReferenceID: input.ReferenceID,
		CreatedAt:   nowUTC(),
	}
	if err := s.txnRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if _, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
		Event:     domain.EventRef{Kind: domain.EventTransaction, ID: txn.ID},
		UserID:    input.UserID,
		WalletID:  input.WalletID,
		Amount:    input.Amount,
		Direction: domain.DirectionDebit,
	}); err != nil {
		return nil, err
	}

	respJSON, err := json.Marshal(txn)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}
	if idempKey != "" {
		if err := s.idempRepo.Create(ctx, dbTx, &domain.IdempotencyLog{
			Key:          idempKey,
			EventKind:    domain.EventTransaction,
			EventID:      txn.ID,
			ResponseJSON: respJSON,
			CreatedAt:    txn.CreatedAt,
		}); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("save idempotency log: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if idempKey != "" {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}

	s.log.Info().
		Str("transaction_id", txn.ID.String()).
		Str("wallet_id", input.WalletID.String()).
		Str("amount", input.Amount.String()).
		Msg("transaction recorded")

	return txn, nil
}

// DeleteTransaction reverses the transaction's balance effect through a
// compensating CREDIT mutation, then soft-deletes the row and its mutation.
func (s *EntryServiceImpl) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error {
	txn, err := s.txnRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil || txn.UserID != userID {
		return apperror.ErrNotFound("transaction")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	event := domain.EventRef{Kind: domain.EventTransaction, ID: txn.ID}
	if _, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
		Event:       event,
		UserID:      userID,
		WalletID:    txn.WalletID,
		Amount:      txn.Amount,
		Direction:   domain.DirectionCredit,
		Description: fmt.Sprintf("Reversal of transaction %s", txn.ID),
	}); err != nil {
		return err
	}

	// Mark the row and its mutations deleted. The original and compensating
	// entries cancel out, so the live mutation sum still equals the balance.
	if err := s.txnRepo.SoftDelete(ctx, dbTx, txn.ID); err != nil {
		return apperror.InternalError(fmt.Errorf("delete transaction: %w", err))
	}
	if err := s.mutationRepo.SoftDeleteByEvent(ctx, dbTx, event); err != nil {
		return apperror.InternalError(fmt.Errorf("delete mutations: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("transaction_id", txn.ID.String()).Msg("transaction reversed and deleted")
	return nil
}

// CreateIncome records an income: one income row plus exactly one CREDIT
// mutation, committed atomically.
func (s *EntryServiceImpl) CreateIncome(ctx context.Context, input ports.CreateEntryInput) (*domain.Income, error) {
	if input.Amount.IsNegative() || input.Amount.IsZero() {
		return nil, apperror.ErrInvalidAmount()
	}

	var idempKey string
	if input.ReferenceID != nil {
		idempKey = domain.BuildIdempotencyKey(input.UserID, domain.EventIncome, *input.ReferenceID)
		if cached, hit, err := s.checkIdempotency(ctx, idempKey); err != nil {
			return nil, err
		} else if hit {
			income := &domain.Income{}
			if err := json.Unmarshal(cached, income); err != nil {
				return nil, apperror.InternalError(fmt.Errorf("unmarshal cached income: %w", err))
			}
			return income, nil
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	income := &domain.Income{
		ID:          uuid.New(),
		UserID:      input.UserID,
		WalletID:    input.WalletID,
		Amount:      input.Amount,
		Source:      input.Label,
		Note:        input.Note,
		ReferenceID: input.ReferenceID,
		CreatedAt:   nowUTC(),
	}
	if err := s.incomeRepo.Create(ctx, dbTx, income); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create income: %w", err))
	}

	if _, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
		Event:     domain.EventRef{Kind: domain.EventIncome, ID: income.ID},
		UserID:    input.UserID,
		WalletID:  input.WalletID,
		Amount:    input.Amount,
		Direction: domain.DirectionCredit,
	}); err != nil {
		return nil, err
	}

	respJSON, err := json.Marshal(income)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}
	if idempKey != "" {
		if err := s.idempRepo.Create(ctx, dbTx, &domain.IdempotencyLog{
			Key:          idempKey,
			EventKind:    domain.EventIncome,
			EventID:      income.ID,
			ResponseJSON: respJSON,
			CreatedAt:    income.CreatedAt,
		}); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("save idempotency log: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if idempKey != "" {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}

	s.log.Info().
		Str("income_id", income.ID.String()).
		Str("wallet_id", input.WalletID.String()).
		Str("amount", input.Amount.String()).
		Msg("income recorded")

	return income, nil
}

// DeleteIncome reverses the income's balance effect through a compensating
// DEBIT mutation, then soft-deletes the row and its mutation. The reversal
// is rejected if the wallet can no longer cover it.
func (s *EntryServiceImpl) DeleteIncome(ctx context.Context, userID, id uuid.UUID) error {
	income, err := s.incomeRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get income: %w", err))
	}
	if income == nil || income.UserID != userID {
		return apperror.ErrNotFound("income")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	event := domain.EventRef{Kind: domain.EventIncome, ID: income.ID}
	if _, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
		Event:       event,
		UserID:      userID,
		WalletID:    income.WalletID,
		Amount:      income.Amount,
		Direction:   domain.DirectionDebit,
		Description: fmt.Sprintf("Reversal of income %s", income.ID),
	}); err != nil {
		return err
	}

	if err := s.incomeRepo.SoftDelete(ctx, dbTx, income.ID); err != nil {
		return apperror.InternalError(fmt.Errorf("delete income: %w", err))
	}
	if err := s.mutationRepo.SoftDeleteByEvent(ctx, dbTx, event); err != nil {
		return apperror.InternalError(fmt.Errorf("delete mutations: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("income_id", income.ID.String()).Msg("income reversed and deleted")
	return nil
}

// checkIdempotency consults the Redis fast path, then the durable log.
func (s *EntryServiceImpl) checkIdempotency(ctx context.Context, key string) ([]byte, bool, error) {
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return cached, true, nil
	}

	idempLog, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		return idempLog.ResponseJSON, true, nil
	}
	return nil, false, nil
}
