package service

import (
	"context"
	"fmt"
	"strings"

	"finance-ledger/internal/core/domain"
	"finance-ledger/internal/core/ports"
	"finance-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo   ports.WalletRepository
	mutationRepo ports.MutationRepository
	transferRepo ports.TransferRepository
	ledger       ports.LedgerService
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	mutationRepo ports.MutationRepository,
	transferRepo ports.TransferRepository,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo:   walletRepo,
		mutationRepo: mutationRepo,
		transferRepo: transferRepo,
		ledger:       ledger,
		transactor:   transactor,
		log:          log,
	}
}

// CreateWallet creates a wallet. A non-zero initial balance is recorded as
// an income-kind mutation so the balance invariant holds from the start;
// the wallet row and the opening mutation commit or roll back together.
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, input ports.CreateWalletInput) (*domain.Wallet, error) {
	if input.Name == "" {
		return nil, apperror.Validation("wallet name is required")
	}
	if input.InitialBalance.IsNegative() {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	now := nowUTC()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    input.UserID,
		Name:      input.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	if input.InitialBalance.GreaterThan(decimal.Zero) {
		mutation, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
			Event:       domain.EventRef{Kind: domain.EventWalletOpening, ID: wallet.ID},
			UserID:      input.UserID,
			WalletID:    wallet.ID,
			Amount:      input.InitialBalance,
			Direction:   domain.DirectionCredit,
			Description: fmt.Sprintf("Opening balance for %s", wallet.Name),
		})
		if err != nil {
			return nil, err
		}
		wallet.Balance = mutation.CurrentBalance
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("user_id", input.UserID.String()).
		Msg("wallet created")

	return wallet, nil
}

// GetWallet fetches a wallet owned by the user.
func (s *WalletServiceImpl) GetWallet(ctx context.Context, userID, walletID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil || wallet.UserID != userID {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

// ListMutations returns the wallet's ledger entries, newest first.
func (s *WalletServiceImpl) ListMutations(ctx context.Context, userID, walletID uuid.UUID, page, pageSize int) ([]domain.Mutation, int64, error) {
	if _, err := s.GetWallet(ctx, userID, walletID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	mutations, total, err := s.mutationRepo.ListByWallet(ctx, walletID, page, pageSize)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list mutations: %w", err))
	}
	return mutations, total, nil
}

// Transfer moves money between two wallets of the same user as one atomic
// unit: a DEBIT on the source and a CREDIT on the destination. Both wallet
// rows are pre-locked in ascending id order before the engine calls, so two
// opposite transfers between the same pair cannot deadlock; the engine's
// own FOR UPDATE reads then join the locks already held.
func (s *WalletServiceImpl) Transfer(ctx context.Context, input ports.TransferInput) (*domain.Transfer, error) {
	if input.Amount.IsNegative() || input.Amount.IsZero() {
		return nil, apperror.ErrInvalidAmount()
	}
	if input.FromWalletID == input.ToWalletID {
		return nil, apperror.ErrSameWalletTransfer()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	first, second := input.FromWalletID, input.ToWalletID
	if strings.Compare(second.String(), first.String()) < 0 {
		first, second = second, first
	}
	for _, id := range []uuid.UUID{first, second} {
		wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
		}
		if wallet == nil || wallet.UserID != input.UserID {
			return nil, apperror.ErrWalletNotFound()
		}
	}

	transfer := &domain.Transfer{
		ID:           uuid.New(),
		UserID:       input.UserID,
		FromWalletID: input.FromWalletID,
		ToWalletID:   input.ToWalletID,
		Amount:       input.Amount,
		Note:         input.Note,
		CreatedAt:    nowUTC(),
	}
	if err := s.transferRepo.Create(ctx, dbTx, transfer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transfer: %w", err))
	}

	event := domain.EventRef{Kind: domain.EventTransfer, ID: transfer.ID}
	if _, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
		Event:     event,
		UserID:    input.UserID,
		WalletID:  input.FromWalletID,
		Amount:    input.Amount,
		Direction: domain.DirectionDebit,
	}); err != nil {
		return nil, err
	}
	if _, err := s.ledger.RecordMutationTx(ctx, dbTx, ports.RecordMutationInput{
		Event:     event,
		UserID:    input.UserID,
		WalletID:  input.ToWalletID,
		Amount:    input.Amount,
		Direction: domain.DirectionCredit,
	}); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("transfer_id", transfer.ID.String()).
		Str("from", input.FromWalletID.String()).
		Str("to", input.ToWalletID.String()).
		Str("amount", input.Amount.String()).
		Msg("transfer completed")

	return transfer, nil
}
