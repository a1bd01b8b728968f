package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func nowRef() *time.Time {
	now := time.Now().UTC()
	return &now
}

// The in-memory repos emulate the two properties the services rely on from
// PostgreSQL: row locks taken by the ForUpdate queries are held until the
// surrounding transaction finishes, and writes made inside a transaction are
// undone when it rolls back. Writes apply immediately and register an undo;
// locks register a release. Both run when the memTx commits or rolls back.

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

// memTx is an in-memory pgx.Tx. It tracks lock releases and undo actions
// registered by the repos during the transaction.
type memTx struct {
	mu      sync.Mutex
	done    bool
	unlocks []func()
	undos   []func()
}

func (t *memTx) onFinish(unlock func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unlocks = append(t.unlocks, unlock)
}

func (t *memTx) onRollback(undo func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undos = append(t.undos, undo)
}

func (t *memTx) Commit(ctx context.Context) error {
	return t.finish(false)
}

func (t *memTx) Rollback(ctx context.Context) error {
	return t.finish(true)
}

func (t *memTx) finish(rollback bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	if rollback {
		for i := len(t.undos) - 1; i >= 0; i-- {
			t.undos[i]()
		}
	}
	for i := len(t.unlocks) - 1; i >= 0; i-- {
		t.unlocks[i]()
	}
	return nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }

func asMemTx(tx pgx.Tx) *memTx {
	if m, ok := tx.(*memTx); ok {
		return m
	}
	return nil
}

// rowLock emulates a row-level lock: held until the owning transaction
// finishes, re-entrant within that transaction like a PostgreSQL row lock.
type rowLock struct {
	mu    sync.Mutex
	state sync.Mutex
	owner *memTx
}

func (l *rowLock) acquire(tx *memTx) {
	if tx != nil {
		l.state.Lock()
		held := l.owner == tx
		l.state.Unlock()
		if held {
			return
		}
	}
	l.mu.Lock()
	if tx == nil {
		// No surrounding transaction: nothing to hold the lock for.
		l.mu.Unlock()
		return
	}
	l.state.Lock()
	l.owner = tx
	l.state.Unlock()
	tx.onFinish(func() {
		l.state.Lock()
		l.owner = nil
		l.state.Unlock()
		l.mu.Unlock()
	})
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
	locks   map[uuid.UUID]*rowLock
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{
		wallets: make(map[uuid.UUID]*domain.Wallet),
		locks:   make(map[uuid.UUID]*rowLock),
	}
}

func (r *inMemoryWalletRepo) rowLock(id uuid.UUID) *rowLock {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &rowLock{}
		r.locks[id] = l
	}
	return l
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.wallets, w.ID)
		})
	}
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok || w.DeletedAt != nil {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	r.rowLock(id).acquire(asMemTx(tx))
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	prev := w.Balance
	w.Balance = balance
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			w.Balance = prev
		})
	}
	return nil
}

// --- In-Memory Mutation Repo ---

type inMemoryMutationRepo struct {
	mu        sync.RWMutex
	mutations []*domain.Mutation
}

func newInMemoryMutationRepo() *inMemoryMutationRepo {
	return &inMemoryMutationRepo{}
}

func (r *inMemoryMutationRepo) Create(ctx context.Context, tx pgx.Tx, mutation *domain.Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *mutation
	r.mutations = append(r.mutations, &cp)
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, mt := range r.mutations {
				if mt.ID == cp.ID {
					r.mutations = append(r.mutations[:i], r.mutations[i+1:]...)
					return
				}
			}
		})
	}
	return nil
}

func (r *inMemoryMutationRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.Mutation, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var live []domain.Mutation
	// Newest first, matching the created_at DESC ordering of the SQL repo.
	for i := len(r.mutations) - 1; i >= 0; i-- {
		m := r.mutations[i]
		if m.WalletID == walletID && m.DeletedAt == nil {
			live = append(live, *m)
		}
	}
	total := int64(len(live))
	start := (page - 1) * pageSize
	if start >= len(live) {
		return []domain.Mutation{}, total, nil
	}
	end := start + pageSize
	if end > len(live) {
		end = len(live)
	}
	return live[start:end], total, nil
}

func (r *inMemoryMutationRepo) SoftDeleteByEvent(ctx context.Context, tx pgx.Tx, event domain.EventRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := nowRef()
	var hit []*domain.Mutation
	for _, m := range r.mutations {
		if m.Event == event && m.DeletedAt == nil {
			m.DeletedAt = now
			hit = append(hit, m)
		}
	}
	if tm := asMemTx(tx); tm != nil && len(hit) > 0 {
		tm.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for _, m := range hit {
				m.DeletedAt = nil
			}
		})
	}
	return nil
}

// history returns every mutation of a wallet in insertion order, the
// soft-deleted rows included, for checking the snapshot chain.
func (r *inMemoryMutationRepo) history(walletID uuid.UUID) []domain.Mutation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Mutation
	for _, m := range r.mutations {
		if m.WalletID == walletID {
			result = append(result, *m)
		}
	}
	return result
}

// liveSum returns the signed sum of live mutations for a wallet, used to
// check the balance invariant after each scenario.
func (r *inMemoryMutationRepo) liveSum(walletID uuid.UUID) decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, m := range r.mutations {
		if m.WalletID != walletID || m.DeletedAt != nil {
			continue
		}
		if m.Direction == domain.DirectionCredit {
			sum = sum.Add(m.Amount)
		} else {
			sum = sum.Sub(m.Amount)
		}
	}
	return sum
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *txn
	r.transactions[txn.ID] = &cp
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.transactions, cp.ID)
		})
	}
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok || t.DeletedAt != nil {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) SoftDelete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return fmt.Errorf("transaction not found")
	}
	t.DeletedAt = nowRef()
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			t.DeletedAt = nil
		})
	}
	return nil
}

// --- In-Memory Income Repo ---

type inMemoryIncomeRepo struct {
	mu      sync.RWMutex
	incomes map[uuid.UUID]*domain.Income
}

func newInMemoryIncomeRepo() *inMemoryIncomeRepo {
	return &inMemoryIncomeRepo{incomes: make(map[uuid.UUID]*domain.Income)}
}

func (r *inMemoryIncomeRepo) Create(ctx context.Context, tx pgx.Tx, income *domain.Income) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *income
	r.incomes[income.ID] = &cp
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.incomes, cp.ID)
		})
	}
	return nil
}

func (r *inMemoryIncomeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Income, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.incomes[id]
	if !ok || i.DeletedAt != nil {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (r *inMemoryIncomeRepo) SoftDelete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.incomes[id]
	if !ok {
		return fmt.Errorf("income not found")
	}
	i.DeletedAt = nowRef()
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			i.DeletedAt = nil
		})
	}
	return nil
}

// --- In-Memory Transfer Repo ---

type inMemoryTransferRepo struct {
	mu        sync.RWMutex
	transfers map[uuid.UUID]*domain.Transfer
}

func newInMemoryTransferRepo() *inMemoryTransferRepo {
	return &inMemoryTransferRepo{transfers: make(map[uuid.UUID]*domain.Transfer)}
}

func (r *inMemoryTransferRepo) Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *transfer
	r.transfers[transfer.ID] = &cp
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.transfers, cp.ID)
		})
	}
	return nil
}

func (r *inMemoryTransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tr, ok := r.transfers[id]
	if !ok || tr.DeletedAt != nil {
		return nil, nil
	}
	cp := *tr
	return &cp, nil
}

// --- In-Memory Debt Repo ---

type inMemoryDebtRepo struct {
	mu       sync.RWMutex
	debts    map[uuid.UUID]*domain.Debt
	targets  map[uuid.UUID]*domain.RepaymentTarget // keyed by debt ID
	payments []*domain.DebtPayment
	locks    map[uuid.UUID]*rowLock // per-debt target locks
}

func newInMemoryDebtRepo() *inMemoryDebtRepo {
	return &inMemoryDebtRepo{
		debts:   make(map[uuid.UUID]*domain.Debt),
		targets: make(map[uuid.UUID]*domain.RepaymentTarget),
		locks:   make(map[uuid.UUID]*rowLock),
	}
}

func (r *inMemoryDebtRepo) rowLock(debtID uuid.UUID) *rowLock {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[debtID]
	if !ok {
		l = &rowLock{}
		r.locks[debtID] = l
	}
	return l
}

func (r *inMemoryDebtRepo) CreateDebt(ctx context.Context, tx pgx.Tx, debt *domain.Debt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *debt
	r.debts[debt.ID] = &cp
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.debts, cp.ID)
		})
	}
	return nil
}

func (r *inMemoryDebtRepo) CreateTarget(ctx context.Context, tx pgx.Tx, target *domain.RepaymentTarget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *target
	r.targets[target.DebtID] = &cp
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.targets, cp.DebtID)
		})
	}
	return nil
}

func (r *inMemoryDebtRepo) CreatePayment(ctx context.Context, tx pgx.Tx, payment *domain.DebtPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *payment
	r.payments = append(r.payments, &cp)
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, p := range r.payments {
				if p.ID == cp.ID {
					r.payments = append(r.payments[:i], r.payments[i+1:]...)
					return
				}
			}
		})
	}
	return nil
}

func (r *inMemoryDebtRepo) GetDebtByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.debts[id]
	if !ok || d.DeletedAt != nil {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *inMemoryDebtRepo) GetTargetByDebtID(ctx context.Context, debtID uuid.UUID) (*domain.RepaymentTarget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[debtID]
	if !ok || t.DeletedAt != nil {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryDebtRepo) GetTargetForUpdate(ctx context.Context, tx pgx.Tx, debtID uuid.UUID) (*domain.RepaymentTarget, error) {
	r.rowLock(debtID).acquire(asMemTx(tx))
	return r.GetTargetByDebtID(ctx, debtID)
}

func (r *inMemoryDebtRepo) UpdateTarget(ctx context.Context, tx pgx.Tx, target *domain.RepaymentTarget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.targets[target.DebtID]
	if !ok {
		return fmt.Errorf("repayment target not found")
	}
	prev := *existing
	*existing = *target
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			*existing = prev
		})
	}
	return nil
}

func (r *inMemoryDebtRepo) ListPayments(ctx context.Context, debtID uuid.UUID) ([]domain.DebtPayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.DebtPayment
	for _, p := range r.payments {
		if p.DebtID == debtID && p.DeletedAt == nil {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *inMemoryDebtRepo) ListPaymentsTx(ctx context.Context, tx pgx.Tx, debtID uuid.UUID) ([]domain.DebtPayment, error) {
	return r.ListPayments(ctx, debtID)
}

func (r *inMemoryDebtRepo) SoftDeleteDebt(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.debts[id]
	if !ok {
		return fmt.Errorf("debt not found")
	}
	d.DeletedAt = nowRef()
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			d.DeletedAt = nil
		})
	}
	return nil
}

func (r *inMemoryDebtRepo) SoftDeleteTarget(ctx context.Context, tx pgx.Tx, debtID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.targets[debtID]
	if !ok {
		return fmt.Errorf("repayment target not found")
	}
	t.DeletedAt = nowRef()
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			t.DeletedAt = nil
		})
	}
	return nil
}

func (r *inMemoryDebtRepo) SoftDeletePayment(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			p.DeletedAt = nowRef()
			if m := asMemTx(tx); m != nil {
				undo := p
				m.onRollback(func() {
					r.mu.Lock()
					defer r.mu.Unlock()
					undo.DeletedAt = nil
				})
			}
			return nil
		}
	}
	return fmt.Errorf("payment not found")
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.RWMutex
	logs map[string]*domain.IdempotencyLog
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	r.logs[log.Key] = &cp
	if m := asMemTx(tx); m != nil {
		m.onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.logs, cp.Key)
		})
	}
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.logs[key]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}
