package integration

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentExpenses_ExactBalance fires 100 concurrent expenses that
// together consume the wallet exactly. The per-wallet lock serializes them,
// so every one succeeds and the final balance is zero.
func TestConcurrentExpenses_ExactBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := uuid.New()
	token := app.token(t, userID)

	status, body := app.doJSON(t, http.MethodPost, "/api/v1/wallets", token, map[string]any{
		"name":            "Cash",
		"initial_balance": "10000000",
	})
	require.Equal(t, http.StatusCreated, status)
	walletID := data(t, body)["id"].(string)

	concurrency := 100

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var failCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			st, _ := app.doJSON(t, http.MethodPost, "/api/v1/transactions", token, map[string]any{
				"wallet_id": walletID,
				"amount":    "100000",
				"label":     fmt.Sprintf("expense-%d", idx),
			})
			if st == http.StatusCreated {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int64(concurrency), successCount.Load(), "all expenses fit the balance exactly")
	assert.Equal(t, int64(0), failCount.Load())

	status, body = app.doJSON(t, http.MethodGet, "/api/v1/wallets/"+walletID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", data(t, body)["balance"])

	wid := uuid.MustParse(walletID)
	assert.True(t, app.mutationRepo.liveSum(wid).IsZero(), "balance must equal the live mutation sum")
}

// TestConcurrentExpenses_Overspend fires 10 concurrent expenses of 100,000
// against a 500,000 wallet. Exactly five can fit; the rest must be rejected
// without ever driving the balance negative.
func TestConcurrentExpenses_Overspend(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := uuid.New()
	token := app.token(t, userID)

	status, body := app.doJSON(t, http.MethodPost, "/api/v1/wallets", token, map[string]any{
		"name":            "Cash",
		"initial_balance": "500000",
	})
	require.Equal(t, http.StatusCreated, status)
	walletID := data(t, body)["id"].(string)

	concurrency := 10

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var rejectedCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			st, resp := app.doJSON(t, http.MethodPost, "/api/v1/transactions", token, map[string]any{
				"wallet_id": walletID,
				"amount":    "100000",
				"label":     fmt.Sprintf("overspend-%d", idx),
			})
			switch st {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusUnprocessableEntity:
				if resp["error_code"] == "LED_002" {
					rejectedCount.Add(1)
				}
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int64(5), successCount.Load(), "exactly five expenses fit the balance")
	assert.Equal(t, int64(5), rejectedCount.Load(), "the rest are rejected as insufficient")

	status, body = app.doJSON(t, http.MethodGet, "/api/v1/wallets/"+walletID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", data(t, body)["balance"])
}

// TestConcurrentTransfers_OppositeDirections runs transfers in both
// directions between the same two wallets at once. The ascending lock order
// prevents deadlock and the combined balance is conserved.
func TestConcurrentTransfers_OppositeDirections(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := uuid.New()
	token := app.token(t, userID)

	status, body := app.doJSON(t, http.MethodPost, "/api/v1/wallets", token, map[string]any{
		"name":            "Cash",
		"initial_balance": "500000",
	})
	require.Equal(t, http.StatusCreated, status)
	walletA := data(t, body)["id"].(string)

	status, body = app.doJSON(t, http.MethodPost, "/api/v1/wallets", token, map[string]any{
		"name":            "Savings",
		"initial_balance": "500000",
	})
	require.Equal(t, http.StatusCreated, status)
	walletB := data(t, body)["id"].(string)

	concurrency := 20

	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			from, to := walletA, walletB
			if idx%2 == 1 {
				from, to = walletB, walletA
			}
			st, _ := app.doJSON(t, http.MethodPost, "/api/v1/transfers", token, map[string]any{
				"from_wallet_id": from,
				"to_wallet_id":   to,
				"amount":         "10000",
			})
			if st == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int64(concurrency), successCount.Load(), "opposite-direction transfers must not deadlock")

	// Money only moved between the two wallets; the total is conserved.
	a := app.mutationRepo.liveSum(uuid.MustParse(walletA))
	b := app.mutationRepo.liveSum(uuid.MustParse(walletB))
	assert.Equal(t, "1000000", a.Add(b).String())

	status, body = app.doJSON(t, http.MethodGet, "/api/v1/wallets/"+walletA, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, a.String(), data(t, body)["balance"])
}

// TestConcurrentDebtPayments locks the repayment target, so concurrent
// payments against the same debt cannot jointly exceed the remaining amount.
func TestConcurrentDebtPayments(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := uuid.New()
	token := app.token(t, userID)

	status, body := app.doJSON(t, http.MethodPost, "/api/v1/wallets", token, map[string]any{
		"name":            "Cash",
		"initial_balance": "1000000",
	})
	require.Equal(t, http.StatusCreated, status)
	walletID := data(t, body)["id"].(string)

	status, body = app.doJSON(t, http.MethodPost, "/api/v1/debts", token, map[string]any{
		"wallet_id":    walletID,
		"counterparty": "Alice",
		"principal":    "100000",
	})
	require.Equal(t, http.StatusCreated, status)
	debtID := data(t, body)["id"].(string)

	// Four concurrent payments of 50,000 against a remaining 100,000:
	// exactly two can land.
	concurrency := 4

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var rejectedCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, resp := app.doJSON(t, http.MethodPost, "/api/v1/debts/"+debtID+"/payments", token, map[string]any{
				"amount": "50000",
			})
			switch st {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusUnprocessableEntity, http.StatusConflict:
				_ = resp
				rejectedCount.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(2), successCount.Load(), "only the remaining amount can be repaid")
	assert.Equal(t, int64(2), rejectedCount.Load())

	status, body = app.doJSON(t, http.MethodGet, "/api/v1/debts/"+debtID, token, nil)
	require.Equal(t, http.StatusOK, status)
	d := data(t, body)
	assert.Equal(t, "PAID", d["status"])
	assert.Equal(t, "0", d["remaining_amount"])

	// The wallet received exactly the two successful payments back.
	status, body = app.doJSON(t, http.MethodGet, "/api/v1/wallets/"+walletID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1000000", data(t, body)["balance"])
}

// TestConcurrentPaymentsAndDelete races payments against deletion of the
// same debt. The deletion lists payments only after taking the repayment
// target lock, so every payment either commits first and gets reversed by
// the deletion, or reaches the lock after the delete committed and fails
// with debt-not-found. Either way the wallet must end exactly where it
// started and no live payment row may survive the soft-deleted debt.
func TestConcurrentPaymentsAndDelete(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := uuid.New()
	token := app.token(t, userID)

	status, body := app.doJSON(t, http.MethodPost, "/api/v1/wallets", token, map[string]any{
		"name":            "Cash",
		"initial_balance": "1000000",
	})
	require.Equal(t, http.StatusCreated, status)
	walletID := data(t, body)["id"].(string)

	status, body = app.doJSON(t, http.MethodPost, "/api/v1/debts", token, map[string]any{
		"wallet_id":    walletID,
		"counterparty": "Alice",
		"principal":    "500000",
	})
	require.Equal(t, http.StatusCreated, status)
	debtID := data(t, body)["id"].(string)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.doJSON(t, http.MethodPost, "/api/v1/debts/"+debtID+"/payments", token, map[string]any{
				"amount": "100000",
			})
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.doJSON(t, http.MethodDelete, "/api/v1/debts/"+debtID, token, nil)
	}()

	wg.Wait()

	status, _ = app.doJSON(t, http.MethodGet, "/api/v1/debts/"+debtID, token, nil)
	assert.Equal(t, http.StatusNotFound, status, "debt must be gone")

	status, body = app.doJSON(t, http.MethodGet, "/api/v1/wallets/"+walletID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1000000", data(t, body)["balance"],
		"every committed payment must have been reversed")

	wid := uuid.MustParse(walletID)
	assert.True(t, app.mutationRepo.liveSum(wid).Equal(decimal.NewFromInt(1000000)),
		"live mutation sum must match the balance")
}

// TestIndependentWallets_DoNotBlock holds the row lock of one wallet open
// in a pending transaction and verifies an expense on a different wallet
// still completes. Only operations on the locked wallet itself wait.
func TestIndependentWallets_DoNotBlock(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := uuid.New()
	token := app.token(t, userID)

	var walletIDs [2]string
	for i, name := range []string{"Blocked", "Free"} {
		status, body := app.doJSON(t, http.MethodPost, "/api/v1/wallets", token, map[string]any{
			"name":            name,
			"initial_balance": "500000",
		})
		require.Equal(t, http.StatusCreated, status)
		walletIDs[i] = data(t, body)["id"].(string)
	}

	// Pin the first wallet's row lock with a transaction that stays open.
	ctx := context.Background()
	pin, err := newInMemoryTransactor().Begin(ctx)
	require.NoError(t, err)
	_, err = app.walletRepo.GetByIDForUpdate(ctx, pin, uuid.MustParse(walletIDs[0]))
	require.NoError(t, err)

	free := make(chan int, 1)
	go func() {
		st, _ := app.doJSON(t, http.MethodPost, "/api/v1/transactions", token, map[string]any{
			"wallet_id": walletIDs[1],
			"amount":    "100000",
			"label":     "groceries",
		})
		free <- st
	}()

	select {
	case st := <-free:
		assert.Equal(t, http.StatusCreated, st)
	case <-time.After(3 * time.Second):
		t.Fatal("expense on an unrelated wallet blocked behind another wallet's lock")
	}

	// An expense on the pinned wallet must wait until the lock is released.
	blocked := make(chan int, 1)
	go func() {
		st, _ := app.doJSON(t, http.MethodPost, "/api/v1/transactions", token, map[string]any{
			"wallet_id": walletIDs[0],
			"amount":    "100000",
			"label":     "rent",
		})
		blocked <- st
	}()

	select {
	case <-blocked:
		t.Fatal("expense on the locked wallet completed while the lock was held")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, pin.Rollback(ctx))

	select {
	case st := <-blocked:
		assert.Equal(t, http.StatusCreated, st)
	case <-time.After(3 * time.Second):
		t.Fatal("expense on the locked wallet never ran after the lock was released")
	}
}
