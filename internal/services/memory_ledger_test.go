package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/postcraft/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	tests := []struct {
		balance int64
		price   int64
		workers int
	}{
		{10, 3, 50},
		{5, 1, 20},
		{1, 2, 10},
		{100, 7, 200},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("B=%d p=%d", tt.balance, tt.price), func(t *testing.T) {
			store := NewMemoryLedger()
			store.SetBalance("acct", tt.balance)

			var succeeded int64
			var wg sync.WaitGroup
			for i := 0; i < tt.workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := store.Debit(context.Background(), "acct", tt.price, fmt.Sprintf("gen-%d", i), nil)
					if err == nil {
						atomic.AddInt64(&succeeded, 1)
						return
					}
					assert.True(t, errors.Is(err, ErrInsufficientBalance))
				}(i)
			}
			wg.Wait()

			maxDebits := tt.balance / tt.price
			assert.Equal(t, maxDebits, succeeded)

			balance, err := store.GetBalance(context.Background(), "acct")
			require.NoError(t, err)
			assert.Equal(t, tt.balance-succeeded*tt.price, balance)
			assert.GreaterOrEqual(t, balance, int64(0))

			entries, _ := store.ListEntries(context.Background(), "acct", 0)
			assert.Len(t, entries, int(succeeded))
		})
	}
}

func TestMemoryLedger_TopUpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedger()
	store.SetBalance("acct", 1)

	event := models.PaymentEvent{Provider: "razorpay", PaymentID: "pay_1", AccountID: "acct", Amount: 199, CreditsToAdd: 100}

	first, err := store.ApplyTopUp(ctx, event)
	require.NoError(t, err)
	assert.True(t, first.Applied)
	assert.Equal(t, int64(101), first.Balance)

	second, err := store.ApplyTopUp(ctx, event)
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.Equal(t, first.Balance, second.Balance)

	entries, _ := store.ListEntries(ctx, "acct", 10)
	assert.Len(t, entries, 1)
	assert.Equal(t, models.ReasonTopUp, entries[0].Reason)
}

func TestMemoryLedger_TopUpUnknownAccount(t *testing.T) {
	store := NewMemoryLedger()
	_, err := store.ApplyTopUp(context.Background(), models.PaymentEvent{PaymentID: "pay_1", AccountID: "ghost", CreditsToAdd: 40})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemoryLedger_EnsureAccount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedger()

	acc, created, err := store.EnsureAccount(ctx, "acct", 5)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(5), acc.Credits)

	_, err = store.Debit(ctx, "acct", 2, "gen-1", models.Metadata{"tool": "tweet"})
	require.NoError(t, err)

	acc, created, err = store.EnsureAccount(ctx, "acct", 5)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(3), acc.Credits)

	entries, _ := store.ListEntries(ctx, "acct", 1)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ReasonGeneration, entries[0].Reason)
	assert.Equal(t, int64(-2), entries[0].Delta)
	assert.Equal(t, int64(3), entries[0].BalanceAfter)
}

func TestMemoryLedger_DebitUnknownAccount(t *testing.T) {
	_, err := NewMemoryLedger().Debit(context.Background(), "ghost", 1, "gen", nil)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
