package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/postcraft/backend/internal/models"
)

// MemoryLedger is an in-process LedgerStore for local runs and tests.
// Balances do not survive a restart.
type MemoryLedger struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	entries  map[string][]models.LedgerEntry
	payments map[string]models.PaymentEvent
}

var _ LedgerStore = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		accounts: make(map[string]*models.Account),
		entries:  make(map[string][]models.LedgerEntry),
		payments: make(map[string]models.PaymentEvent),
	}
}

// SetBalance creates or overwrites an account balance without a ledger entry.
func (s *MemoryLedger) SetBalance(accountID string, credits int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if acc, ok := s.accounts[accountID]; ok {
		acc.Credits = credits
		acc.UpdatedAt = now
		return
	}
	s.accounts[accountID] = &models.Account{ID: accountID, Credits: credits, CreatedAt: now, UpdatedAt: now}
}

func (s *MemoryLedger) GetBalance(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return acc.Credits, nil
}

func (s *MemoryLedger) Debit(_ context.Context, accountID string, price int64, reference string, metadata models.Metadata) (models.DebitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return models.DebitResult{}, ErrAccountNotFound
	}
	if acc.Credits < price {
		return models.DebitResult{Prior: acc.Credits, Balance: acc.Credits}, ErrInsufficientBalance
	}

	prior := acc.Credits
	acc.Credits -= price
	acc.UpdatedAt = time.Now()
	entryID := s.appendLocked(accountID, -price, models.ReasonGeneration, reference, acc.Credits, metadata)

	return models.DebitResult{EntryID: entryID, Prior: prior, Balance: acc.Credits}, nil
}

func (s *MemoryLedger) ApplyTopUp(_ context.Context, event models.PaymentEvent) (models.TopUpResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[event.AccountID]
	if _, seen := s.payments[event.PaymentID]; seen {
		if !ok {
			return models.TopUpResult{}, ErrAccountNotFound
		}
		return models.TopUpResult{Balance: acc.Credits, Applied: false}, nil
	}
	if !ok {
		return models.TopUpResult{}, ErrAccountNotFound
	}

	s.payments[event.PaymentID] = event
	acc.Credits += event.CreditsToAdd
	acc.UpdatedAt = time.Now()
	s.appendLocked(event.AccountID, event.CreditsToAdd, models.ReasonTopUp, event.PaymentID, acc.Credits, models.Metadata{
		"provider": event.Provider,
		"orderId":  event.OrderID,
		"amount":   event.Amount,
	})

	return models.TopUpResult{Balance: acc.Credits, Applied: true}, nil
}

func (s *MemoryLedger) EnsureAccount(_ context.Context, accountID string, bonus int64) (models.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accounts[accountID]; ok {
		return *acc, false, nil
	}

	now := time.Now()
	acc := &models.Account{ID: accountID, Credits: bonus, CreatedAt: now, UpdatedAt: now}
	s.accounts[accountID] = acc
	if bonus > 0 {
		s.appendLocked(accountID, bonus, models.ReasonSignup, "signup:"+accountID, bonus, nil)
	}
	return *acc, true, nil
}

func (s *MemoryLedger) ListEntries(_ context.Context, accountID string, limit int) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.entries[accountID]
	out := make([]models.LedgerEntry, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, all[i])
	}
	return out, nil
}

func (s *MemoryLedger) appendLocked(accountID string, delta int64, reason, reference string, balance int64, metadata models.Metadata) string {
	id := uuid.NewString()
	s.entries[accountID] = append(s.entries[accountID], models.LedgerEntry{
		ID:           id,
		AccountID:    accountID,
		Delta:        delta,
		Reason:       reason,
		Reference:    reference,
		BalanceAfter: balance,
		Metadata:     metadata,
		CreatedAt:    time.Now(),
	})
	return id
}
