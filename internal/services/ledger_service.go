package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/postcraft/backend/internal/models"
)

const pqForeignKeyViolation = "23503"

// LedgerStore is the account ledger. Every balance change is atomic and
// recorded as an append-only ledger entry.
type LedgerStore interface {
	GetBalance(ctx context.Context, accountID string) (int64, error)
	// Debit decrements the balance by price only if the balance covers it.
	// When it does not, the current balance is returned with ErrInsufficientBalance.
	Debit(ctx context.Context, accountID string, price int64, reference string, metadata models.Metadata) (models.DebitResult, error)
	// ApplyTopUp credits a payment once per payment id.
	ApplyTopUp(ctx context.Context, event models.PaymentEvent) (models.TopUpResult, error)
	// EnsureAccount creates the account with bonus credits if it does not exist.
	EnsureAccount(ctx context.Context, accountID string, bonus int64) (models.Account, bool, error)
	ListEntries(ctx context.Context, accountID string, limit int) ([]models.LedgerEntry, error)
}

// PostgresLedger implements LedgerStore on the accounts, credit_ledger and payment_events tables.
type PostgresLedger struct {
	db *sql.DB
}

var _ LedgerStore = (*PostgresLedger)(nil)

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

type rowScanner interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresLedger) GetBalance(ctx context.Context, accountID string) (int64, error) {
	return readBalance(ctx, s.db, accountID)
}

func readBalance(ctx context.Context, q rowScanner, accountID string) (int64, error) {
	var credits sql.NullInt64
	err := q.QueryRowContext(ctx, `SELECT credits FROM accounts WHERE id = $1`, accountID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	if !credits.Valid || credits.Int64 < 0 {
		return 0, ErrProfileDataInvalid
	}
	return credits.Int64, nil
}

func (s *PostgresLedger) Debit(ctx context.Context, accountID string, price int64, reference string, metadata models.Metadata) (models.DebitResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.DebitResult{}, fmt.Errorf("begin debit: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx, `
		UPDATE accounts
		SET credits = credits - $1, updated_at = NOW()
		WHERE id = $2 AND credits >= $1
		RETURNING credits`,
		price, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the account is gone or a concurrent debit got there first.
		current, readErr := readBalance(ctx, tx, accountID)
		if readErr != nil {
			return models.DebitResult{}, readErr
		}
		return models.DebitResult{Prior: current, Balance: current}, ErrInsufficientBalance
	}
	if err != nil {
		return models.DebitResult{}, fmt.Errorf("debit: %w", err)
	}

	entryID := uuid.NewString()
	if err := insertLedgerEntry(ctx, tx, models.LedgerEntry{
		ID:           entryID,
		AccountID:    accountID,
		Delta:        -price,
		Reason:       models.ReasonGeneration,
		Reference:    reference,
		BalanceAfter: balance,
		Metadata:     metadata,
	}); err != nil {
		return models.DebitResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.DebitResult{}, fmt.Errorf("commit debit: %w", err)
	}
	return models.DebitResult{EntryID: entryID, Prior: balance + price, Balance: balance}, nil
}

func (s *PostgresLedger) ApplyTopUp(ctx context.Context, event models.PaymentEvent) (models.TopUpResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.TopUpResult{}, fmt.Errorf("begin top-up: %w", err)
	}
	defer tx.Rollback()

	var recorded string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO payment_events (payment_id, provider, order_id, account_id, amount, credits)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING payment_id`,
		event.PaymentID, event.Provider, event.OrderID, event.AccountID, event.Amount, event.CreditsToAdd).Scan(&recorded)
	if errors.Is(err, sql.ErrNoRows) {
		balance, err := readBalance(ctx, tx, event.AccountID)
		if err != nil {
			return models.TopUpResult{}, err
		}
		return models.TopUpResult{Balance: balance, Applied: false}, nil
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return models.TopUpResult{}, ErrAccountNotFound
		}
		return models.TopUpResult{}, fmt.Errorf("record payment: %w", err)
	}

	var balance int64
	err = tx.QueryRowContext(ctx, `
		UPDATE accounts
		SET credits = credits + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING credits`,
		event.CreditsToAdd, event.AccountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TopUpResult{}, ErrAccountNotFound
	}
	if err != nil {
		return models.TopUpResult{}, fmt.Errorf("credit account: %w", err)
	}

	if err := insertLedgerEntry(ctx, tx, models.LedgerEntry{
		ID:           uuid.NewString(),
		AccountID:    event.AccountID,
		Delta:        event.CreditsToAdd,
		Reason:       models.ReasonTopUp,
		Reference:    event.PaymentID,
		BalanceAfter: balance,
		Metadata: models.Metadata{
			"provider": event.Provider,
			"orderId":  event.OrderID,
			"amount":   event.Amount,
		},
	}); err != nil {
		return models.TopUpResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.TopUpResult{}, fmt.Errorf("commit top-up: %w", err)
	}
	return models.TopUpResult{Balance: balance, Applied: true}, nil
}

func (s *PostgresLedger) EnsureAccount(ctx context.Context, accountID string, bonus int64) (models.Account, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Account{}, false, fmt.Errorf("begin ensure account: %w", err)
	}
	defer tx.Rollback()

	var acc models.Account
	err = tx.QueryRowContext(ctx, `
		INSERT INTO accounts (id, credits)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
		RETURNING id, credits, created_at, updated_at`,
		accountID, bonus).Scan(&acc.ID, &acc.Credits, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, `
			SELECT id, credits, created_at, updated_at
			FROM accounts
			WHERE id = $1`,
			accountID).Scan(&acc.ID, &acc.Credits, &acc.CreatedAt, &acc.UpdatedAt)
		if err != nil {
			return models.Account{}, false, fmt.Errorf("read account: %w", err)
		}
		return acc, false, nil
	}
	if err != nil {
		return models.Account{}, false, fmt.Errorf("create account: %w", err)
	}

	if bonus > 0 {
		if err := insertLedgerEntry(ctx, tx, models.LedgerEntry{
			ID:           uuid.NewString(),
			AccountID:    accountID,
			Delta:        bonus,
			Reason:       models.ReasonSignup,
			Reference:    "signup:" + accountID,
			BalanceAfter: acc.Credits,
		}); err != nil {
			return models.Account{}, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Account{}, false, fmt.Errorf("commit ensure account: %w", err)
	}
	return acc, true, nil
}

func (s *PostgresLedger) ListEntries(ctx context.Context, accountID string, limit int) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, delta, reason, reference, balance_after, metadata, created_at
		FROM credit_ledger
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Delta, &e.Reason, &e.Reference, &e.BalanceAfter, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func insertLedgerEntry(ctx context.Context, tx *sql.Tx, e models.LedgerEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_ledger (id, account_id, delta, reason, reference, balance_after, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.AccountID, e.Delta, e.Reason, e.Reference, e.BalanceAfter, e.Metadata)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}
