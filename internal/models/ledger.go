package models

import (
	"time"
)

// Ledger entry reasons
const (
	ReasonGeneration = "GENERATION"
	ReasonTopUp      = "TOPUP"
	ReasonSignup     = "SIGNUP_BONUS"
)

// Account is a principal's credit balance record.
type Account struct {
	ID        string    `json:"id" db:"id"`
	Credits   int64     `json:"credits" db:"credits"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// LedgerEntry is an append-only record of one balance change.
type LedgerEntry struct {
	ID           string    `json:"id" db:"id"`
	AccountID    string    `json:"accountId" db:"account_id"`
	Delta        int64     `json:"delta" db:"delta"`
	Reason       string    `json:"reason" db:"reason"`
	Reference    string    `json:"reference" db:"reference"`
	BalanceAfter int64     `json:"balanceAfter" db:"balance_after"`
	Metadata     Metadata  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// DebitResult carries the balances observed by a conditional decrement.
type DebitResult struct {
	EntryID string
	Prior   int64
	Balance int64
}

// PaymentEvent is a confirmed external payment to be credited once.
type PaymentEvent struct {
	Provider     string `json:"provider"`
	PaymentID    string `json:"paymentId"`
	OrderID      string `json:"orderId"`
	AccountID    string `json:"accountId"`
	Amount       int64  `json:"amount"` // whole currency units
	CreditsToAdd int64  `json:"creditsToAdd"`
}

// TopUpResult is returned by the ledger for a payment application.
type TopUpResult struct {
	Balance int64 `json:"balance"`
	Applied bool  `json:"applied"` // false when the payment was already credited
}
