package audit

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Reference string    `json:"reference"`
	AccountID string    `json:"account_id"`
	Delta     int64     `json:"delta"`
	Balance   int64     `json:"balance"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// AuditLogger writes one structured line per balance-affecting event.
type AuditLogger struct {
	log logrus.FieldLogger
}

func NewAuditLogger(log logrus.FieldLogger) *AuditLogger {
	return &AuditLogger{log: log}
}

func (a *AuditLogger) LogDebit(reference, accountID string, price, balance int64, tool, tier string) {
	a.write(Event{
		Timestamp: time.Now(),
		EventType: "DEBIT",
		Reference: reference,
		AccountID: accountID,
		Delta:     -price,
		Balance:   balance,
		Status:    "SUCCESS",
		Details:   map[string]string{"tool": tool, "tier": tier},
	})
}

func (a *AuditLogger) LogTopUp(paymentID, accountID string, credits, balance int64, applied bool) {
	status := "SUCCESS"
	if !applied {
		status = "DUPLICATE"
	}
	a.write(Event{
		Timestamp: time.Now(),
		EventType: "TOPUP",
		Reference: paymentID,
		AccountID: accountID,
		Delta:     credits,
		Balance:   balance,
		Status:    status,
	})
}

// LogPostDebitFailure records a generation failure after credits were spent.
func (a *AuditLogger) LogPostDebitFailure(reference, accountID string, price, balance int64, err error) {
	a.write(Event{
		Timestamp: time.Now(),
		EventType: "GENERATION_FAILED_POST_DEBIT",
		Reference: reference,
		AccountID: accountID,
		Delta:     -price,
		Balance:   balance,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) LogError(reference, accountID string, err error) {
	a.write(Event{
		Timestamp: time.Now(),
		EventType: "ERROR",
		Reference: reference,
		AccountID: accountID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) write(event Event) {
	a.log.WithFields(logrus.Fields{
		"audit":      true,
		"event_type": event.EventType,
		"reference":  event.Reference,
		"account_id": event.AccountID,
		"delta":      event.Delta,
		"balance":    event.Balance,
		"status":     event.Status,
		"details":    event.Details,
		"event_time": event.Timestamp.UTC().Format(time.RFC3339Nano),
	}).Info("audit")
}
