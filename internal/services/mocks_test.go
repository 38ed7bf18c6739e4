package services

import (
	"context"
	"io"

	"github.com/postcraft/backend/internal/audit"
	"github.com/postcraft/backend/internal/models"
	"github.com/postcraft/backend/internal/payments"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) GetBalance(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerStore) Debit(ctx context.Context, accountID string, price int64, reference string, metadata models.Metadata) (models.DebitResult, error) {
	args := m.Called(ctx, accountID, price, reference, metadata)
	return args.Get(0).(models.DebitResult), args.Error(1)
}

func (m *MockLedgerStore) ApplyTopUp(ctx context.Context, event models.PaymentEvent) (models.TopUpResult, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(models.TopUpResult), args.Error(1)
}

func (m *MockLedgerStore) EnsureAccount(ctx context.Context, accountID string, bonus int64) (models.Account, bool, error) {
	args := m.Called(ctx, accountID, bonus)
	return args.Get(0).(models.Account), args.Bool(1), args.Error(2)
}

func (m *MockLedgerStore) ListEntries(ctx context.Context, accountID string, limit int) ([]models.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) FetchPayment(ctx context.Context, paymentID string) (*payments.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Payment), args.Error(1)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func quietAudit() *audit.AuditLogger {
	return audit.NewAuditLogger(quietLogger())
}
