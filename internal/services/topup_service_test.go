package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/postcraft/backend/internal/models"
	"github.com/postcraft/backend/internal/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func capturedPayment(id, orderID string, amount int64) *payments.Payment {
	return &payments.Payment{ID: id, OrderID: orderID, Status: payments.StatusCaptured, Amount: amount * payments.MinorUnits, Currency: "INR"}
}

func newTopUpFixture(t *testing.T, balance int64) (*TopUpService, *MemoryLedger, *MockConfirmer) {
	t.Helper()
	store := NewMemoryLedger()
	store.SetBalance("acct", balance)
	confirmer := new(MockConfirmer)
	svc := NewTopUpService(store, DefaultPricingCatalog(), nil, quietAudit(), quietLogger())
	svc.RegisterConfirmer(payments.ProviderRazorpay, confirmer)
	return svc, store, confirmer
}

func TestTopUp_MappedAmountCreditsAccount(t *testing.T) {
	svc, store, confirmer := newTopUpFixture(t, 1)
	confirmer.On("FetchPayment", mock.Anything, "pay_1").Return(capturedPayment("pay_1", "order_1", 199), nil)

	res, err := svc.ApplyTopUp(context.Background(), models.PaymentEvent{
		Provider: payments.ProviderRazorpay, PaymentID: "pay_1", OrderID: "order_1", AccountID: "acct", Amount: 199,
	})

	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, int64(101), res.Balance)

	entries, _ := store.ListEntries(context.Background(), "acct", 1)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(100), entries[0].Delta)
}

func TestTopUp_UnmappedAmountIsInvalid(t *testing.T) {
	svc, store, confirmer := newTopUpFixture(t, 1)

	_, err := svc.ApplyTopUp(context.Background(), models.PaymentEvent{
		Provider: payments.ProviderRazorpay, PaymentID: "pay_1", AccountID: "acct", Amount: 37,
	})

	assert.ErrorIs(t, err, ErrInvalidEvent)
	confirmer.AssertNotCalled(t, "FetchPayment", mock.Anything, mock.Anything)
	b, _ := store.GetBalance(context.Background(), "acct")
	assert.Equal(t, int64(1), b)
}

func TestTopUp_UnknownProviderIsInvalid(t *testing.T) {
	svc, _, _ := newTopUpFixture(t, 1)

	_, err := svc.ApplyTopUp(context.Background(), models.PaymentEvent{
		Provider: "stripe", PaymentID: "pay_1", AccountID: "acct", Amount: 199,
	})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestTopUp_ReplayDoesNotDoubleCredit(t *testing.T) {
	svc, store, confirmer := newTopUpFixture(t, 0)
	confirmer.On("FetchPayment", mock.Anything, "pay_1").Return(capturedPayment("pay_1", "order_1", 499), nil)

	event := models.PaymentEvent{Provider: payments.ProviderRazorpay, PaymentID: "pay_1", OrderID: "order_1", AccountID: "acct", Amount: 499}

	first, err := svc.ApplyTopUp(context.Background(), event)
	require.NoError(t, err)
	second, err := svc.ApplyTopUp(context.Background(), event)
	require.NoError(t, err)

	assert.True(t, first.Applied)
	assert.False(t, second.Applied)
	assert.Equal(t, int64(300), first.Balance)
	assert.Equal(t, first.Balance, second.Balance)
	b, _ := store.GetBalance(context.Background(), "acct")
	assert.Equal(t, int64(300), b)
}

func TestTopUp_PaymentNotConfirmed(t *testing.T) {
	tests := []struct {
		name    string
		payment *payments.Payment
		err     error
	}{
		{"not captured", &payments.Payment{ID: "pay_1", OrderID: "order_1", Status: "authorized", Amount: 19900}, nil},
		{"order mismatch", capturedPayment("pay_1", "order_other", 199), nil},
		{"amount mismatch", capturedPayment("pay_1", "order_1", 99), nil},
		{"unknown payment", nil, payments.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, confirmer := newTopUpFixture(t, 1)
			confirmer.On("FetchPayment", mock.Anything, "pay_1").Return(tt.payment, tt.err)

			_, err := svc.ApplyTopUp(context.Background(), models.PaymentEvent{
				Provider: payments.ProviderRazorpay, PaymentID: "pay_1", OrderID: "order_1", AccountID: "acct", Amount: 199,
			})

			assert.ErrorIs(t, err, ErrPaymentNotConfirmed)
			b, _ := store.GetBalance(context.Background(), "acct")
			assert.Equal(t, int64(1), b)
		})
	}
}

func TestTopUp_ProviderFailure(t *testing.T) {
	svc, _, confirmer := newTopUpFixture(t, 1)
	confirmer.On("FetchPayment", mock.Anything, "pay_1").Return(nil, errors.New("dial tcp: timeout"))

	_, err := svc.ApplyTopUp(context.Background(), models.PaymentEvent{
		Provider: payments.ProviderRazorpay, PaymentID: "pay_1", AccountID: "acct", Amount: 199,
	})
	assert.ErrorIs(t, err, ErrPaymentProvider)
}

func TestTopUp_UnknownAccount(t *testing.T) {
	svc, _, confirmer := newTopUpFixture(t, 1)
	confirmer.On("FetchPayment", mock.Anything, "pay_1").Return(capturedPayment("pay_1", "", 99), nil)

	_, err := svc.ApplyTopUp(context.Background(), models.PaymentEvent{
		Provider: payments.ProviderRazorpay, PaymentID: "pay_1", AccountID: "ghost", Amount: 99,
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestTopUp_NoConfirmerRegistered(t *testing.T) {
	store := NewMemoryLedger()
	store.SetBalance("acct", 1)
	svc := NewTopUpService(store, DefaultPricingCatalog(), nil, quietAudit(), quietLogger())

	_, err := svc.ApplyTopUp(context.Background(), models.PaymentEvent{
		Provider: payments.ProviderRazorpay, PaymentID: "pay_1", AccountID: "acct", Amount: 99,
	})
	assert.ErrorIs(t, err, ErrPaymentsDisabled)
}

func TestTopUp_RedisLock(t *testing.T) {
	event := models.PaymentEvent{Provider: payments.ProviderRazorpay, PaymentID: "pay_1", OrderID: "order_1", AccountID: "acct", Amount: 99}

	t.Run("lock acquired and released", func(t *testing.T) {
		store := NewMemoryLedger()
		store.SetBalance("acct", 0)
		redisClient, redisMock := redismock.NewClientMock()
		confirmer := new(MockConfirmer)
		confirmer.On("FetchPayment", mock.Anything, "pay_1").Return(capturedPayment("pay_1", "order_1", 99), nil)

		svc := NewTopUpService(store, DefaultPricingCatalog(), redisClient, quietAudit(), quietLogger())
		svc.RegisterConfirmer(payments.ProviderRazorpay, confirmer)

		redisMock.ExpectSetNX("topup:pay_1", "acct", topUpLockTTL).SetVal(true)
		redisMock.ExpectDel("topup:pay_1").SetVal(1)

		res, err := svc.ApplyTopUp(context.Background(), event)
		require.NoError(t, err)
		assert.Equal(t, int64(40), res.Balance)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("lock held by concurrent delivery", func(t *testing.T) {
		store := NewMemoryLedger()
		store.SetBalance("acct", 0)
		redisClient, redisMock := redismock.NewClientMock()
		confirmer := new(MockConfirmer)
		confirmer.On("FetchPayment", mock.Anything, "pay_1").Return(capturedPayment("pay_1", "order_1", 99), nil)

		svc := NewTopUpService(store, DefaultPricingCatalog(), redisClient, quietAudit(), quietLogger())
		svc.RegisterConfirmer(payments.ProviderRazorpay, confirmer)

		redisMock.ExpectSetNX("topup:pay_1", "acct", topUpLockTTL).SetVal(false)

		_, err := svc.ApplyTopUp(context.Background(), event)
		assert.ErrorIs(t, err, ErrTopUpInProgress)
		b, _ := store.GetBalance(context.Background(), "acct")
		assert.Equal(t, int64(0), b)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("redis down falls back to the store", func(t *testing.T) {
		store := NewMemoryLedger()
		store.SetBalance("acct", 0)
		redisClient, redisMock := redismock.NewClientMock()
		confirmer := new(MockConfirmer)
		confirmer.On("FetchPayment", mock.Anything, "pay_1").Return(capturedPayment("pay_1", "order_1", 99), nil)

		svc := NewTopUpService(store, DefaultPricingCatalog(), redisClient, quietAudit(), quietLogger())
		svc.RegisterConfirmer(payments.ProviderRazorpay, confirmer)

		redisMock.ExpectSetNX("topup:pay_1", "acct", topUpLockTTL).SetErr(errors.New("connection refused"))

		res, err := svc.ApplyTopUp(context.Background(), event)
		require.NoError(t, err)
		assert.True(t, res.Applied)
	})
}

func TestTopUpError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{ErrInvalidEvent, http.StatusBadRequest, CodeInvalidPaymentEvent},
		{ErrPaymentNotConfirmed, http.StatusBadRequest, CodePaymentNotConfirmed},
		{ErrAccountNotFound, http.StatusNotFound, CodeProfileNotFound},
		{ErrTopUpInProgress, http.StatusConflict, CodeTopUpInProgress},
		{ErrPaymentProvider, http.StatusBadGateway, CodePaymentProviderError},
		{ErrPaymentsDisabled, http.StatusServiceUnavailable, CodePaymentsUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, CodeDBUpdate},
	}

	for _, tt := range tests {
		apiErr := TopUpError(tt.err)
		assert.Equal(t, tt.status, apiErr.Status, tt.err.Error())
		assert.Equal(t, tt.code, apiErr.Code, tt.err.Error())
	}
}
