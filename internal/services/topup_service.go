package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/postcraft/backend/internal/audit"
	"github.com/postcraft/backend/internal/models"
	"github.com/postcraft/backend/internal/payments"
	"github.com/sirupsen/logrus"
)

const topUpLockTTL = 30 * time.Second

// PaymentConfirmer looks up a payment at its provider.
type PaymentConfirmer interface {
	FetchPayment(ctx context.Context, paymentID string) (*payments.Payment, error)
}

// TopUpService credits the ledger once per confirmed external payment.
type TopUpService struct {
	store      LedgerStore
	catalog    *PricingCatalog
	confirmers map[string]PaymentConfirmer
	redis      *redis.Client
	audit      *audit.AuditLogger
	log        logrus.FieldLogger
}

// NewTopUpService creates the reconciler. redisClient may be nil; the
// payment_events key remains the idempotency authority either way.
func NewTopUpService(store LedgerStore, catalog *PricingCatalog, redisClient *redis.Client, auditLogger *audit.AuditLogger, log logrus.FieldLogger) *TopUpService {
	return &TopUpService{
		store:      store,
		catalog:    catalog,
		confirmers: make(map[string]PaymentConfirmer),
		redis:      redisClient,
		audit:      auditLogger,
		log:        log,
	}
}

// RegisterConfirmer sets the confirmer used for provider.
func (s *TopUpService) RegisterConfirmer(provider string, c PaymentConfirmer) {
	s.confirmers[provider] = c
}

// ApplyTopUp validates the event against the price list, confirms it with the
// provider and credits the account. Replaying a payment id returns the current
// balance with Applied=false.
func (s *TopUpService) ApplyTopUp(ctx context.Context, event models.PaymentEvent) (models.TopUpResult, error) {
	log := s.log.WithFields(logrus.Fields{"payment_id": event.PaymentID, "account_id": event.AccountID, "provider": event.Provider})

	if event.PaymentID == "" || event.AccountID == "" {
		return models.TopUpResult{}, fmt.Errorf("%w: payment id and account id are required", ErrInvalidEvent)
	}
	credits, ok := s.catalog.CreditsFor(event.Provider, event.Amount)
	if !ok {
		return models.TopUpResult{}, fmt.Errorf("%w: no top-up tier for %s amount %d", ErrInvalidEvent, event.Provider, event.Amount)
	}
	event.CreditsToAdd = credits

	confirmer, ok := s.confirmers[event.Provider]
	if !ok {
		return models.TopUpResult{}, fmt.Errorf("%w: %s", ErrPaymentsDisabled, event.Provider)
	}
	if err := s.confirm(ctx, confirmer, event); err != nil {
		log.WithError(err).Warn("payment confirmation failed")
		return models.TopUpResult{}, err
	}

	if s.redis != nil {
		key := "topup:" + event.PaymentID
		acquired, err := s.redis.SetNX(ctx, key, event.AccountID, topUpLockTTL).Result()
		switch {
		case err != nil:
			log.WithError(err).Warn("top-up lock unavailable, relying on payment id constraint")
		case !acquired:
			return models.TopUpResult{}, ErrTopUpInProgress
		default:
			defer s.redis.Del(context.WithoutCancel(ctx), key)
		}
	}

	result, err := s.store.ApplyTopUp(ctx, event)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			s.audit.LogError(event.PaymentID, event.AccountID, err)
		}
		return models.TopUpResult{}, err
	}

	s.audit.LogTopUp(event.PaymentID, event.AccountID, credits, result.Balance, result.Applied)
	log.WithFields(logrus.Fields{"credits": credits, "balance": result.Balance, "applied": result.Applied}).Info("top-up processed")
	return result, nil
}

func (s *TopUpService) confirm(ctx context.Context, confirmer PaymentConfirmer, event models.PaymentEvent) error {
	p, err := confirmer.FetchPayment(ctx, event.PaymentID)
	if errors.Is(err, payments.ErrNotFound) {
		return fmt.Errorf("%w: payment %s not found", ErrPaymentNotConfirmed, event.PaymentID)
	}
	if errors.Is(err, payments.ErrNotConfigured) {
		return fmt.Errorf("%w: %v", ErrPaymentsDisabled, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	switch {
	case p.Status != payments.StatusCaptured:
		return fmt.Errorf("%w: status %q", ErrPaymentNotConfirmed, p.Status)
	case event.OrderID != "" && p.OrderID != event.OrderID:
		return fmt.Errorf("%w: order mismatch", ErrPaymentNotConfirmed)
	case p.Amount != event.Amount*payments.MinorUnits:
		return fmt.Errorf("%w: amount mismatch", ErrPaymentNotConfirmed)
	}
	return nil
}

// TopUpError maps a reconciler error to its HTTP presentation.
func TopUpError(err error) *APIError {
	switch {
	case errors.Is(err, ErrInvalidEvent):
		return NewAPIError(http.StatusBadRequest, CodeInvalidPaymentEvent, err.Error())
	case errors.Is(err, ErrPaymentNotConfirmed):
		return NewAPIError(http.StatusBadRequest, CodePaymentNotConfirmed, "Payment could not be confirmed")
	case errors.Is(err, ErrAccountNotFound):
		return NewAPIError(http.StatusNotFound, CodeProfileNotFound, "Account not found")
	case errors.Is(err, ErrTopUpInProgress):
		return NewAPIError(http.StatusConflict, CodeTopUpInProgress, "This payment is already being processed")
	case errors.Is(err, ErrPaymentProvider):
		return NewAPIError(http.StatusBadGateway, CodePaymentProviderError, "Payment provider unavailable")
	case errors.Is(err, ErrPaymentsDisabled):
		return NewAPIError(http.StatusServiceUnavailable, CodePaymentsUnavailable, "Payments are not configured")
	}
	return NewAPIError(http.StatusInternalServerError, CodeDBUpdate, "Failed to apply top-up")
}
