package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/postcraft/backend/internal/audit"
	"github.com/postcraft/backend/internal/generation"
	"github.com/postcraft/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// GenerationRequest is one tool invocation by an authenticated principal.
type GenerationRequest struct {
	AccountID string
	Tool      models.ToolKind
	Body      []byte
}

// GenerationResponse is the success body: the tool's result fields plus the balance after the debit.
type GenerationResponse struct {
	*models.GenerationResult
	RemainingCredits int64 `json:"remainingCredits"`
}

// selector carries the explicit or legacy tier choice of a request body.
type selector struct {
	Tier    string `json:"tier"`
	Credits *int64 `json:"credits"`
}

// Orchestrator runs the credit protocol around a generation: validate and price,
// read the balance, guard, debit, invoke, respond. The debit is the commit point;
// failures after it are reported, never rolled back.
type Orchestrator struct {
	store     LedgerStore
	invoker   *generation.Invoker
	catalog   *PricingCatalog
	validator *ValidationHelper
	audit     *audit.AuditLogger
	log       logrus.FieldLogger
}

func NewOrchestrator(store LedgerStore, invoker *generation.Invoker, catalog *PricingCatalog, auditLogger *audit.AuditLogger, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		invoker:   invoker,
		catalog:   catalog,
		validator: NewValidationHelper(),
		audit:     auditLogger,
		log:       log,
	}
}

// Execute runs one request to completion. Exactly one of the return values is non-nil.
func (o *Orchestrator) Execute(ctx context.Context, req GenerationRequest) (*GenerationResponse, *APIError) {
	if req.AccountID == "" {
		return nil, NewAPIError(http.StatusUnauthorized, CodeAuthRequired, "Authentication required")
	}
	log := o.log.WithFields(logrus.Fields{"account_id": req.AccountID, "tool": req.Tool})

	tool, ok := generation.Lookup(req.Tool)
	if !ok {
		return nil, NewAPIError(http.StatusBadRequest, CodeInvalidTool, fmt.Sprintf("Unknown tool %q", req.Tool))
	}

	var sel selector
	if err := json.Unmarshal(req.Body, &sel); err != nil {
		return nil, NewAPIError(http.StatusBadRequest, CodeInvalidRequest, "Invalid request")
	}
	tier, err := models.ParseTier(sel.Tier)
	if err != nil {
		return nil, NewAPIError(http.StatusBadRequest, CodeInvalidTier, "tier must be basic or premium")
	}
	if sel.Tier == "" && sel.Credits != nil {
		tier = o.catalog.TierForCredits(req.Tool, *sel.Credits)
	}

	params := tool.NewParams()
	if err := json.Unmarshal(req.Body, params); err != nil {
		return nil, NewAPIError(http.StatusBadRequest, CodeInvalidRequest, "Invalid request")
	}
	if apiErr := o.validator.Validate(params); apiErr != nil {
		return nil, apiErr
	}

	pricing, ok := o.catalog.Price(req.Tool, tier)
	if !ok {
		return nil, NewAPIError(http.StatusBadRequest, CodeInvalidTool, fmt.Sprintf("Tool %q is not priced", req.Tool))
	}
	price := pricing.Price

	if !o.invoker.Configured() {
		return nil, NewAPIError(http.StatusServiceUnavailable, CodeGenerationUnavailable, "Content generation is not configured")
	}

	balance, err := o.store.GetBalance(ctx, req.AccountID)
	if err != nil {
		return nil, o.balanceError(log, err)
	}

	if apiErr := denial(CanDebit(balance, price), balance, price); apiErr != nil {
		return nil, apiErr
	}

	reference := uuid.NewString()
	debit, err := o.store.Debit(ctx, req.AccountID, price, reference, models.Metadata{
		"tool": string(req.Tool),
		"tier": string(tier),
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			// Lost a race with a concurrent debit. The re-read balance may already
			// include a later top-up, so the denial never falls through.
			if apiErr := denial(CanDebit(debit.Balance, price), debit.Balance, price); apiErr != nil {
				return nil, apiErr
			}
			return nil, NewAPIError(http.StatusPaymentRequired, CodeInsufficientCredits, "Your balance changed during this request. Please try again").
				WithDetail("required", price).
				WithDetail("available", debit.Balance)
		}
		if errors.Is(err, ErrAccountNotFound) {
			return nil, NewAPIError(http.StatusNotFound, CodeProfileNotFound, "Account not found")
		}
		log.WithError(err).Error("debit failed")
		return nil, NewAPIError(http.StatusInternalServerError, CodeDBUpdate, "Failed to deduct credits")
	}
	o.audit.LogDebit(reference, req.AccountID, price, debit.Balance, string(req.Tool), string(tier))

	// The generation outlives a disconnected client: credits are already spent.
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.invoker.Timeout())
	defer cancel()

	start := time.Now()
	result, err := tool.Run(genCtx, o.invoker, params, generation.RunOptions{
		Tier:       tier,
		Variations: pricing.Variations,
		Log:        log.WithField("reference", reference),
	})
	if err != nil {
		o.audit.LogPostDebitFailure(reference, req.AccountID, price, debit.Balance, err)
		log.WithError(err).WithField("reference", reference).Warn("generation failed after debit")
		return nil, postDebitError(err, price, debit.Balance)
	}

	result.Metadata.GenerationTime = time.Since(start).Milliseconds()
	result.Metadata.CreditsUsed = price
	result.Metadata.Tier = tier

	return &GenerationResponse{GenerationResult: result, RemainingCredits: debit.Balance}, nil
}

func (o *Orchestrator) balanceError(log logrus.FieldLogger, err error) *APIError {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return NewAPIError(http.StatusNotFound, CodeProfileNotFound, "Account not found")
	case errors.Is(err, ErrProfileDataInvalid):
		return NewAPIError(http.StatusNotFound, CodeProfileDataInvalid, "Account data is invalid")
	}
	log.WithError(err).Error("balance read failed")
	return NewAPIError(http.StatusInternalServerError, CodeDBFetch, "Failed to fetch account")
}

func denial(d Decision, balance, price int64) *APIError {
	switch d {
	case DeniedZeroBalance:
		return NewAPIError(http.StatusPaymentRequired, CodeUpgradeRequired, "You have no credits left. Top up to continue").
			WithDetail("required", price).
			WithDetail("available", balance)
	case DeniedInsufficientBalance:
		return NewAPIError(http.StatusPaymentRequired, CodeInsufficientCredits, fmt.Sprintf("This request needs %d credits but you have %d", price, balance)).
			WithDetail("required", price).
			WithDetail("available", balance)
	}
	return nil
}

// postDebitError reports a generation failure that happened after credits were spent.
func postDebitError(err error, price, remaining int64) *APIError {
	var providerErr *generation.ProviderError
	var apiErr *APIError
	switch {
	case errors.As(err, &providerErr):
		apiErr = NewAPIError(http.StatusBadGateway, CodeProviderErrorPost, "The generation provider returned an error")
	case errors.Is(err, generation.ErrProviderUnavailable):
		apiErr = NewAPIError(http.StatusGatewayTimeout, CodeProviderTimeoutPost, "The generation provider did not respond in time")
	case errors.Is(err, generation.ErrEmptyOutput):
		apiErr = NewAPIError(http.StatusBadGateway, CodeEmptyOutputPost, "The generation provider returned no content")
	default:
		apiErr = NewAPIError(http.StatusBadGateway, CodeProviderErrorPost, "Generation failed")
	}
	apiErr.Message = fmt.Sprintf("%s. %d credits were consumed", apiErr.Message, price)
	return apiErr.
		WithDetail("creditsUsed", price).
		WithDetail("remainingCredits", remaining)
}
