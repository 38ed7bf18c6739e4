package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/postcraft/backend/internal/config"
	"github.com/postcraft/backend/internal/generation"
	"github.com/postcraft/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubCompleter func(ctx context.Context, req generation.CompletionRequest) (generation.Completion, error)

func (f stubCompleter) Complete(ctx context.Context, req generation.CompletionRequest) (generation.Completion, error) {
	return f(ctx, req)
}

func reply(text string) stubCompleter {
	return func(context.Context, generation.CompletionRequest) (generation.Completion, error) {
		return generation.Completion{Text: text}, nil
	}
}

func mustNotGenerate(t *testing.T) stubCompleter {
	return func(context.Context, generation.CompletionRequest) (generation.Completion, error) {
		t.Error("generation must not be invoked")
		return generation.Completion{}, errors.New("unexpected")
	}
}

func testGenerationConfig(timeout time.Duration) *config.GenerationConfig {
	return &config.GenerationConfig{
		APIKey:  "test",
		Timeout: timeout,
		Basic:   config.TierSettings{Model: "small", MaxTokens: 100, Temperature: 0.5},
		Premium: config.TierSettings{Model: "large", MaxTokens: 800, Temperature: 0.9},
	}
}

func newTestOrchestrator(store LedgerStore, c generation.Completer) *Orchestrator {
	inv := generation.NewWithCompleter(testGenerationConfig(time.Second), c)
	return NewOrchestrator(store, inv, DefaultPricingCatalog(), quietAudit(), quietLogger())
}

func request(tool models.ToolKind, body string) GenerationRequest {
	return GenerationRequest{AccountID: "acct", Tool: tool, Body: []byte(body)}
}

func balanceOf(t *testing.T, store LedgerStore) int64 {
	t.Helper()
	b, err := store.GetBalance(context.Background(), "acct")
	require.NoError(t, err)
	return b
}

func TestOrchestrator_BasicTweetSucceeds(t *testing.T) {
	store := NewMemoryLedger()
	store.SetBalance("acct", 5)
	o := newTestOrchestrator(store, reply("Gophers assemble"))

	resp, apiErr := o.Execute(context.Background(), request(models.ToolTweet, `{"topic":"go"}`))

	require.Nil(t, apiErr)
	assert.Equal(t, int64(4), resp.RemainingCredits)
	assert.Equal(t, "Gophers assemble", resp.Content)
	assert.Equal(t, int64(1), resp.Metadata.CreditsUsed)
	assert.Equal(t, models.TierBasic, resp.Metadata.Tier)
	assert.Equal(t, "small", resp.Metadata.Model)
	assert.Equal(t, int64(4), balanceOf(t, store))

	entries, _ := store.ListEntries(context.Background(), "acct", 10)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(-1), entries[0].Delta)
	assert.Equal(t, "tweet", entries[0].Metadata["tool"])
}

func TestOrchestrator_ZeroBalanceRequiresUpgrade(t *testing.T) {
	store := NewMemoryLedger()
	store.SetBalance("acct", 0)
	o := newTestOrchestrator(store, mustNotGenerate(t))

	_, apiErr := o.Execute(context.Background(), request(models.ToolTweet, `{"topic":"go"}`))

	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.Status)
	assert.Equal(t, CodeUpgradeRequired, apiErr.Code)
	assert.Equal(t, int64(0), balanceOf(t, store))
}

func TestOrchestrator_InsufficientCredits(t *testing.T) {
	store := NewMemoryLedger()
	store.SetBalance("acct", 1)
	o := newTestOrchestrator(store, mustNotGenerate(t))

	_, apiErr := o.Execute(context.Background(), request(models.ToolHashtag, `{"topic":"go","tier":"premium"}`))

	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.Status)
	assert.Equal(t, CodeInsufficientCredits, apiErr.Code)
	assert.Equal(t, int64(2), apiErr.Details["required"])
	assert.Equal(t, int64(1), apiErr.Details["available"])
	assert.Equal(t, int64(1), balanceOf(t, store))
}

func TestOrchestrator_ProviderTimeoutAfterDebit(t *testing.T) {
	store := NewMemoryLedger()
	store.SetBalance("acct", 3)
	inv := generation.NewWithCompleter(testGenerationConfig(50*time.Millisecond), stubCompleter(func(ctx context.Context, _ generation.CompletionRequest) (generation.Completion, error) {
		<-ctx.Done()
		return generation.Completion{}, ctx.Err()
	}))
	o := NewOrchestrator(store, inv, DefaultPricingCatalog(), quietAudit(), quietLogger())

	_, apiErr := o.Execute(context.Background(), request(models.ToolHashtag, `{"topic":"go","tier":"premium"}`))

	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusGatewayTimeout, apiErr.Status)
	assert.Equal(t, CodeProviderTimeoutPost, apiErr.Code)
	assert.True(t, strings.HasSuffix(apiErr.Code, "_ERROR_POST_DEDUCTION"))
	assert.Contains(t, apiErr.Message, "2 credits were consumed")
	assert.Equal(t, int64(1), apiErr.Details["remainingCredits"])
	assert.Equal(t, int64(1), balanceOf(t, store))
}

func TestOrchestrator_PostDebitErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"provider rejected", &generation.ProviderError{Kind: generation.ErrProviderRejected, StatusCode: 429}, http.StatusBadGateway, CodeProviderErrorPost},
		{"provider 5xx", &generation.ProviderError{Kind: generation.ErrProviderUnavailable, StatusCode: 503}, http.StatusBadGateway, CodeProviderErrorPost},
		{"empty output", generation.ErrEmptyOutput, http.StatusBadGateway, CodeEmptyOutputPost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryLedger()
			store.SetBalance("acct", 5)
			o := newTestOrchestrator(store, stubCompleter(func(context.Context, generation.CompletionRequest) (generation.Completion, error) {
				return generation.Completion{}, tt.err
			}))

			_, apiErr := o.Execute(context.Background(), request(models.ToolTweet, `{"topic":"go"}`))

			require.NotNil(t, apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, int64(4), apiErr.Details["remainingCredits"])
			assert.Equal(t, int64(4), balanceOf(t, store))
		})
	}
}

func TestOrchestrator_PremiumVideoIdeaWithEmptyScript(t *testing.T) {
	store := NewMemoryLedger()
	store.SetBalance("acct", 10)
	o := newTestOrchestrator(store, stubCompleter(func(_ context.Context, req generation.CompletionRequest) (generation.Completion, error) {
		if strings.Contains(req.Prompt, "script") {
			return generation.Completion{Text: ""}, nil
		}
		return generation.Completion{Text: "Build a CLI in 60 seconds"}, nil
	}))

	resp, apiErr := o.Execute(context.Background(), request(models.ToolVideoIdea, `{"topic":"go","tier":"premium"}`))

	require.Nil(t, apiErr)
	assert.Equal(t, "Build a CLI in 60 seconds", resp.Idea)
	assert.Empty(t, resp.Script)
	assert.Equal(t, int64(7), resp.RemainingCredits)
	assert.Equal(t, int64(3), resp.Metadata.CreditsUsed)
	assert.Equal(t, int64(7), balanceOf(t, store))
}

func TestOrchestrator_RequestValidation(t *testing.T) {
	tests := []struct {
		name   string
		req    GenerationRequest
		status int
		code   string
	}{
		{"unauthenticated", GenerationRequest{Tool: models.ToolTweet, Body: []byte(`{"topic":"go"}`)}, http.StatusUnauthorized, CodeAuthRequired},
		{"unknown tool", request("podcast", `{"topic":"go"}`), http.StatusBadRequest, CodeInvalidTool},
		{"missing topic", request(models.ToolTweet, `{}`), http.StatusBadRequest, "MISSING_TOPIC"},
		{"blank topic", request(models.ToolTweet, `{"topic":"   "}`), http.StatusBadRequest, "MISSING_TOPIC"},
		{"blank description", request(models.ToolCaption, `{"description":"\t\n "}`), http.StatusBadRequest, "MISSING_DESCRIPTION"},
		{"missing content type", request(models.ToolGenericContent, `{"topic":"go"}`), http.StatusBadRequest, "MISSING_CONTENT_TYPE"},
		{"invalid platform", request(models.ToolCaption, `{"description":"x","platform":"myspace"}`), http.StatusBadRequest, "INVALID_PLATFORM"},
		{"invalid tier", request(models.ToolTweet, `{"topic":"go","tier":"gold"}`), http.StatusBadRequest, CodeInvalidTier},
		{"wrong field type", request(models.ToolHashtag, `{"topic":"go","count":"many"}`), http.StatusBadRequest, CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryLedger()
			store.SetBalance("acct", 5)
			o := newTestOrchestrator(store, mustNotGenerate(t))

			_, apiErr := o.Execute(context.Background(), tt.req)

			require.NotNil(t, apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, int64(5), balanceOf(t, store))
		})
	}
}

func TestOrchestrator_NotConfiguredRejectsBeforeDebit(t *testing.T) {
	store := NewMemoryLedger()
	store.SetBalance("acct", 5)
	o := NewOrchestrator(store, generation.NotConfigured(), DefaultPricingCatalog(), quietAudit(), quietLogger())

	_, apiErr := o.Execute(context.Background(), request(models.ToolTweet, `{"topic":"go"}`))

	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, CodeGenerationUnavailable, apiErr.Code)
	assert.Equal(t, int64(5), balanceOf(t, store))
}

func TestOrchestrator_AccountNotFound(t *testing.T) {
	o := newTestOrchestrator(NewMemoryLedger(), mustNotGenerate(t))

	_, apiErr := o.Execute(context.Background(), request(models.ToolTweet, `{"topic":"go"}`))

	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, CodeProfileNotFound, apiErr.Code)
}

func TestOrchestrator_StoreFailures(t *testing.T) {
	t.Run("balance read fails", func(t *testing.T) {
		store := new(MockLedgerStore)
		store.On("GetBalance", mock.Anything, "acct").Return(int64(0), errors.New("connection refused"))
		o := newTestOrchestrator(store, mustNotGenerate(t))

		_, apiErr := o.Execute(context.Background(), request(models.ToolTweet, `{"topic":"go"}`))

		require.NotNil(t, apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Equal(t, CodeDBFetch, apiErr.Code)
		store.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed account row", func(t *testing.T) {
		store := new(MockLedgerStore)
		store.On("GetBalance", mock.Anything, "acct").Return(int64(0), ErrProfileDataInvalid)
		o := newTestOrchestrator(store, mustNotGenerate(t))

		_, apiErr := o.Execute(context.Background(), request(models.ToolTweet, `{"topic":"go"}`))

		require.NotNil(t, apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
		assert.Equal(t, CodeProfileDataInvalid, apiErr.Code)
	})

	t.Run("debit fails", func(t *testing.T) {
		store := new(MockLedgerStore)
		store.On("GetBalance", mock.Anything, "acct").Return(int64(5), nil)
		store.On("Debit", mock.Anything, "acct", int64(1), mock.Anything, mock.Anything).
			Return(models.DebitResult{}, errors.New("deadlock detected"))
		o := newTestOrchestrator(store, mustNotGenerate(t))

		_, apiErr := o.Execute(context.Background(), request(models.ToolTweet, `{"topic":"go"}`))

		require.NotNil(t, apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Equal(t, CodeDBUpdate, apiErr.Code)
		store.AssertExpectations(t)
	})

	t.Run("concurrent debit wins the race", func(t *testing.T) {
		store := new(MockLedgerStore)
		store.On("GetBalance", mock.Anything, "acct").Return(int64(1), nil)
		store.On("Debit", mock.Anything, "acct", int64(1), mock.Anything, mock.Anything).
			Return(models.DebitResult{Prior: 0, Balance: 0}, ErrInsufficientBalance)
		o := newTestOrchestrator(store, mustNotGenerate(t))

		_, apiErr := o.Execute(context.Background(), request(models.ToolTweet, `{"topic":"go"}`))

		require.NotNil(t, apiErr)
		assert.Equal(t, http.StatusPaymentRequired, apiErr.Status)
		assert.Equal(t, CodeUpgradeRequired, apiErr.Code)
	})

	t.Run("top-up lands between failed debit and re-read", func(t *testing.T) {
		store := new(MockLedgerStore)
		store.On("GetBalance", mock.Anything, "acct").Return(int64(1), nil)
		store.On("Debit", mock.Anything, "acct", int64(1), mock.Anything, mock.Anything).
			Return(models.DebitResult{Prior: 40, Balance: 40}, ErrInsufficientBalance)
		o := newTestOrchestrator(store, mustNotGenerate(t))

		_, apiErr := o.Execute(context.Background(), request(models.ToolTweet, `{"topic":"go"}`))

		require.NotNil(t, apiErr)
		assert.Equal(t, http.StatusPaymentRequired, apiErr.Status)
		assert.Equal(t, CodeInsufficientCredits, apiErr.Code)
		assert.Equal(t, int64(40), apiErr.Details["available"])
	})
}

func TestOrchestrator_LegacyCreditsSelector(t *testing.T) {
	store := NewMemoryLedger()
	store.SetBalance("acct", 10)
	var model atomic.Value
	o := newTestOrchestrator(store, stubCompleter(func(_ context.Context, req generation.CompletionRequest) (generation.Completion, error) {
		model.Store(req.Model)
		return generation.Completion{Text: "idea"}, nil
	}))

	resp, apiErr := o.Execute(context.Background(), request(models.ToolVideoIdea, `{"topic":"go","credits":3}`))

	require.Nil(t, apiErr)
	assert.Equal(t, models.TierPremium, resp.Metadata.Tier)
	assert.Equal(t, "large", model.Load())
	assert.Equal(t, int64(7), resp.RemainingCredits)
}

func TestOrchestrator_GenerationSurvivesClientDisconnect(t *testing.T) {
	store := NewMemoryLedger()
	store.SetBalance("acct", 2)
	o := newTestOrchestrator(store, stubCompleter(func(ctx context.Context, _ generation.CompletionRequest) (generation.Completion, error) {
		if ctx.Err() != nil {
			return generation.Completion{}, ctx.Err()
		}
		return generation.Completion{Text: "still delivered"}, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, apiErr := o.Execute(ctx, request(models.ToolTweet, `{"topic":"go"}`))

	require.Nil(t, apiErr)
	assert.Equal(t, "still delivered", resp.Content)
	assert.Equal(t, int64(1), resp.RemainingCredits)
}

func TestOrchestrator_ConcurrentRequestsNeverOverdraw(t *testing.T) {
	store := NewMemoryLedger()
	store.SetBalance("acct", 5)
	o := newTestOrchestrator(store, reply("ok"))

	const workers = 12
	results := make(chan *APIError, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, apiErr := o.Execute(context.Background(), request(models.ToolHashtag, `{"topic":"go","tier":"premium"}`))
			results <- apiErr
		}()
	}

	succeeded := 0
	for i := 0; i < workers; i++ {
		if apiErr := <-results; apiErr == nil {
			succeeded++
		} else {
			assert.Equal(t, http.StatusPaymentRequired, apiErr.Status)
		}
	}

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, int64(1), balanceOf(t, store))
}
