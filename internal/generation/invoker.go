package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/postcraft/backend/internal/config"
	"github.com/postcraft/backend/internal/models"
)

const defaultTimeout = 25 * time.Second

// Prompt is the instruction pair sent for one generation step.
type Prompt struct {
	System string
	User   string
}

// Invoker runs prompts against the configured provider using tier-specific settings.
type Invoker struct {
	completer Completer
	timeout   time.Duration
	tiers     map[models.Tier]config.TierSettings
}

// New builds an invoker from the generation config. Without an API key the
// returned invoker is the not-configured variant and every call fails with ErrNotConfigured.
func New(cfg *config.GenerationConfig, opts ...ProviderOption) *Invoker {
	if cfg == nil || cfg.APIKey == "" {
		return NotConfigured()
	}
	return NewWithCompleter(cfg, NewProvider(cfg.BaseURL, cfg.APIKey, opts...))
}

// NewWithCompleter builds an invoker around an arbitrary Completer.
func NewWithCompleter(cfg *config.GenerationConfig, c Completer) *Invoker {
	inv := &Invoker{
		completer: c,
		timeout:   cfg.Timeout,
		tiers: map[models.Tier]config.TierSettings{
			models.TierBasic:   cfg.Basic,
			models.TierPremium: cfg.Premium,
		},
	}
	if inv.timeout <= 0 {
		inv.timeout = defaultTimeout
	}
	return inv
}

// NotConfigured returns an invoker that refuses every request.
func NotConfigured() *Invoker {
	return &Invoker{completer: notConfigured{}, timeout: defaultTimeout}
}

// Configured reports whether a provider is available.
func (i *Invoker) Configured() bool {
	_, missing := i.completer.(notConfigured)
	return !missing
}

// Timeout is the bound applied to one tool invocation.
func (i *Invoker) Timeout() time.Duration {
	return i.timeout
}

// Settings returns the provider settings used for a tier.
func (i *Invoker) Settings(tier models.Tier) config.TierSettings {
	if s, ok := i.tiers[tier]; ok {
		return s
	}
	return i.tiers[models.TierBasic]
}

// Generate sends one prompt and returns the cleaned text. Errors wrap exactly
// one of ErrProviderUnavailable, ErrProviderRejected, ErrEmptyOutput or ErrNotConfigured.
func (i *Invoker) Generate(ctx context.Context, p Prompt, tier models.Tier) (Completion, error) {
	settings := i.Settings(tier)
	resp, err := i.completer.Complete(ctx, CompletionRequest{
		Model:       settings.Model,
		System:      p.System,
		Prompt:      p.User,
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
	})
	if err != nil {
		// Unclassified failures (transport, deadline) count as unavailability.
		if Classify(err) == nil {
			return Completion{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return Completion{}, err
	}

	text := CleanText(resp.Text)
	if text == "" {
		return Completion{}, ErrEmptyOutput
	}
	model := resp.Model
	if model == "" {
		model = settings.Model
	}
	return Completion{Text: text, Model: model}, nil
}
