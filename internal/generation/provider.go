package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CompletionRequest is a single prompt sent to a text-generation provider.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completion is the raw provider answer.
type Completion struct {
	Text  string
	Model string
}

// Completer is implemented by provider adapters.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// notConfigured is the Completer used when no provider credentials were supplied.
type notConfigured struct{}

func (notConfigured) Complete(context.Context, CompletionRequest) (Completion, error) {
	return Completion{}, ErrNotConfigured
}

// Provider talks to an OpenAI-compatible chat completions endpoint.
type Provider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Completer = (*Provider)(nil)

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) { p.httpClient = c }
}

// NewProvider creates a provider for the given base URL (for example https://api.openai.com/v1).
func NewProvider(baseURL, apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature float64      `json:"temperature"`
}

type apiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      apiMessage `json:"message"`
		FinishReason string     `json:"finish_reason"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *Provider) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	msgs := make([]apiMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, apiMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, apiMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(apiRequest{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("%w: marshal request: %v", ErrProviderRejected, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("%w: create request: %v", ErrProviderRejected, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Completion{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer httpResp.Body.Close()

	if err := mapHTTPError(httpResp); err != nil {
		return Completion{}, err
	}

	var resp apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return Completion{}, fmt.Errorf("%w: decode response: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, ErrEmptyOutput
	}

	return Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
	}, nil
}

func mapHTTPError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(body))
	var parsed apiError
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}

	kind := ErrProviderRejected
	if resp.StatusCode >= 500 {
		kind = ErrProviderUnavailable
	}
	return &ProviderError{Kind: kind, StatusCode: resp.StatusCode, Message: message}
}
