package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/postcraft/backend/internal/config"
)

// ProviderRazorpay is the provider name used in payment events and the pricing catalog.
const ProviderRazorpay = "razorpay"

// MinorUnits is the number of paise in one rupee. Razorpay reports amounts in paise.
const MinorUnits = 100

// StatusCaptured is the Razorpay status of a settled payment.
const StatusCaptured = "captured"

var (
	ErrNotConfigured = errors.New("razorpay: not configured")
	ErrNotFound      = errors.New("razorpay: payment not found")
)

// Payment is the subset of a Razorpay payment entity used for reconciliation.
type Payment struct {
	ID       string            `json:"id"`
	OrderID  string            `json:"order_id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"` // paise
	Currency string            `json:"currency"`
	Notes    map[string]string `json:"notes"`
}

// WebhookEvent is the envelope of a Razorpay webhook delivery.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity Payment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Client confirms payments against the Razorpay REST API.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func NewClient(cfg config.RazorpayConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether API credentials are present.
func (c *Client) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// KeySecret is the secret used for checkout signatures.
func (c *Client) KeySecret() string {
	return c.keySecret
}

// FetchPayment loads a payment by id.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+paymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay: fetch payment: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("razorpay: fetch payment: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var p Payment
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("razorpay: decode payment: %w", err)
	}
	return &p, nil
}

// VerifyWebhookSignature checks X-Razorpay-Signature against the raw request body.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(sign(body, secret)), []byte(signature))
}

// VerifyCheckoutSignature checks the signature returned to the client by Checkout,
// computed over "order_id|payment_id" with the API key secret.
func VerifyCheckoutSignature(orderID, paymentID, signature, keySecret string) bool {
	if keySecret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(sign([]byte(orderID+"|"+paymentID), keySecret)), []byte(signature))
}

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
