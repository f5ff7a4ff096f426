// internal/domain/payment/razorpay.go
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
)

// ProviderOrder is a hosted payment order
type ProviderOrder struct {
	ID        string            `json:"id"`
	Entity    string            `json:"entity"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

// CreateOrderParams describes a hosted payment order to create. Amount is in minor units.
type CreateOrderParams struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Provider is the hosted payment gateway
type Provider interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*ProviderOrder, error)
	FetchOrder(ctx context.Context, providerOrderID string) (*ProviderOrder, error)
	VerifySignature(providerOrderID, providerPaymentID, signature string) bool
	KeyID() string
}

// Signature is the hex HMAC-SHA256 of "<orderID>|<paymentID>" keyed with secret
func Signature(secret, providerOrderID, providerPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(providerOrderID + "|" + providerPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// RazorpayClient talks to the Razorpay orders API
type RazorpayClient struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

// NewRazorpayClient creates a client from configuration
func NewRazorpayClient(cfg config.RazorpayConfig) *RazorpayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}
	return &RazorpayClient{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// KeyID is the public key handed to checkout clients
func (r *RazorpayClient) KeyID() string {
	return r.keyID
}

// CreateOrder creates a Razorpay order
func (r *RazorpayClient) CreateOrder(ctx context.Context, params CreateOrderParams) (*ProviderOrder, error) {
	var out ProviderOrder
	if err := r.call(ctx, http.MethodPost, "/orders", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchOrder retrieves a Razorpay order by id
func (r *RazorpayClient) FetchOrder(ctx context.Context, providerOrderID string) (*ProviderOrder, error) {
	var out ProviderOrder
	if err := r.call(ctx, http.MethodGet, "/orders/"+providerOrderID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifySignature checks a checkout callback signature in constant time
func (r *RazorpayClient) VerifySignature(providerOrderID, providerPaymentID, signature string) bool {
	expected := Signature(r.keySecret, providerOrderID, providerPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (r *RazorpayClient) call(ctx context.Context, method, endpoint string, payload, out any) error {
	if r.keyID == "" || r.keySecret == "" {
		return fmt.Errorf("razorpay credentials not configured")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(r.keyID, r.keySecret)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("razorpay %s %s failed with status %d: %s", method, endpoint, resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse razorpay response: %w", err)
	}
	return nil
}
