package korapay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/surveyhustler-api/pkg/config"
)

// Webhook event names.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// ErrCheckoutRejected is returned when the gateway answers but refuses the charge.
var ErrCheckoutRejected = errors.New("korapay: checkout rejected")

// CheckoutRequest initialises a hosted checkout.
type CheckoutRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Narration   string `json:"narration"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Reference   string `json:"reference"`
}

// Checkout is the hosted checkout created by the gateway.
type Checkout struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
}

// WebhookEvent is the signed notification body.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string      `json:"reference"`
		Status    string      `json:"status"`
		Amount    json.Number `json:"amount"`
	} `json:"data"`
}

type apiResponse struct {
	Status  status          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// status accepts both boolean and "success" string forms.
type status bool

func (s *status) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	*s = status(raw == "true" || strings.EqualFold(raw, "success"))
	return nil
}

// Client talks to the KoraPay merchant API.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewClient constructs a gateway client.
func NewClient(cfg config.PaymentConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

// InitiateCheckout creates a hosted checkout and returns its URL.
func (c *Client) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode checkout request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/collections/pay", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call checkout endpoint: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read checkout response: %w", err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode checkout response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !bool(decoded.Status) {
		return nil, fmt.Errorf("%w: %s", ErrCheckoutRejected, decoded.Message)
	}

	var checkout Checkout
	if err := json.Unmarshal(decoded.Data, &checkout); err != nil {
		return nil, fmt.Errorf("decode checkout data: %w", err)
	}
	if checkout.CheckoutURL == "" {
		return nil, fmt.Errorf("%w: missing checkout url", ErrCheckoutRejected)
	}
	if checkout.Reference == "" {
		checkout.Reference = req.Reference
	}
	return &checkout, nil
}

// ParseEvent decodes a webhook body.
func ParseEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	if event.Event == "" || event.Data.Reference == "" {
		return nil, fmt.Errorf("webhook event missing event or reference")
	}
	return &event, nil
}
