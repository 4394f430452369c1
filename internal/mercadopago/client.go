package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/tiendaluna/storeapi/internal/config"
)

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates a new Mercado Pago REST client. The HTTP client carries a
// bounded timeout so a hung gateway call never hangs the webhook responder;
// the gateway retries on timeout by itself.
func NewClient(cfg config.MercadoPagoConfig, logger *zap.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Payment is the subset of the gateway payment record the pipeline needs.
type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
	PaymentMethodID   string  `json:"payment_method_id"`
	DateCreated       string  `json:"date_created"`
	DateApproved      string  `json:"date_approved"`
	Payer             Payer   `json:"payer"`
}

type Payer struct {
	Email string `json:"email"`
}

// PreferenceItem is a line item on a checkout preference.
type PreferenceItem struct {
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Currency  string  `json:"currency_id,omitempty"`
}

// PreferenceRequest creates a checkout preference tied to an order via
// external_reference.
type PreferenceRequest struct {
	Items             []PreferenceItem  `json:"items"`
	ExternalReference string            `json:"external_reference"`
	Payer             *PreferencePayer  `json:"payer,omitempty"`
	BackURLs          map[string]string `json:"back_urls,omitempty"`
	NotificationURL   string            `json:"notification_url,omitempty"`
}

type PreferencePayer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Preference is the created checkout preference.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type searchResponse struct {
	Results []Payment `json:"results"`
}

// GetPayment fetches the full payment record for a webhook notification's
// payment id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var payment Payment
	path := fmt.Sprintf("/v1/payments/%s", url.PathEscape(paymentID))
	if err := c.do(ctx, http.MethodGet, path, nil, &payment); err != nil {
		return nil, fmt.Errorf("failed to fetch payment %s: %w", paymentID, err)
	}
	return &payment, nil
}

// SearchByExternalReference returns the payments recorded against an order
// number. Used by the reconciliation sweep when no webhook ever landed.
func (c *Client) SearchByExternalReference(ctx context.Context, ref string) ([]Payment, error) {
	var resp searchResponse
	path := fmt.Sprintf("/v1/payments/search?external_reference=%s&sort=date_created&criteria=desc", url.QueryEscape(ref))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to search payments for %s: %w", ref, err)
	}
	return resp.Results, nil
}

// CreatePreference creates a checkout preference for a new order.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	var pref Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", req, &pref); err != nil {
		return nil, fmt.Errorf("failed to create preference for %s: %w", req.ExternalReference, err)
	}
	return &pref, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mercadopago API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
