package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tienda-escolar/shop-service/internal/config"
	"github.com/tienda-escolar/shop-service/internal/errs"
	"github.com/tienda-escolar/shop-service/internal/logging"
)

// PaymentDetail is the provider's view of a payment. ExternalReference
// carries the order ID the checkout preference was created with.
type PaymentDetail struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	ExternalReference string    `json:"external_reference"`
	TransactionAmount float64   `json:"transaction_amount"`
	PayerEmail        string    `json:"payer_email"`
	DateApproved      time.Time `json:"date_approved"`
	DateLastUpdated   time.Time `json:"date_last_updated"`
}

// PaymentStatusApproved is the provider status that confirms a payment.
const PaymentStatusApproved = "approved"

// PreferenceItem is one order line in a checkout preference.
type PreferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
	PictureURL string  `json:"picture_url,omitempty"`
}

// PreferenceRequest asks the provider to open a checkout session for an
// order. ExternalReference must be the order ID so the webhook can
// correlate the payment back.
type PreferenceRequest struct {
	Items             []PreferenceItem  `json:"items"`
	PayerEmail        string            `json:"payer_email,omitempty"`
	ExternalReference string            `json:"external_reference"`
	BackURLs          map[string]string `json:"back_urls,omitempty"`
	NotificationURL   string            `json:"notification_url,omitempty"`
}

// Preference is the provider's checkout session.
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// PaymentProviderClient is the boundary to the external payment provider.
type PaymentProviderClient interface {
	GetPayment(ctx context.Context, providerPaymentID string) (*PaymentDetail, error)
	CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error)
}

var _ PaymentProviderClient = (*HTTPPaymentClient)(nil)

// HTTPPaymentClient talks to the payment provider over HTTP with a
// bounded timeout; no retries, the webhook path is fail-acknowledge.
type HTTPPaymentClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.Logger
}

// NewHTTPPaymentClient creates a new HTTP-based payment provider client.
func NewHTTPPaymentClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPPaymentClient {
	return &HTTPPaymentClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

// GetPayment fetches the full payment detail for a provider payment ID.
func (c *HTTPPaymentClient) GetPayment(ctx context.Context, providerPaymentID string) (*PaymentDetail, error) {
	c.logger.Debug("Fetching payment from provider", logging.Fields{
		"provider_payment_id": providerPaymentID,
	})

	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, providerPaymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Provider request failed", logging.Fields{
			"provider_payment_id": providerPaymentID,
			"error":               err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", errs.ErrProviderLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", errs.ErrProviderLookup, resp.StatusCode)
	}

	var detail PaymentDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, err
	}

	c.logger.Info("Payment detail fetched", logging.Fields{
		"provider_payment_id": detail.ID,
		"status":              detail.Status,
		"external_reference":  detail.ExternalReference,
	})
	return &detail, nil
}

// CreatePreference opens a checkout session for an order.
func (c *HTTPPaymentClient) CreatePreference(ctx context.Context, prefReq *PreferenceRequest) (*Preference, error) {
	c.logger.Debug("Creating checkout preference", logging.Fields{
		"external_reference": prefReq.ExternalReference,
		"item_count":         len(prefReq.Items),
	})

	body, err := json.Marshal(prefReq)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/checkout/preferences", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Preference request failed", logging.Fields{
			"external_reference": prefReq.ExternalReference,
			"error":              err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var pref Preference
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return nil, err
	}

	c.logger.Info("Checkout preference created", logging.Fields{
		"preference_id":      pref.ID,
		"external_reference": prefReq.ExternalReference,
	})
	return &pref, nil
}

func (c *HTTPPaymentClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// MockPaymentClient is an in-memory provider for tests.
type MockPaymentClient struct {
	Payments map[string]*PaymentDetail
	// LookupErr, when set, makes GetPayment fail (transient provider
	// outage).
	LookupErr error

	PreferenceCalls []*PreferenceRequest
}

// NewMockPaymentClient creates an empty mock provider.
func NewMockPaymentClient() *MockPaymentClient {
	return &MockPaymentClient{
		Payments: make(map[string]*PaymentDetail),
	}
}

func (m *MockPaymentClient) GetPayment(ctx context.Context, providerPaymentID string) (*PaymentDetail, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	if detail, ok := m.Payments[providerPaymentID]; ok {
		return detail, nil
	}
	return nil, fmt.Errorf("payment provider returned status %d", http.StatusNotFound)
}

func (m *MockPaymentClient) CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error) {
	m.PreferenceCalls = append(m.PreferenceCalls, req)
	return &Preference{
		ID:        fmt.Sprintf("pref_%d", len(m.PreferenceCalls)),
		InitPoint: "https://provider.test/checkout/" + req.ExternalReference,
	}, nil
}
