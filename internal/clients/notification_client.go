package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/tienda-escolar/shop-service/internal/config"
	"github.com/tienda-escolar/shop-service/internal/logging"
)

// SendEmailRequest is one outgoing email.
type SendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailSender is the notification sink. Every caller treats failures as
// non-fatal: log and move on, never unwind the triggering transition.
type EmailSender interface {
	SendEmail(ctx context.Context, req *SendEmailRequest) error
}

var _ EmailSender = (*HTTPNotificationClient)(nil)

// HTTPNotificationClient sends email through the notification service.
type HTTPNotificationClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.Logger
}

// NewHTTPNotificationClient creates a new HTTP-based notification client.
func NewHTTPNotificationClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPNotificationClient {
	return &HTTPNotificationClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

// SendEmail delivers one email through the notification service.
func (c *HTTPNotificationClient) SendEmail(ctx context.Context, emailReq *SendEmailRequest) error {
	body, err := json.Marshal(emailReq)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/notifications/email", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to send email", logging.Fields{
			"to":    emailReq.To,
			"error": err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	c.logger.Info("Email sent", logging.Fields{
		"to":      emailReq.To,
		"subject": emailReq.Subject,
	})
	return nil
}

// MockEmailSender records sends for tests. Err, when set, makes every
// send fail. Safe for concurrent use; notification sends happen off the
// request goroutine.
type MockEmailSender struct {
	mu   sync.Mutex
	sent []*SendEmailRequest
	Err  error
}

func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{sent: make([]*SendEmailRequest, 0)}
}

func (m *MockEmailSender) SendEmail(ctx context.Context, req *SendEmailRequest) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	return nil
}

// SentCount returns how many emails were accepted so far.
func (m *MockEmailSender) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
