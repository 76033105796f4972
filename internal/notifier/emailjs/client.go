package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/CameronXie/prosthesis-orders/internal/notifier"
)

const (
	DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"
	DefaultTimeout  = 10 * time.Second

	maxErrorBodyBytes = 1024
)

// Config holds the EmailJS service, template and key pair.
type Config struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
	Endpoint   string
}

// SendError is returned when EmailJS answers with a non-2xx status.
type SendError struct {
	StatusCode int
	Text       string
}

// Error implements the error interface
func (e *SendError) Error() string {
	return fmt.Sprintf("emailjs responded %d: %s", e.StatusCode, e.Text)
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Client sends notifications through the EmailJS REST API
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates an EmailJS client. A nil httpClient gets one with DefaultTimeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
	}
}

// Notify implements notifier.Notifier.
func (c *Client) Notify(ctx context.Context, n notifier.Notification) error {
	payload, err := json.Marshal(sendRequest{
		ServiceID:      c.cfg.ServiceID,
		TemplateID:     c.cfg.TemplateID,
		UserID:         c.cfg.PublicKey,
		AccessToken:    c.cfg.PrivateKey,
		TemplateParams: n.TemplateParams(),
	})
	if err != nil {
		return fmt.Errorf("encode emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send emailjs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &SendError{
			StatusCode: resp.StatusCode,
			Text:       strings.TrimSpace(string(body)),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
