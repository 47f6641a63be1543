// Package emailjs is a client for the EmailJS REST API, the transactional
// email relay that delivers contact-form messages to the shop's inbox.
package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/protech/repairbot/internal/resilience"
)

const sendPath = "/api/v1.0/email/send"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 1024

var (
	// ErrNotConfigured is returned when service, template or public key is missing.
	ErrNotConfigured = errors.New("emailjs: relay is not configured")
	// ErrRelay is wrapped by every error response from the relay.
	ErrRelay = errors.New("emailjs: relay rejected the message")
)

// RelayError carries the HTTP status and plain-text body EmailJS returned.
type RelayError struct {
	StatusCode int
	Text       string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("emailjs: status %d: %s", e.StatusCode, e.Text)
}

func (e *RelayError) Unwrap() error { return ErrRelay }

// Permanent reports whether retrying cannot help: client errors other
// than rate limiting mean the request itself is wrong.
func (e *RelayError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// IsPermanent reports whether err is a RelayError that will not succeed on retry.
func IsPermanent(err error) bool {
	var relayErr *RelayError
	return errors.As(err, &relayErr) && relayErr.Permanent()
}

// Config identifies the EmailJS account, service and template.
type Config struct {
	BaseURL    string
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
	Timeout    time.Duration
}

// Client sends templated emails through EmailJS.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a Client. Sending fails with ErrNotConfigured until
// ServiceID, TemplateID and PublicKey are set.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	log := logger.With("component", "emailjs")

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:      "emailjs",
			Timeout:   cfg.Timeout,
			IsFailure: func(err error) bool { return !IsPermanent(err) },
			Logger:    log,
		}),
		logger: log,
	}
}

// Configured reports whether the client has enough settings to send.
func (c *Client) Configured() bool {
	return c.cfg.ServiceID != "" && c.cfg.TemplateID != "" && c.cfg.PublicKey != ""
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send delivers one email rendered from the configured template with params.
func (c *Client) Send(ctx context.Context, params map[string]string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:      c.cfg.ServiceID,
		TemplateID:     c.cfg.TemplateID,
		UserID:         c.cfg.PublicKey,
		AccessToken:    c.cfg.PrivateKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("emailjs: failed to encode request: %w", err)
	}

	startTime := time.Now()
	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.post(ctx, body)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "EmailJS send failed",
			"error", err,
			"breaker_state", c.breaker.State(),
			"duration", time.Since(startTime))
		return err
	}

	c.logger.InfoContext(ctx, "EmailJS send succeeded", "duration", time.Since(startTime))
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("emailjs: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &RelayError{StatusCode: resp.StatusCode, Text: strings.TrimSpace(string(text))}
}
