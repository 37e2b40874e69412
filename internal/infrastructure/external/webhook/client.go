// Package webhook delivers notifications to a configured HTTP endpoint.
// The receiving side (bot, web push relay, test harness) is whatever the
// operator points the URL at; the engine only guarantees the payload shape.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/notification"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the webhook client.
type ClientConfig struct {
	// URL is the endpoint notifications are POSTed to.
	URL string

	// AuthToken is sent as a bearer token when non-empty.
	AuthToken string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(url string) ClientConfig {
	return ClientConfig{
		URL:     url,
		Timeout: 10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client POSTs notifications as JSON. It implements notification.Notifier.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new webhook client.
func NewClient(config ClientConfig, log *logger.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		log: log.With(logger.String("component", "webhook_notifier")),
	}
}

// Send delivers one notification. A non-2xx response is an error; 429 and
// 5xx are worth retrying, which the caller decides.
func (c *Client) Send(ctx context.Context, n notification.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: endpoint returned %d", resp.StatusCode)
	}

	c.log.Debug("notification delivered",
		logger.String("user_id", n.UserID.String()),
		logger.String("type", string(n.Type)),
	)
	return nil
}
