package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/secunit404/railpulse/internal/provider/resilience"
)

// ProviderName identifies the webhook transport in provider health output.
const ProviderName = "discord"

// ClientConfig holds configuration for the Discord webhook client.
type ClientConfig struct {
	// HTTPClient is the HTTP client to use. If nil, a resilient client
	// with defaults is created. The resilient client's rate-limit handling
	// covers Discord's 429 responses.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client posts webhook messages.
type Client struct {
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Discord webhook client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}
	return &Client{
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Send posts a message to the given webhook URL.
func (c *Client) Send(ctx context.Context, webhookURL string, message Message) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encoding webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook rejected message: status %d: %s", resp.StatusCode, string(detail))
	}

	c.logger.Debug().
		Int("embeds", len(message.Embeds)).
		Msg("webhook message delivered")
	return nil
}

// SendReport renders and posts a delay report. Reports without delays are
// skipped; the webhook only hears about trouble.
func (c *Client) SendReport(ctx context.Context, webhookURL string, report Report) error {
	if len(report.Delays) == 0 {
		c.logger.Debug().
			Str("monitor", report.MonitorName).
			Msg("no delays to report, skipping webhook")
		return nil
	}
	return c.Send(ctx, webhookURL, BuildMessage(report))
}
