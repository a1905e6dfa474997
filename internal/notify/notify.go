package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/convert"
	"github.com/dgnsrekt/optchain-analytics/internal/report"
)

// Notifier is the interface for sending report and conversion notifications.
type Notifier interface {
	SendSummary(ctx context.Context, rep *report.Report) error
	SendFailure(ctx context.Context, ticker, expiration string, err error) error
	SendConvert(ctx context.Context, result *convert.BatchResult, date string, duration time.Duration) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

// SendSummary sends a chain summary notification.
func (c *Client) SendSummary(ctx context.Context, rep *report.Report) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("%s %s chain: %s", rep.Ticker, rep.Expiration, sentimentLabel(rep.Summary.Sentiment))
	return c.send(ctx, title, FormatSummaryMessage(rep), c.config.Tags, c.config.Priority)
}

// SendFailure sends a failure notification for a chain report.
func (c *Client) SendFailure(ctx context.Context, ticker, expiration string, err error) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Chain Report Failed: %s %s", ticker, expiration)
	message := FormatReportFailureMessage(ticker, expiration, err)
	tags := c.config.Tags + ",x"
	priority := "high" // Override to high priority for failures

	return c.send(ctx, title, message, tags, priority)
}

// SendConvert sends a snapshot conversion notification. Any failed task
// raises the priority.
func (c *Client) SendConvert(ctx context.Context, result *convert.BatchResult, date string, duration time.Duration) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Conversion Complete: %s", date)
	tags := c.config.Tags + ",white_check_mark"
	priority := c.config.Priority
	if result.Failed > 0 {
		title = fmt.Sprintf("Conversion Failed: %s", date)
		tags = c.config.Tags + ",x"
		priority = "high"
	}

	return c.send(ctx, title, FormatConvertMessage(result, duration), tags, priority)
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

func (n *NoopNotifier) SendSummary(_ context.Context, _ *report.Report) error { return nil }

func (n *NoopNotifier) SendFailure(_ context.Context, _, _ string, _ error) error { return nil }

func (n *NoopNotifier) SendConvert(_ context.Context, _ *convert.BatchResult, _ string, _ time.Duration) error {
	return nil
}

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if cfg == nil || !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
