// Package backend is the HTTP client for the Mailliam backend service, which
// owns authentication, email retrieval, summarization and scheduling.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mailliam/internal/logger"
	"mailliam/internal/metrics"
)

// Operation names used in logs and metrics
const (
	OpLoadSummaries     = "load_summaries"
	OpUpdateSummaryTime = "update_summary_time"
	OpSendSummaryNow    = "send_summary_now"
)

const maxBodyBytes = 1 << 20

// Observer receives one observation per backend call
type Observer interface {
	ObserveBackend(operation, outcome string, d time.Duration)
}

// Config configures a Client
type Config struct {
	Resolver Resolver
	// PublicURL is the backend address as seen by browsers
	PublicURL  string
	Feed       Feed
	Timeout    time.Duration
	HTTPClient *http.Client
	Observer   Observer
	Logger     *slog.Logger
}

// Client talks to the backend endpoints
type Client struct {
	resolver  Resolver
	publicURL string
	feed      Feed
	timeout   time.Duration
	http      *http.Client
	observer  Observer
	logger    *slog.Logger
}

// NewClient creates a backend client
func NewClient(cfg Config) (*Client, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("backend resolver is required")
	}
	public, err := parseBase(cfg.PublicURL)
	if err != nil {
		return nil, err
	}
	if cfg.Feed == "" {
		cfg.Feed = FeedActions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		resolver:  cfg.Resolver,
		publicURL: public.String(),
		feed:      cfg.Feed,
		timeout:   cfg.Timeout,
		http:      cfg.HTTPClient,
		observer:  cfg.Observer,
		logger:    cfg.Logger,
	}, nil
}

// LoginURL is where the browser is sent to start the OAuth flow
func (c *Client) LoginURL() string {
	return c.publicURL + "/auth/login"
}

// Feed returns the configured summaries feed
func (c *Client) Feed() Feed {
	return c.feed
}

// Summaries fetches the summarized emails of a user
func (c *Client) Summaries(ctx context.Context, email string) ([]Summary, error) {
	query := url.Values{"user_email": {email}}

	var summaries []Summary
	err := c.do(ctx, OpLoadSummaries, http.MethodGet, c.feed.path(), query, nil, func(body []byte) error {
		var err error
		summaries, err = decodeSummaries(c.feed, body)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched email summaries",
		slog.String(logger.KeyEmail, email),
		slog.Int("count", len(summaries)),
	)
	return summaries, nil
}

// UpdateSummaryTime stores the daily digest time of a user. summaryTime is
// forwarded as given.
func (c *Client) UpdateSummaryTime(ctx context.Context, email, summaryTime string) error {
	req := UpdateSummaryTimeRequest{Email: email, SummaryTime: summaryTime}
	return c.do(ctx, OpUpdateSummaryTime, http.MethodPost, "/update-summary-time", nil, req, nil)
}

// SendSummaryNow asks the backend to deliver a digest immediately
func (c *Client) SendSummaryNow(ctx context.Context, email string) error {
	req := SendSummaryNowRequest{Email: email}
	return c.do(ctx, OpSendSummaryNow, http.MethodPost, "/send-summary-now", nil, req, nil)
}

// do performs one request. payload, when non-nil, is sent as JSON; decode,
// when non-nil, receives the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any, decode func([]byte) error) error {
	start := time.Now()
	outcome := metrics.OutcomeSuccess
	defer func() {
		if c.observer != nil {
			c.observer.ObserveBackend(op, outcome, time.Since(start))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	base, err := c.resolver.BaseURL(ctx)
	if err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("%s: %w", op, err)
	}
	target := base.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = metrics.OutcomeStatus
		return &StatusError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), 200),
		}
	}

	if decode != nil {
		if err := decode(body); err != nil {
			outcome = metrics.OutcomeShape
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

func decodeSummaries(feed Feed, body []byte) ([]Summary, error) {
	switch feed {
	case FeedInbox:
		var list []Summary
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		if list == nil {
			return nil, ErrUnexpectedShape
		}
		return list, nil
	default:
		var envelope actionsResponse
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		if envelope.Emails == nil {
			return nil, fmt.Errorf("%w: missing emails list", ErrUnexpectedShape)
		}
		return *envelope.Emails, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
