// Package feed talks to the remote transaction feed. The feed is an opaque
// polled service with two read-only operations: the single newest
// transaction, and every transaction within a trailing window.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fraudwatch/pkg/model"
)

// Client is the read-only feed contract consumed by the pollers.
type Client interface {
	// MostRecent returns the single newest transaction known to the feed.
	MostRecent(ctx context.Context) (model.Transaction, error)

	// WithinMinutes returns every transaction the feed considers within
	// the trailing window of the given size.
	WithinMinutes(ctx context.Context, minutes int) ([]model.Transaction, error)
}

// Config holds HTTP client configuration.
type Config struct {
	// BaseURL is the feed root, e.g. "http://localhost:9090".
	BaseURL string

	// Timeout bounds each request. Zero means the default.
	Timeout time.Duration
}

// DefaultConfig returns a configuration pointed at a local feed.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:9090",
		Timeout: 5 * time.Second,
	}
}

// HTTPClient is the concrete feed client.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient creates a feed client with the given configuration.
func NewHTTPClient(config Config) (*HTTPClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("feed: base URL required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("feed: invalid base URL: %w", err)
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &HTTPClient{
		baseURL: config.BaseURL,
		http:    &http.Client{Timeout: config.Timeout},
	}, nil
}

// MostRecent implements Client. A response without a usable transaction id
// is reported as malformed so the caller can discard it.
func (c *HTTPClient) MostRecent(ctx context.Context) (model.Transaction, error) {
	var env model.Envelope
	if err := c.getJSON(ctx, c.baseURL+"/last_transaction", &env); err != nil {
		return model.Transaction{}, err
	}

	t := model.Normalize(env)
	if t.TransactionID == "" {
		return model.Transaction{}, fmt.Errorf("%w: transaction without id", ErrMalformed)
	}
	return t, nil
}

// WithinMinutes implements Client. success=false and a missing transactions
// array both mean this response carries no information.
func (c *HTTPClient) WithinMinutes(ctx context.Context, minutes int) ([]model.Transaction, error) {
	u := c.baseURL + "/transactions?minutes=" + strconv.Itoa(minutes)

	var resp model.WindowResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, ErrNoData
	}
	if resp.Transactions == nil {
		return nil, fmt.Errorf("%w: missing transactions array", ErrMalformed)
	}
	return model.NormalizeAll(resp.Transactions), nil
}

func (c *HTTPClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("feed: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("feed: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
