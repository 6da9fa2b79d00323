package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shownames/internal/config"
)

// maxErrorBody limits how much of a failed response is echoed into errors
const maxErrorBody = 512

// Client performs user searches against a forum over HTTP
type Client struct {
	baseURL     string
	apiKey      string
	apiUsername string

	httpClient *http.Client
	breaker    *Breaker
	stats      *Stats
	logger     zerolog.Logger
}

// Options for creating a new Client
type Options struct {
	BaseURL        string
	APIKey         string
	APIUsername    string
	RequestTimeout time.Duration
	CircuitBreaker *config.CircuitBreakerConfig
	Logger         zerolog.Logger
}

// NewClient creates a new search Client
func NewClient(opts Options) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		apiUsername: opts.APIUsername,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.RequestTimeout,
		},
		breaker: NewBreaker(opts.CircuitBreaker),
		stats:   &Stats{},
		logger:  opts.Logger.With().Str("component", "search").Logger(),
	}
}

// NewClientFromConfig creates a Client from config
func NewClientFromConfig(cfg *config.Config, logger zerolog.Logger) *Client {
	return NewClient(Options{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		APIUsername:    cfg.APIUsername,
		RequestTimeout: cfg.GetRequestTimeoutDuration(),
		CircuitBreaker: cfg.CircuitBreaker,
		Logger:         logger,
	})
}

// Stats returns the client counters
func (c *Client) Stats() *Stats {
	return c.stats
}

// Search looks up all usernames in one request
func (c *Client) Search(ctx context.Context, req Request) (*Response, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, req)
	c.breaker.Record(err)
	if err != nil {
		c.stats.IncrementFailureCount()
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	query := url.Values{}
	query.Set("usernames", strings.Join(req.Usernames, ","))
	query.Set("include_groups", strconv.FormatBool(req.IncludeGroups))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+Path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Api-Key", c.apiKey)
		httpReq.Header.Set("Api-Username", c.apiUsername)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	c.stats.IncrementRequestCount()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, fmt.Errorf("HTTP error %d: %s", httpResp.StatusCode, string(body))
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	c.logger.Debug().
		Int("usernames", len(req.Usernames)).
		Int("users", len(resp.Users)).
		Int("groups", len(resp.Groups)).
		Msg("search completed")

	return &resp, nil
}
