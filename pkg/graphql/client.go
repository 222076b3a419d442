// Package graphql provides the WPGraphQL HTTP client with rate limiting,
// response caching, retries and error classification.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/wpgraphql-pages/pkg/cache"
	"github.com/Sternrassler/wpgraphql-pages/pkg/ratelimit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxErrorBody bounds how much of a failed response body ends up in an error.
const maxErrorBody = 512

// Request is a GraphQL request envelope.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Response is a GraphQL response envelope.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []ErrorItem     `json:"errors,omitempty"`
}

// Config holds the client configuration.
type Config struct {
	// Endpoint is the full GraphQL URL, e.g. https://example.com/graphql.
	Endpoint string

	UserAgent string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	Retry RetryConfig

	// Cache is optional; nil disables response caching.
	Cache *cache.Manager

	// CacheTTL applies when the response has no Expires header.
	CacheTTL time.Duration

	// RateLimiter is optional; nil disables pacing.
	RateLimiter *ratelimit.Limiter

	// HTTPClient overrides the default client (mainly for tests).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration for endpoint.
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:  endpoint,
		UserAgent: "wpgraphql-pages/0.1.0",
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
		CacheTTL:  cache.DefaultTTL,
	}
}

// Client executes GraphQL operations against a single endpoint.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new GraphQL client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if !strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return nil, fmt.Errorf("endpoint must be an http(s) URL (got %q)", cfg.Endpoint)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     log.With().Str("component", "graphql").Str("endpoint", cfg.Endpoint).Logger(),
	}, nil
}

// Endpoint returns the configured GraphQL URL.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// Do executes req and decodes the "data" member into out.
// An "errors" array is returned as *ResponseError when data is missing or
// null; next to usable data the errors are logged and the data is kept.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	op := operationLabel(req.OperationName)

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	body, err := c.execute(ctx, req)
	if err != nil {
		return err
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassGraphQL)).Inc()
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	hasData := len(resp.Data) > 0 && string(resp.Data) != "null"

	// Field errors next to usable data are partial results: keep the data.
	if len(resp.Errors) > 0 {
		errorsTotal.WithLabelValues(string(ErrorClassGraphQL)).Inc()
		event := c.logger.Warn().
			Str("operation", op).
			Int("errors", len(resp.Errors)).
			Str("first_error", resp.Errors[0].Message)
		if !hasData {
			event.Msg("GraphQL response contains errors")
			return &ResponseError{Operation: req.OperationName, Errors: resp.Errors}
		}
		if len(resp.Errors[0].Path) > 0 {
			event = event.Interface("path", resp.Errors[0].Path)
		}
		event.Msg("GraphQL response contains partial errors")
	}

	if out == nil {
		return nil
	}
	if !hasData {
		return fmt.Errorf("%w: missing data", ErrInvalidResponse)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrInvalidResponse, err)
	}
	return nil
}

// execute returns the raw response body, serving from and filling the cache.
func (c *Client) execute(ctx context.Context, req Request) ([]byte, error) {
	op := operationLabel(req.OperationName)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	key := cache.CacheKey{
		Endpoint:  c.config.Endpoint,
		Operation: req.OperationName,
		Query:     req.Query,
		Variables: req.Variables,
	}

	var cached *cache.CacheEntry
	if c.config.Cache != nil {
		entry, err := c.config.Cache.Get(ctx, key)
		switch {
		case err == nil:
			cached = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("operation", op).Msg("Cache get error")
		}
	}

	// Fresh entries without validators are served directly.
	if cached != nil && !cache.ShouldMakeConditionalRequest(cached) {
		c.logger.Debug().Str("operation", op).Dur("ttl", cached.TTL()).Msg("Serving response from cache")
		requestsTotal.WithLabelValues(op, "cached").Inc()
		return cached.Data, nil
	}

	var (
		body       []byte
		status     int
		header     http.Header
		errorClass ErrorClass
	)

	retryErr := retryWithBackoff(ctx, c.logger, c.config.Retry, func() error {
		if err := c.config.RateLimiter.Wait(ctx); err != nil {
			// Only cancellation or an unreachable deadline fail here.
			errorClass = ErrorClassClient
			return err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
		if err != nil {
			errorClass = ErrorClassClient
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
		if cached != nil {
			cache.AddConditionalHeaders(httpReq, cached)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().Str("operation", op).Str("etag", cached.ETag).Msg("Making conditional request")
		}

		c.logger.Debug().Str("operation", op).Any("variables", req.Variables).Msg("Executing GraphQL request")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			errorClass = ErrorClassNetwork
			if ctx.Err() != nil {
				// The caller gave up; retrying cannot help.
				errorClass = ErrorClassClient
			}
			errorsTotal.WithLabelValues(string(errorClass)).Inc()
			requestsTotal.WithLabelValues(op, "network_error").Inc()
			c.logger.Error().Err(err).Str("operation", op).Msg("HTTP request failed")
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		header = resp.Header

		if status == http.StatusNotModified {
			return nil
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			errorClass = ErrorClassNetwork
			errorsTotal.WithLabelValues(string(errorClass)).Inc()
			return fmt.Errorf("read response body: %w", err)
		}

		if status >= 400 {
			errorClass = classifyStatus(status)
			errorsTotal.WithLabelValues(string(errorClass)).Inc()
			requestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
			c.logger.Warn().
				Str("operation", op).
				Int("status", status).
				Str("error_class", string(errorClass)).
				Msg("GraphQL request error")
			return &Error{
				StatusCode: status,
				ErrorClass: errorClass,
				Message:    errorMessage(status, data),
			}
		}

		requestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
		body = data
		return nil
	}, func(error) ErrorClass {
		return errorClass
	})

	if retryErr != nil {
		return nil, retryErr
	}

	if status == http.StatusNotModified && cached != nil {
		c.logger.Debug().Str("operation", op).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()
		c.refreshTTL(ctx, key, header)
		return cached.Data, nil
	}

	c.store(ctx, key, status, header, body)
	return body, nil
}

// store caches a successful response that carries no GraphQL errors.
func (c *Client) store(ctx context.Context, key cache.CacheKey, status int, header http.Header, body []byte) {
	if c.config.Cache == nil || status != http.StatusOK {
		return
	}

	var envelope struct {
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Errors) > 0 {
		return
	}

	entry, err := cache.ResponseToEntry(&http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}, c.config.CacheTTL)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		return
	}

	if err := c.config.Cache.Set(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache response")
		return
	}
	c.logger.Debug().Str("key", key.String()).Dur("ttl", entry.TTL()).Msg("Cached response")
}

func (c *Client) refreshTTL(ctx context.Context, key cache.CacheKey, header http.Header) {
	expires := time.Now().Add(c.config.CacheTTL)
	if v := header.Get("Expires"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			expires = t
		}
	}
	if err := c.config.Cache.UpdateTTL(ctx, key, expires); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
	}
}

// classifyStatus maps an HTTP status to an ErrorClass.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// errorMessage prefers the GraphQL error messages of a failed response and
// falls back to a truncated body.
func errorMessage(status int, body []byte) string {
	var resp Response
	if err := json.Unmarshal(body, &resp); err == nil && len(resp.Errors) > 0 {
		return (&ResponseError{Errors: resp.Errors}).Error()
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return msg
}

func operationLabel(name string) string {
	if name == "" {
		return "anonymous"
	}
	return name
}
