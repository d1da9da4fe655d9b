// Package client provides the GitHub REST API transport with authentication,
// rate limiting, conditional-request caching, retries and a circuit breaker.
// *Client satisfies pagination.Doer and is the Doer the github package is
// normally built with.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jcabi/jcabi-github-sub002/pkg/cache"
	"github.com/jcabi/jcabi-github-sub002/pkg/logging"
	"github.com/jcabi/jcabi-github-sub002/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Prometheus metrics for GitHub client operations.
var (
	githubRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_requests_total",
		Help: "Total GitHub requests by endpoint and status",
	}, []string{"endpoint", "status"})

	githubRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "github_request_duration_seconds",
		Help:    "GitHub request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	githubErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_errors_total",
		Help: "Total GitHub errors by class",
	}, []string{"class"})

	githubBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "github_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})
)

const (
	// DefaultBaseURL is the public GitHub REST API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultAPIVersion is sent as X-GitHub-Api-Version.
	DefaultAPIVersion = "2022-11-28"

	// MediaType is the default Accept header.
	MediaType = "application/vnd.github+json"
)

// errServerFailure marks a 5xx answer as a failure for the circuit breaker.
var errServerFailure = errors.New("server failure")

// Client is the main GitHub client.
type Client struct {
	httpClient  *http.Client
	redis       *redis.Client
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	breaker     *gobreaker.CircuitBreaker
	retryPolicy RetryPolicy
	principal   string
	config      Config
	logger      zerolog.Logger
	requests    atomic.Int64
}

// Config holds the client configuration.
type Config struct {
	// Redis client for caching and rate limit state
	Redis *redis.Client

	// User-Agent header (REQUIRED by GitHub)
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Token is sent as "Authorization: Bearer <token>" (empty = anonymous)
	Token string

	// BaseURL is the REST API root used by Get
	BaseURL string

	// APIVersion is sent as X-GitHub-Api-Version
	APIVersion string

	// Timeout bounds a single HTTP attempt
	Timeout time.Duration

	// Retry
	MaxRetries     int           // Max attempts per request, including the first
	InitialBackoff time.Duration // Backoff before the first retry of a 5xx

	// Circuit breaker
	BreakerFailures uint32        // Consecutive failures that open the breaker
	BreakerTimeout  time.Duration // How long the breaker stays open
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, userAgent string) Config {
	return Config{
		Redis:           redis,
		UserAgent:       userAgent,
		BaseURL:         DefaultBaseURL,
		APIVersion:      DefaultAPIVersion,
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		InitialBackoff:  1 * time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// New creates a new GitHub client.
func New(cfg Config) (*Client, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("max_retries must be >= 1 (got %d)", cfg.MaxRetries)
	}

	if cfg.BreakerFailures < 1 {
		return nil, fmt.Errorf("breaker_failures must be >= 1 (got %d)", cfg.BreakerFailures)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := logging.NewLogger(logging.ComponentClient)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "github",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			githubBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		redis:       cfg.Redis,
		rateLimiter: ratelimit.NewTracker(cfg.Redis, logger),
		cache:       cache.NewManager(cfg.Redis),
		breaker:     breaker,
		retryPolicy: ScaledPolicy(cfg.MaxRetries, cfg.InitialBackoff),
		principal:   cache.PrincipalFor(cfg.Token),
		config:      cfg,
		logger:      logger,
	}, nil
}

// Do performs an HTTP request with rate limiting, caching, and error handling.
// This is the core request method that orchestrates all client features.
//
// Responses with a 4xx status other than a rate limit are returned to the
// caller unchanged. Server errors, rate limits and network failures are
// retried; when the attempts run out the error wraps ErrRetryExhausted and
// the last *APIError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		githubRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Rate Limit
	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by rate limiter")
		githubRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, fmt.Errorf("request blocked: %w", ErrRateLimitCritical)
	}

	// Step 2: Set GitHub headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", MediaType)
	}
	req.Header.Set("X-GitHub-Api-Version", c.config.APIVersion)
	if c.config.Token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	// Step 3: Check Cache (GET only)
	cacheable := req.Method == http.MethodGet
	cacheKey := c.cacheKey(req)

	var cachedEntry *cache.CacheEntry
	if cacheable {
		cachedEntry, err = c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	// Step 4: Make Conditional Request if cache hit
	if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing GitHub request")

	// Step 5: Execute HTTP Request with Retry Logic
	var resp *http.Response
	var errClass ErrorClass

	retryErr := retryWithPolicy(ctx, c.retryPolicy, func() error {
		resp = nil

		var reqErr error
		resp, reqErr = c.execute(req)
		if reqErr != nil {
			if errors.Is(reqErr, gobreaker.ErrOpenState) || errors.Is(reqErr, gobreaker.ErrTooManyRequests) {
				errClass = ErrorClassCircuitOpen
			} else {
				errClass = c.classifyError(nil, reqErr)
			}
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Str("error_class", string(errClass)).Msg("HTTP request failed")
			githubErrorsTotal.WithLabelValues(string(errClass)).Inc()
			githubRequestsTotal.WithLabelValues(endpoint, string(errClass)).Inc()
			return &APIError{Class: errClass, Message: "request failed", Err: reqErr}
		}

		if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		// 304 Not Modified is a success
		if resp.StatusCode == http.StatusNotModified {
			return nil
		}

		if resp.StatusCode >= 400 {
			errClass = c.classifyError(resp, nil)
			githubErrorsTotal.WithLabelValues(string(errClass)).Inc()
			githubRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("GitHub request error")

			if shouldRetry(errClass) {
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				return newAPIError(resp, errClass, body)
			}

			// Client errors go back to the caller as responses
			return nil
		}

		githubRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}, func(error) ErrorClass {
		return errClass
	})

	if retryErr != nil {
		return nil, retryErr
	}

	// Step 6: Handle 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		githubRequestsTotal.WithLabelValues(endpoint, "304").Inc()
		cache.NotModifiedResponses.Inc()

		if err := c.cache.UpdateTTL(ctx, cacheKey, cache.ExpiresFromHeaders(resp.Header)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}

		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 7: Update Cache on success
	if cacheable && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	}

	return resp, nil
}

// execute sends one attempt through the circuit breaker. Network errors and
// 5xx answers count as breaker failures; the response is still returned for
// 5xx so the caller can classify it.
func (c *Client) execute(req *http.Request) (*http.Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		c.requests.Add(1)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerFailure
		}
		return resp, nil
	})

	if errors.Is(err, errServerFailure) {
		return result.(*http.Response), nil
	}
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

// cacheKey derives the cache key of a request.
func (c *Client) cacheKey(req *http.Request) cache.CacheKey {
	key := cache.CacheKey{
		Endpoint:    req.URL.Path,
		QueryParams: req.URL.Query(),
		Principal:   c.principal,
	}
	if accept := req.Header.Get("Accept"); accept != MediaType {
		key.Accept = accept
	}
	return key
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		c.logger.Debug().Str("class", string(ErrorClassNetwork)).Msg("Error classified")
		return ErrorClassNetwork
	}

	switch {
	case isRateLimitResponse(resp):
		c.logger.Debug().Str("class", string(ErrorClassRateLimit)).Msg("Error classified")
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.logger.Debug().Str("class", string(ErrorClassClient)).Msg("Error classified")
		return ErrorClassClient
	case resp.StatusCode >= 500:
		c.logger.Debug().Str("class", string(ErrorClassServer)).Msg("Error classified")
		return ErrorClassServer
	default:
		return ""
	}
}

// Get performs a GET request to a GitHub endpoint relative to BaseURL.
func (c *Client) Get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// RateLimit returns the shared rate limit state.
func (c *Client) RateLimit(ctx context.Context) (*ratelimit.RateLimitState, error) {
	return c.rateLimiter.GetState(ctx)
}

// Requests returns the number of HTTP attempts sent so far, retries included.
// Attempts refused by the open circuit breaker are not counted.
func (c *Client) Requests() int64 {
	return c.requests.Load()
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager (for testing).
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
