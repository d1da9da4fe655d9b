package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	githubRateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "github_rate_limit_remaining",
		Help: "Number of requests remaining in the current GitHub rate limit window",
	})

	githubRateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "github_rate_limit_blocks_total",
		Help: "Total number of requests blocked due to critical rate limit",
	})

	githubRateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "github_rate_limit_throttles_total",
		Help: "Total number of requests throttled due to warning rate limit",
	})
)

// DefaultThrottleDelay is how long a request waits in the warning state.
const DefaultThrottleDelay = 1 * time.Second

// Tracker monitors GitHub rate limits and gates requests.
type Tracker struct {
	redis    *redis.Client
	logger   zerolog.Logger
	throttle time.Duration
}

// NewTracker creates a new rate limit tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:    redisClient,
		logger:   logger,
		throttle: DefaultThrottleDelay,
	}
}

// SetThrottleDelay changes the delay applied in the warning state (for testing).
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttle = d
}

// GetState retrieves the current rate limit state from Redis.
// Returns a default healthy state if no data exists in Redis.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	remaining, err := t.redis.Get(ctx, RedisKeyRemaining).Int()
	if errors.Is(err, redis.Nil) {
		t.logger.Debug().Msg("No rate limit state in Redis, returning default healthy state")
		return &RateLimitState{
			Remaining:  DefaultLimit, // Assume healthy until we get real data
			Limit:      DefaultLimit,
			ResetAt:    time.Now().Add(time.Hour),
			LastUpdate: time.Now(),
			IsHealthy:  true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get remaining: %w", err)
	}

	limit, err := t.redis.Get(ctx, RedisKeyLimit).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get limit: %w", err)
	}

	resetTimestamp, err := t.redis.Get(ctx, RedisKeyResetTimestamp).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	resource, err := t.redis.Get(ctx, RedisKeyResource).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get resource: %w", err)
	}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &RateLimitState{
		Remaining:  remaining,
		Limit:      limit,
		Resource:   resource,
		ResetAt:    time.Unix(resetTimestamp, 0),
		LastUpdate: lastUpdate,
	}
	state.UpdateHealth()

	return state, nil
}

// ParseHeaders extracts the rate limit state from GitHub response headers.
// It returns nil when the response carries no rate limit headers
// (e.g. 304 answers from some proxies or GitHub Enterprise with limits disabled).
func ParseHeaders(headers http.Header) (*RateLimitState, error) {
	remainStr := headers.Get("X-RateLimit-Remaining")
	if remainStr == "" {
		return nil, nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return nil, fmt.Errorf("parse X-RateLimit-Remaining header: %w", err)
	}

	resetStr := headers.Get("X-RateLimit-Reset")
	if resetStr == "" {
		return nil, fmt.Errorf("X-RateLimit-Reset header missing")
	}

	resetEpoch, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse X-RateLimit-Reset header: %w", err)
	}

	limit := DefaultLimit
	if limitStr := headers.Get("X-RateLimit-Limit"); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil {
			return nil, fmt.Errorf("parse X-RateLimit-Limit header: %w", err)
		}
	}

	state := &RateLimitState{
		Remaining:  remain,
		Limit:      limit,
		Resource:   headers.Get("X-RateLimit-Resource"),
		ResetAt:    time.Unix(resetEpoch, 0),
		LastUpdate: time.Now(),
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders parses GitHub rate limit headers and updates Redis state.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	state, err := ParseHeaders(headers)
	if err != nil {
		return err
	}
	if state == nil {
		// Header not present
		return nil
	}

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	// Store in Redis atomically
	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRemaining, state.Remaining, 0)
	pipe.Set(ctx, RedisKeyLimit, state.Limit, 0)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), 0)
	pipe.Set(ctx, RedisKeyResource, state.Resource, 0)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	githubRateLimitRemaining.Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("GitHub rate limit CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("GitHub rate limit WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Int("limit", state.Limit).
			Str("resource", state.Resource).
			Time("reset_at", state.ResetAt).
			Bool("is_healthy", state.IsHealthy).
			Msg("GitHub rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be allowed based on current rate limit state.
// Returns false if the request should be blocked due to critical rate limit.
// Returns true but may wait for throttling if in warning state.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("GitHub rate limit critical - blocking request")

		githubRateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("GitHub rate limit warning - throttling request")

		githubRateLimitThrottlesTotal.Inc()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.throttle):
		}
	}

	return true, nil
}
