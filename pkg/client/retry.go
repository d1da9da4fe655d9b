package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	githubRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	githubRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "github_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	githubRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration. A rate limit asking for a
	// longer wait is not retried.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// RetryPolicy picks the retry configuration for an error class.
type RetryPolicy func(ErrorClass) RetryConfig

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryConfigForErrorClass returns the appropriate retry configuration for an error class.
func RetryConfigForErrorClass(errorClass ErrorClass) RetryConfig {
	switch errorClass {
	case ErrorClassServer:
		// 5xx server errors - shorter backoff
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    1 * time.Second,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
		}
	case ErrorClassRateLimit:
		// Secondary rate limits - longer backoff
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    5 * time.Second,
			MaxBackoff:        60 * time.Second,
			BackoffMultiplier: 2.0,
		}
	case ErrorClassNetwork:
		// Network errors - medium backoff
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    2 * time.Second,
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2.0,
		}
	default:
		return DefaultRetryConfig()
	}
}

// ScaledPolicy returns RetryConfigForErrorClass with every attempt limit set
// to maxAttempts and every backoff scaled so that server errors start at
// initialBackoff.
func ScaledPolicy(maxAttempts int, initialBackoff time.Duration) RetryPolicy {
	factor := float64(initialBackoff) / float64(DefaultRetryConfig().InitialBackoff)
	return func(class ErrorClass) RetryConfig {
		config := RetryConfigForErrorClass(class)
		if maxAttempts > 0 {
			config.MaxAttempts = maxAttempts
		}
		if factor > 0 {
			config.InitialBackoff = time.Duration(float64(config.InitialBackoff) * factor)
			config.MaxBackoff = time.Duration(float64(config.MaxBackoff) * factor)
		}
		return config
	}
}

// retryWithPolicy executes fn until it succeeds, returns an error that must
// not be retried, or runs out of attempts. Each failure is classified to pick
// its retry configuration. It respects context cancellation and adds jitter to
// prevent thundering herd.
func retryWithPolicy(ctx context.Context, policy RetryPolicy, fn func() error, classify func(error) ErrorClass) error {
	var (
		lastErr   error
		lastClass ErrorClass
		attempt   int
		config    RetryConfig
	)

	for {
		attempt++

		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("error_class", string(lastClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		lastClass = classify(err)

		if !shouldRetry(lastClass) {
			return lastErr
		}

		config = policy(lastClass)
		if attempt >= config.MaxAttempts {
			break
		}

		// Exponential backoff for this attempt, capped
		backoff := config.InitialBackoff
		for i := 1; i < attempt; i++ {
			backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
				break
			}
		}

		// Add jitter (±20% randomness)
		wait := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))

		// GitHub told us how long to wait
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			if apiErr.RetryAfter > config.MaxBackoff {
				log.Warn().
					Str("error_class", string(lastClass)).
					Dur("retry_after", apiErr.RetryAfter).
					Msg("Retry-After exceeds max backoff, not retrying")
				return lastErr
			}
			wait = apiErr.RetryAfter
		}

		githubRetriesTotal.WithLabelValues(string(lastClass)).Inc()
		githubRetryBackoffSeconds.WithLabelValues(string(lastClass)).Observe(wait.Seconds())

		log.Debug().
			Str("error_class", string(lastClass)).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			log.Warn().
				Str("error_class", string(lastClass)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(wait):
		}
	}

	githubRetryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	log.Warn().
		Str("error_class", string(lastClass)).
		Int("max_attempts", config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempt, lastErr)
}
