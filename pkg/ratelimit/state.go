// Package ratelimit implements GitHub rate limit tracking and request gating.
// It monitors the X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset
// headers so that every client sharing a token backs off before GitHub starts
// answering 403.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining      = "github:rate_limit:remaining"
	RedisKeyLimit          = "github:rate_limit:limit"
	RedisKeyResetTimestamp = "github:rate_limit:reset_timestamp"
	RedisKeyResource       = "github:rate_limit:resource"
	RedisKeyLastUpdate     = "github:rate_limit:last_update"
)

// Thresholds for rate limit decisions.
const (
	// RemainingThresholdCritical blocks all requests when remaining requests fall below this value.
	RemainingThresholdCritical = 10

	// RemainingThresholdWarning applies throttling when remaining requests fall below this value.
	RemainingThresholdWarning = 100

	// RemainingThresholdHealthy indicates normal operation.
	RemainingThresholdHealthy = 500
)

// DefaultLimit is the hourly request quota of an authenticated user.
const DefaultLimit = 5000

// RateLimitState represents the current GitHub rate limit state.
// This state is shared across all client instances via Redis.
type RateLimitState struct {
	// Remaining is the number of requests left in the current window.
	// Extracted from the X-RateLimit-Remaining header.
	Remaining int `json:"remaining"`

	// Limit is the size of the window (X-RateLimit-Limit).
	Limit int `json:"limit"`

	// Resource is the rate limit bucket the last response counted against
	// (X-RateLimit-Resource: core, search, graphql, ...).
	Resource string `json:"resource"`

	// ResetAt is when the window resets (X-RateLimit-Reset, UTC epoch seconds).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is the timestamp when this state was last updated.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= RemainingThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked.
// A window that has already reset never blocks.
func (s *RateLimitState) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be throttled due to warning threshold.
func (s *RateLimitState) NeedsThrottling() bool {
	return s.Remaining < RemainingThresholdWarning && s.TimeUntilReset() > 0 && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingThresholdHealthy
}
