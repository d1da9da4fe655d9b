package ratelimit

import (
	"testing"
	"time"
)

func TestRateLimitState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *RateLimitState
		maxAge   time.Duration
		expected bool
	}{
		{
			name:     "fresh state",
			state:    &RateLimitState{LastUpdate: time.Now()},
			maxAge:   5 * time.Minute,
			expected: false,
		},
		{
			name:     "stale state",
			state:    &RateLimitState{LastUpdate: time.Now().Add(-10 * time.Minute)},
			maxAge:   5 * time.Minute,
			expected: true,
		},
		{
			name:     "just under max age",
			state:    &RateLimitState{LastUpdate: time.Now().Add(-4 * time.Minute)},
			maxAge:   5 * time.Minute,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.state.IsStale(tt.maxAge)
			if result != tt.expected {
				t.Errorf("IsStale() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestRateLimitState_NeedsCriticalBlock(t *testing.T) {
	future := time.Now().Add(30 * time.Minute)

	tests := []struct {
		name      string
		remaining int
		resetAt   time.Time
		expected  bool
	}{
		{
			name:      "well above critical threshold",
			remaining: 4000,
			resetAt:   future,
			expected:  false,
		},
		{
			name:      "at critical threshold",
			remaining: RemainingThresholdCritical,
			resetAt:   future,
			expected:  false,
		},
		{
			name:      "just below critical threshold",
			remaining: RemainingThresholdCritical - 1,
			resetAt:   future,
			expected:  true,
		},
		{
			name:      "zero remaining",
			remaining: 0,
			resetAt:   future,
			expected:  true,
		},
		{
			name:      "zero remaining but window already reset",
			remaining: 0,
			resetAt:   time.Now().Add(-time.Minute),
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &RateLimitState{Remaining: tt.remaining, ResetAt: tt.resetAt}
			result := state.NeedsCriticalBlock()
			if result != tt.expected {
				t.Errorf("NeedsCriticalBlock() = %v, want %v (remaining=%d)", result, tt.expected, tt.remaining)
			}
		})
	}
}

func TestRateLimitState_NeedsThrottling(t *testing.T) {
	future := time.Now().Add(30 * time.Minute)

	tests := []struct {
		name      string
		remaining int
		resetAt   time.Time
		expected  bool
	}{
		{
			name:      "healthy state",
			remaining: 4000,
			resetAt:   future,
			expected:  false,
		},
		{
			name:      "at warning threshold",
			remaining: RemainingThresholdWarning,
			resetAt:   future,
			expected:  false,
		},
		{
			name:      "just below warning threshold",
			remaining: RemainingThresholdWarning - 1,
			resetAt:   future,
			expected:  true,
		},
		{
			name:      "just above critical threshold",
			remaining: RemainingThresholdCritical + 1,
			resetAt:   future,
			expected:  true,
		},
		{
			name:      "below critical threshold",
			remaining: RemainingThresholdCritical - 1,
			resetAt:   future,
			expected:  false, // Critical blocks, not throttles
		},
		{
			name:      "window already reset",
			remaining: RemainingThresholdWarning - 1,
			resetAt:   time.Now().Add(-time.Minute),
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &RateLimitState{Remaining: tt.remaining, ResetAt: tt.resetAt}
			result := state.NeedsThrottling()
			if result != tt.expected {
				t.Errorf("NeedsThrottling() = %v, want %v (remaining=%d)", result, tt.expected, tt.remaining)
			}
		})
	}
}

func TestRateLimitState_TimeUntilReset(t *testing.T) {
	tests := []struct {
		name      string
		resetAt   time.Time
		expected  time.Duration
		tolerance time.Duration
	}{
		{
			name:      "reset in future",
			resetAt:   time.Now().Add(5 * time.Minute),
			expected:  5 * time.Minute,
			tolerance: 1 * time.Second,
		},
		{
			name:     "reset already passed",
			resetAt:  time.Now().Add(-5 * time.Minute),
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &RateLimitState{ResetAt: tt.resetAt}
			result := state.TimeUntilReset()

			if tt.expected == 0 {
				if result != 0 {
					t.Errorf("TimeUntilReset() = %v, want 0 for past reset time", result)
				}
				return
			}

			diff := result - tt.expected
			if diff < 0 {
				diff = -diff
			}
			if diff > tt.tolerance {
				t.Errorf("TimeUntilReset() = %v, want approximately %v (tolerance %v)", result, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestRateLimitState_UpdateHealth(t *testing.T) {
	tests := []struct {
		name            string
		remaining       int
		expectedHealthy bool
	}{
		{name: "healthy state", remaining: 4999, expectedHealthy: true},
		{name: "at healthy threshold", remaining: RemainingThresholdHealthy, expectedHealthy: true},
		{name: "just below healthy threshold", remaining: RemainingThresholdHealthy - 1, expectedHealthy: false},
		{name: "warning state", remaining: 50, expectedHealthy: false},
		{name: "critical state", remaining: 3, expectedHealthy: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &RateLimitState{Remaining: tt.remaining}
			state.UpdateHealth()

			if state.IsHealthy != tt.expectedHealthy {
				t.Errorf("UpdateHealth() set IsHealthy = %v, want %v (remaining=%d)",
					state.IsHealthy, tt.expectedHealthy, tt.remaining)
			}
		})
	}
}

func TestThresholdConstants(t *testing.T) {
	if RemainingThresholdCritical >= RemainingThresholdWarning {
		t.Errorf("RemainingThresholdCritical (%d) must be less than RemainingThresholdWarning (%d)",
			RemainingThresholdCritical, RemainingThresholdWarning)
	}

	if RemainingThresholdWarning >= RemainingThresholdHealthy {
		t.Errorf("RemainingThresholdWarning (%d) must be less than RemainingThresholdHealthy (%d)",
			RemainingThresholdWarning, RemainingThresholdHealthy)
	}

	if RemainingThresholdHealthy >= DefaultLimit {
		t.Errorf("RemainingThresholdHealthy (%d) must be less than DefaultLimit (%d)",
			RemainingThresholdHealthy, DefaultLimit)
	}
}
