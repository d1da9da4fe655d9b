//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func rateLimitHeaders(remaining int, resetIn time.Duration) http.Header {
	headers := http.Header{}
	headers.Set("X-RateLimit-Limit", "5000")
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetIn).Unix(), 10))
	headers.Set("X-RateLimit-Resource", "core")
	return headers
}

func TestTracker_Integration_GetState(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(redisClient, logger)
	ctx := context.Background()

	// Default state when Redis is empty
	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != DefaultLimit {
		t.Errorf("Default Remaining = %d, want %d", state.Remaining, DefaultLimit)
	}
	if !state.IsHealthy {
		t.Error("Default state should be healthy")
	}

	// Update state and retrieve it
	if err := tracker.UpdateFromHeaders(ctx, rateLimitHeaders(4321, 20*time.Minute)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	state, err = tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() after update error = %v", err)
	}
	if state.Remaining != 4321 {
		t.Errorf("Remaining = %d, want 4321", state.Remaining)
	}
	if state.Limit != 5000 {
		t.Errorf("Limit = %d, want 5000", state.Limit)
	}
	if state.Resource != "core" {
		t.Errorf("Resource = %q, want core", state.Resource)
	}
	if !state.IsHealthy {
		t.Error("State with 4321 remaining should be healthy")
	}

	expected := 20 * time.Minute
	actual := state.TimeUntilReset()
	tolerance := 5 * time.Second
	if actual < expected-tolerance || actual > expected+tolerance {
		t.Errorf("TimeUntilReset = %v, want approximately %v", actual, expected)
	}
}

func TestTracker_Integration_ShouldAllowRequest_Critical(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(redisClient, logger)
	ctx := context.Background()

	if err := tracker.UpdateFromHeaders(ctx, rateLimitHeaders(3, time.Minute)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Error("ShouldAllowRequest() = true, want false for critical state")
	}
}

func TestTracker_Integration_ShouldAllowRequest_Warning(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(redisClient, logger)
	ctx := context.Background()

	if err := tracker.UpdateFromHeaders(ctx, rateLimitHeaders(50, time.Minute)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	start := time.Now()
	allowed, err := tracker.ShouldAllowRequest(ctx)
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if !allowed {
		t.Error("ShouldAllowRequest() = false, want true for warning state")
	}
	if duration < 900*time.Millisecond {
		t.Errorf("ShouldAllowRequest() throttle duration = %v, want >= 1s", duration)
	}
}

func TestTracker_Integration_ShouldAllowRequest_WarningCancelled(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(redisClient, logger)
	tracker.SetThrottleDelay(time.Minute)

	if err := tracker.UpdateFromHeaders(context.Background(), rateLimitHeaders(50, time.Hour)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err == nil {
		t.Fatal("ShouldAllowRequest() error = nil, want context deadline")
	}
	if allowed {
		t.Error("ShouldAllowRequest() = true after cancellation")
	}
}

func TestTracker_Integration_ShouldAllowRequest_Healthy(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(redisClient, logger)
	ctx := context.Background()

	if err := tracker.UpdateFromHeaders(ctx, rateLimitHeaders(4999, time.Hour)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	start := time.Now()
	allowed, err := tracker.ShouldAllowRequest(ctx)
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if !allowed {
		t.Error("ShouldAllowRequest() = false, want true for healthy state")
	}
	if duration > 100*time.Millisecond {
		t.Errorf("ShouldAllowRequest() duration = %v, want < 100ms for healthy state", duration)
	}
}

func TestTracker_Integration_WindowReset(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(redisClient, logger)
	ctx := context.Background()

	// Critical state whose window resets in 2 seconds
	if err := tracker.UpdateFromHeaders(ctx, rateLimitHeaders(0, 2*time.Second)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Fatal("ShouldAllowRequest() = true before reset")
	}

	time.Sleep(3 * time.Second)

	// The stored state is stale but the window is over
	allowed, err = tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if !allowed {
		t.Error("ShouldAllowRequest() = false after window reset")
	}
}
