//go:build integration

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jcabi/jcabi-github-sub002/internal/testutil"
	"github.com/jcabi/jcabi-github-sub002/pkg/cache"
	"github.com/jcabi/jcabi-github-sub002/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

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

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func integrationConfig(redisClient *redis.Client, baseURL string) Config {
	cfg := DefaultConfig(redisClient, "IntegrationTest/1.0.0 (test@example.com)")
	cfg.BaseURL = baseURL
	cfg.Token = "ghp_integration"
	cfg.InitialBackoff = 10 * time.Millisecond
	return cfg
}

func TestIntegration_FullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	var requestsMade, conditionalRequests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsMade.Add(1)

		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(5000-int(requestsMade.Load())))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		w.Header().Set("Cache-Control", "private, max-age=60, s-maxage=60")

		if r.Header.Get("If-None-Match") == `"repo-v1"` {
			conditionalRequests.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", `"repo-v1"`)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"full_name":"octocat/hello-world","open_issues_count":3}`))
	}))
	defer server.Close()

	client, err := New(integrationConfig(redisClient, server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	// Phase 1: first request goes to GitHub and is cached
	resp, err := client.Get(ctx, "/repos/octocat/hello-world")
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	var repo map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&repo); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	resp.Body.Close()

	if repo["full_name"] != "octocat/hello-world" {
		t.Errorf("full_name = %v", repo["full_name"])
	}

	// Phase 2: repeated requests are revalidated and served from cache
	for i := 0; i < 3; i++ {
		resp, err := client.Get(ctx, "/repos/octocat/hello-world")
		if err != nil {
			t.Fatalf("Revalidation %d failed: %v", i+1, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Revalidation %d status = %d, want 200", i+1, resp.StatusCode)
		}
		if len(body) == 0 {
			t.Errorf("Revalidation %d returned an empty body", i+1)
		}
	}

	if requestsMade.Load() != 4 {
		t.Errorf("Requests made = %d, want 4", requestsMade.Load())
	}
	if conditionalRequests.Load() != 3 {
		t.Errorf("Conditional requests = %d, want 3", conditionalRequests.Load())
	}

	// Phase 3: rate limit state reflects the last response
	state, err := client.RateLimit(ctx)
	if err != nil {
		t.Fatalf("RateLimit() failed: %v", err)
	}
	if state.Remaining != 4996 {
		t.Errorf("Remaining = %d, want 4996", state.Remaining)
	}
}

func TestIntegration_PaginatedListing(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockGitHub()
	defer mock.Close()

	var pages [][]string
	for p := 0; p < 4; p++ {
		var elements []string
		for i := 1; i <= 25; i++ {
			elements = append(elements, fmt.Sprintf(`{"number":%d}`, p*25+i))
		}
		pages = append(pages, elements)
	}
	mock.SetPages("/repos/octocat/hello-world/issues", pages...)

	client, err := New(integrationConfig(redisClient, mock.URL()))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	type issue struct {
		Number int `json:"number"`
	}

	listing := pagination.NewListing(client, pagination.Request{
		URL:   mock.URL() + "/repos/octocat/hello-world/issues",
		Query: map[string][]string{"per_page": {"25"}},
	}, pagination.Decode[issue]())

	ctx := context.Background()
	for round := 1; round <= 2; round++ {
		issues, err := listing.Iterate().Collect(ctx)
		if err != nil {
			t.Fatalf("Round %d failed: %v", round, err)
		}
		if len(issues) != 100 {
			t.Fatalf("Round %d returned %d issues, want 100", round, len(issues))
		}
		for i, is := range issues {
			if is.Number != i+1 {
				t.Fatalf("Round %d: issue %d has number %d", round, i, is.Number)
			}
		}
	}

	if mock.GetRequestCount() != 8 {
		t.Errorf("Request count = %d, want 8", mock.GetRequestCount())
	}
	if mock.GetConditionalCount() != 4 {
		t.Errorf("Conditional count = %d, want 4", mock.GetConditionalCount())
	}
}

func TestIntegration_StaleEntryRetainedForRevalidation(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	var conditionalRequests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Already stale when it arrives
		w.Header().Set("Cache-Control", "private, max-age=0")
		if r.Header.Get("If-None-Match") == `"short"` {
			conditionalRequests.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"short"`)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"login":"octocat"}`))
	}))
	defer server.Close()

	client, err := New(integrationConfig(redisClient, server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	resp, err := client.Get(ctx, "/user")
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	resp.Body.Close()

	time.Sleep(100 * time.Millisecond)

	resp, err = client.Get(ctx, "/user")
	if err != nil {
		t.Fatalf("Second request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if conditionalRequests.Load() != 1 {
		t.Errorf("Conditional requests = %d, want 1", conditionalRequests.Load())
	}
	if string(body) != `{"login":"octocat"}` {
		t.Errorf("Body = %s, want cached body", body)
	}
}

func TestIntegration_EntryWithoutValidatorExpires(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "private, max-age=1")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":"short-lived"}`))
	}))
	defer server.Close()

	client, err := New(integrationConfig(redisClient, server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	resp, err := client.Get(ctx, "/meta")
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	resp.Body.Close()

	key := cache.CacheKey{
		Endpoint:  "/meta",
		Principal: cache.PrincipalFor("ghp_integration"),
	}
	if _, err := client.GetCache().Get(ctx, key); err != nil {
		t.Fatalf("Expected fresh cache entry, got %v", err)
	}

	time.Sleep(2 * time.Second)

	if _, err := client.GetCache().Get(ctx, key); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("Expected cache miss after expiration, got %v", err)
	}
}

func TestIntegration_ConcurrentRequests(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	var requestCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.Header().Set("X-RateLimit-Remaining", "4000")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"number":1}`))
	}))
	defer server.Close()

	client, err := New(integrationConfig(redisClient, server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	const workers = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			resp, err := client.Get(ctx, fmt.Sprintf("/repos/octocat/hello-world/issues/%d", n))
			if err != nil {
				errs <- err
				return
			}
			resp.Body.Close()
		}(i + 1)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent request failed: %v", err)
	}
	if requestCount.Load() != workers {
		t.Errorf("Request count = %d, want %d", requestCount.Load(), workers)
	}
	if client.Requests() != workers {
		t.Errorf("Requests() = %d, want %d", client.Requests(), workers)
	}
}
