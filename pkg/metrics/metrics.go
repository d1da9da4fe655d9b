// Package metrics exposes the Prometheus metrics of the GitHub client.
// All metrics are defined in their respective packages (pagination, bulk,
// client, cache, ratelimit) to maintain modularity and avoid circular
// dependencies; this package serves them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the default Prometheus registry used by the GitHub client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the /metrics handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}()

	logger.Info().Str("addr", addr).Msg("Serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Metrics Documentation
//
// Pagination Metrics (pkg/pagination):
//   - github_pages_fetched_total{outcome} (Counter): Page fetches by outcome (ok, transport_error, malformed)
//   - github_page_fetch_duration_seconds (Histogram): Latency of a single page fetch
//   - github_page_elements (Histogram): Elements per fetched page
//   - github_sequence_elements_total (Counter): Elements handed to callers after mapping
//
// Bulk Metrics (pkg/bulk):
//   - github_bulk_items_total (Counter): Items wrapped with captured listing JSON
//   - github_bulk_captured_reads_total (Counter): JSON reads answered without a request
//
// Rate Limit Metrics (pkg/ratelimit):
//   - github_rate_limit_remaining (Gauge): X-RateLimit-Remaining of the last response
//   - github_rate_limit_blocks_total (Counter): Requests blocked near exhaustion
//   - github_rate_limit_throttles_total (Counter): Requests delayed by throttling
//
// Cache Metrics (pkg/cache):
//   - github_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - github_cache_misses_total (Counter): Cache misses
//   - github_cache_size_bytes{layer="redis"} (Gauge): Bytes written to and read from the cache
//   - github_304_responses_total (Counter): 304 Not Modified responses
//   - github_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - github_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - github_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - github_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - github_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, circuit_open)
//   - github_breaker_state{name} (Gauge): Circuit breaker state (0 closed, 1 half-open, 2 open)
//
// Retry Metrics (pkg/client):
//   - github_retries_total{error_class} (Counter): Retry attempts by error class
//   - github_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - github_retry_exhausted_total{error_class} (Counter): Requests that exhausted their attempts
//
// Example Prometheus Queries:
//
//   # Requests saved by bulk listings
//   rate(github_bulk_captured_reads_total[5m])
//
//   # Cache Hit Rate
//   sum(rate(github_cache_hits_total[5m])) /
//   (sum(rate(github_cache_hits_total[5m])) + sum(rate(github_cache_misses_total[5m])))
//
//   # Rate limit running low
//   github_rate_limit_remaining < 100
//
//   # P95 page latency
//   histogram_quantile(0.95, rate(github_page_fetch_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(github_304_responses_total[5m]) / rate(github_requests_total[5m])
