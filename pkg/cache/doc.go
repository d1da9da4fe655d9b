// Package cache provides the GitHub response cache with a Redis backend.
//
// GitHub answers every GET with an ETag (and usually Last-Modified) and
// does not count a 304 Not Modified answer to a conditional request against
// the primary rate limit. The cache keeps responses in Redis so that the
// transport can revalidate them with If-None-Match instead of downloading
// them again:
//
// - Freshness from Cache-Control max-age, then Expires, then DefaultTTL
// - Entries with a validator are retained past freshness for revalidation
// - ETag support for conditional requests (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - Response headers are kept, so a cached listing page still carries its Link header
// - Entries are scoped to the credential that fetched them
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint:    "/repos/octocat/hello-world/issues",
//		QueryParams: url.Values{"state": []string{"open"}},
//		Principal:   cache.PrincipalFor(token),
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - fetch from GitHub
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// GitHub will return 304 if not modified
//	}
//
// # Metrics
//
//   - github_cache_hits_total{layer="redis"} - Cache hits
//   - github_cache_misses_total - Cache misses
//   - github_cache_size_bytes{layer="redis"} - Bytes written to and read from the cache
//   - github_conditional_requests_total - Conditional requests sent
//   - github_304_responses_total - Conditional request successes
//   - github_cache_errors_total{operation} - Cache operation errors
package cache
