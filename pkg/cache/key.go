package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// CacheKey represents a unique identifier for a cached GitHub response.
type CacheKey struct {
	// Endpoint is the request path (e.g., "/repos/octocat/hello-world/issues")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"state": "open", "page": "2"})
	QueryParams url.Values

	// Accept is the requested media type when it differs from the default
	Accept string

	// Principal identifies the credential the response was fetched with
	// ("" for anonymous requests)
	Principal string
}

// String generates a deterministic cache key string.
// Format: gh:endpoint:query1=val1:query2=val2:accept=...:auth=principal
//
// Example:
//
//	gh:repos/octocat/hello-world/issues:page=2:state=open:auth=3f2a9c81d0e4
func (k CacheKey) String() string {
	parts := []string{"gh"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params (sorted for determinism)
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, key+"="+strings.Join(k.QueryParams[key], ","))
		}
	}

	if k.Accept != "" {
		parts = append(parts, "accept="+k.Accept)
	}

	if k.Principal != "" {
		parts = append(parts, "auth="+k.Principal)
	}

	return strings.Join(parts, ":")
}

// PrincipalFor derives a stable, non-reversible principal from a token.
// Returns "" for an empty token.
func PrincipalFor(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}
