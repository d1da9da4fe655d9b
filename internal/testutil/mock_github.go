// Package testutil provides testing utilities for the GitHub client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock GitHub endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGitHub is a configurable mock GitHub REST API server for testing.
type MockGitHub struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	failures map[string]map[int]MockResponse

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
	pathCounts        map[string]int
	requestURIs       []string
}

// NewMockGitHub creates a new mock GitHub server.
func NewMockGitHub() *MockGitHub {
	mock := &MockGitHub{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		failures:   make(map[string]map[int]MockResponse),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.pathCounts[r.URL.Path]++
		mock.requestURIs = append(mock.requestURIs, r.URL.RequestURI())
		mock.LastRequestHeader = r.Header.Clone()

		// Track conditional requests
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		mock.mu.Unlock()

		// Check for custom handler
		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGitHub) URL() string {
	return m.server.URL
}

// Client returns an HTTP client wired to the mock server.
func (m *MockGitHub) Client() *http.Client {
	return m.server.Client()
}

// Close shuts down the mock server.
func (m *MockGitHub) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGitHub) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.pathCounts = make(map[string]int)
	m.requestURIs = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGitHub) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockGitHub) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetPages serves a paginated listing at path. Each page is a list of JSON
// elements; the page is selected by the "page" query parameter (1-based) and
// every page but the last carries a Link header with rel="next". Every page
// has a weak ETag and answers 304 to a matching If-None-Match.
func (m *MockGitHub) SetPages(path string, pages ...[]string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil || n < 1 {
				http.Error(w, `{"message":"bad page"}`, http.StatusBadRequest)
				return
			}
			page = n
		}

		m.mu.RLock()
		failure, failing := m.failures[path][page]
		m.mu.RUnlock()
		if failing {
			writeResponse(w, failure)
			return
		}

		var elements []string
		if page <= len(pages) {
			elements = pages[page-1]
		}

		etag := fmt.Sprintf(`W/"%s-%d"`, strings.Trim(path, "/"), page)

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "private, max-age=60, s-maxage=60")
		w.Header().Set("ETag", etag)
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4999")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		if page < len(pages) {
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next", <%s>; rel="last"`,
				m.pageURL(r, page+1), m.pageURL(r, len(pages))))
		} else if page > 1 {
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="first"`, m.pageURL(r, 1)))
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "[%s]", strings.Join(elements, ","))
	})
}

// FailPage makes one page of a listing configured with SetPages answer with resp.
func (m *MockGitHub) FailPage(path string, page int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures[path] == nil {
		m.failures[path] = make(map[int]MockResponse)
	}
	m.failures[path][page] = resp
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGitHub) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to one path.
func (m *MockGitHub) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockGitHub) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// RequestURIs returns the request URIs received, in order.
func (m *MockGitHub) RequestURIs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requestURIs...)
}

func (m *MockGitHub) pageURL(r *http.Request, page int) string {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u := url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
	return m.server.URL + u.RequestURI()
}

// defaultHandler answers unknown paths the way GitHub does.
func (m *MockGitHub) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"message":"Not Found","documentation_url":"https://docs.github.com/rest"}`))
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewOKResponse creates a standard 200 OK response with GitHub headers.
func NewOKResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "5000",
			"X-RateLimit-Remaining": "4999",
			"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
			"ETag":                  `"test-etag-123"`,
			"Cache-Control":         "private, max-age=60, s-maxage=60",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewNotModifiedResponse creates a 304 Not Modified response.
func NewNotModifiedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotModified,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "4999",
			"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
			"Cache-Control":         "private, max-age=60, s-maxage=60",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message":"Server Error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates GitHub's primary rate limit response (403 with zero remaining).
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"message":"API rate limit exceeded for user ID 1."}`,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "5000",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewConditionalHandler creates a handler that responds with 304 for matching conditional requests.
func NewConditionalHandler(etag string, data string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "4999")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "private, max-age=60, s-maxage=60")

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	}
}
