package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jcabi/jcabi-github-sub002/pkg/pagination"
)

// DefaultBaseURL is the public GitHub REST API endpoint.
const DefaultBaseURL = "https://api.github.com"

// Config holds the entry point configuration.
type Config struct {
	// BaseURL is the REST API root (GitHub Enterprise: https://host/api/v3)
	BaseURL string

	// PerPage is sent as per_page on listings (GitHub allows 1..100, 0 = server default)
	PerPage int
}

// DefaultConfig returns the configuration for api.github.com.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		PerPage: 30,
	}
}

// GitHub is the entry point to the resource handles. It issues every request
// through the Doer it was built with, which is expected to add authentication,
// rate limiting, caching and retries.
type GitHub struct {
	doer    pagination.Doer
	baseURL string
	perPage int
}

// New creates the entry point.
func New(doer pagination.Doer, cfg Config) (*GitHub, error) {
	if doer == nil {
		return nil, fmt.Errorf("doer is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}
	if cfg.PerPage < 0 || cfg.PerPage > 100 {
		return nil, fmt.Errorf("per_page must be between 0 and 100 (got %d)", cfg.PerPage)
	}

	return &GitHub{
		doer:    doer,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		perPage: cfg.PerPage,
	}, nil
}

// Repo returns the handle of a repository. No request is made.
func (g *GitHub) Repo(coords Coordinates) *Repo {
	return &Repo{github: g, coords: coords}
}

// listing builds the first page request of a list endpoint.
func (g *GitHub) listing(path string, params url.Values) pagination.Request {
	query := url.Values{}
	for key, values := range params {
		query[key] = append([]string(nil), values...)
	}
	if g.perPage > 0 && query.Get("per_page") == "" {
		query.Set("per_page", strconv.Itoa(g.perPage))
	}
	return pagination.Request{
		URL:   g.baseURL + path,
		Query: query,
	}
}

// get reads the JSON document at path.
func (g *GitHub) get(ctx context.Context, path string) (json.RawMessage, error) {
	target := g.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newResponseError(resp, target, body)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("get %s: response is not valid JSON", path)
	}
	return json.RawMessage(body), nil
}
