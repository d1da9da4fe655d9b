package pagination

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Doer issues HTTP requests. *http.Client and *client.Client both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request describes the first page of a listing.
type Request struct {
	// URL is the absolute listing URL (e.g. "https://api.github.com/repos/o/r/issues")
	URL string

	// Query is merged into URL for the first page only; next links carry their own query
	Query url.Values

	// Header is sent with every page request
	Header http.Header
}

// follow returns the request for a next link. Headers carry over, query does not.
func (r Request) follow(next string) Request {
	return Request{
		URL:    next,
		Header: r.Header,
	}
}

// String returns the effective URL of the request.
func (r Request) String() string {
	u, err := r.resolve()
	if err != nil {
		return r.URL
	}
	return u.String()
}

func (r Request) resolve() (*url.URL, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, err
	}
	if len(r.Query) > 0 {
		q := u.Query()
		for key, values := range r.Query {
			q.Del(key)
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// build creates the GET request for this page.
func (r Request) build(ctx context.Context) (*http.Request, error) {
	u, err := r.resolve()
	if err != nil {
		return nil, fmt.Errorf("parse request url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/vnd.github+json")
	}
	return req, nil
}
