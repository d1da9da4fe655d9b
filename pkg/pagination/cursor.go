package pagination

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jcabi/jcabi-github-sub002/pkg/logging"
	"github.com/rs/zerolog"
)

// State is the position of a cursor in its lifecycle.
type State int

const (
	// StateNotStarted means no page has been requested yet.
	StateNotStarted State = iota

	// StateBuffered means elements of the current page are available,
	// or the page is drained and a next link remains to be followed.
	StateBuffered

	// StateFetching means a page request is in flight.
	StateFetching

	// StateExhausted means the terminal page has been consumed. Terminal.
	StateExhausted

	// StateFailed means a fetch or parse failed. Terminal.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateBuffered:
		return "buffered"
	case StateFetching:
		return "fetching"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Cursor walks a paginated listing one page at a time.
//
// The buffer is refilled only when it is empty and the listing is not exhausted,
// so at most one page is held at a time. A Cursor is not safe for concurrent use.
type Cursor struct {
	doer Doer
	next Request

	// source is the URL of the page currently buffered
	source string

	buffer    []json.RawMessage
	started   bool
	fetching  bool
	exhausted bool
	err       error
	pages     int

	logger zerolog.Logger
}

// NewCursor creates a cursor positioned before the first page of start.
func NewCursor(doer Doer, start Request) *Cursor {
	return &Cursor{
		doer:   doer,
		next:   start,
		logger: logging.NewLogger(logging.ComponentPagination),
	}
}

// HasMore reports whether another element is available, fetching the next page
// if the buffer is drained. Empty pages that still carry a next link are
// followed until a non-empty page or the terminal page is reached.
//
// Once a fetch has failed, HasMore returns that error without touching the network.
func (c *Cursor) HasMore(ctx context.Context) (bool, error) {
	if c.err != nil {
		return false, c.err
	}

	for len(c.buffer) == 0 {
		if c.exhausted {
			return false, nil
		}
		if err := c.refill(ctx); err != nil {
			c.err = err
			return false, err
		}
	}
	return true, nil
}

// Next removes and returns the head element of the buffer.
// Returns ErrEmptySequence when the listing has no element left.
func (c *Cursor) Next(ctx context.Context) (json.RawMessage, error) {
	more, err := c.HasMore(ctx)
	if err != nil {
		return nil, err
	}
	if !more {
		return nil, ErrEmptySequence
	}

	head := c.buffer[0]
	c.buffer[0] = nil
	c.buffer = c.buffer[1:]
	return head, nil
}

// State returns the current lifecycle state.
func (c *Cursor) State() State {
	switch {
	case c.err != nil:
		return StateFailed
	case c.fetching:
		return StateFetching
	case len(c.buffer) > 0:
		return StateBuffered
	case c.exhausted:
		return StateExhausted
	case !c.started:
		return StateNotStarted
	default:
		return StateBuffered
	}
}

// Pages returns the number of pages fetched successfully.
func (c *Cursor) Pages() int {
	return c.pages
}

// Err returns the failure that terminated the cursor, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Pending returns the request the cursor will issue on its next refill.
// Returns false once the listing is exhausted or failed.
func (c *Cursor) Pending() (Request, bool) {
	if c.exhausted || c.err != nil {
		return Request{}, false
	}
	return c.next, true
}

// refill fetches the page described by c.next and replaces the buffer with its elements.
func (c *Cursor) refill(ctx context.Context) error {
	c.started = true
	c.fetching = true
	defer func() { c.fetching = false }()

	target := c.next.String()
	start := time.Now()

	elements, next, hasNext, err := c.fetch(ctx, target)
	PageFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		PagesFetched.WithLabelValues(outcome(err)).Inc()
		c.logger.Warn().
			Err(err).
			Str("url", target).
			Int("page", c.pages+1).
			Msg("Listing page fetch failed")
		return err
	}

	c.pages++
	c.source = target
	c.buffer = elements
	if hasNext {
		c.next = c.next.follow(next)
	} else {
		c.exhausted = true
	}

	PagesFetched.WithLabelValues("ok").Inc()
	PageElements.Observe(float64(len(elements)))
	c.logger.Debug().
		Str("url", target).
		Int("page", c.pages).
		Int("elements", len(elements)).
		Bool("has_next", hasNext).
		Dur("duration", time.Since(start)).
		Msg("Fetched listing page")

	return nil
}

// fetch issues one page request and parses the body and Link header.
func (c *Cursor) fetch(ctx context.Context, target string) ([]json.RawMessage, string, bool, error) {
	req, err := c.next.build(ctx)
	if err != nil {
		return nil, "", false, &MalformedPageError{URL: target, Reason: "invalid request", Err: err}
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, "", false, &TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", false, &TransportError{
			StatusCode: resp.StatusCode,
			URL:        target,
			Message:    statusMessage(resp, body),
		}
	}
	if readErr != nil {
		return nil, "", false, &TransportError{
			StatusCode: resp.StatusCode,
			URL:        target,
			Message:    "read response body",
			Err:        readErr,
		}
	}

	// json.Unmarshal accepts "null" for a slice; a page must be an actual array.
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		return nil, "", false, &MalformedPageError{URL: target, Reason: "body is not a JSON array"}
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		return nil, "", false, &MalformedPageError{URL: target, Reason: "body is not a JSON array", Err: err}
	}

	next, hasNext := parseLinkNext(resp.Header)
	if hasNext {
		if err := validateNext(next); err != nil {
			return nil, "", false, &MalformedPageError{URL: target, Reason: "invalid next link " + next, Err: err}
		}
	}

	return elements, next, hasNext, nil
}

// statusMessage extracts GitHub's error message from a failed response body,
// falling back to the HTTP status text.
func statusMessage(resp *http.Response, body []byte) string {
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	if resp.Status != "" {
		return resp.Status
	}
	return http.StatusText(resp.StatusCode)
}

func outcome(err error) string {
	var malformed *MalformedPageError
	if errors.As(err, &malformed) {
		return "malformed"
	}
	return "transport_error"
}
