package pagination

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySequence is returned by Next when no element remains.
	// It indicates a caller bug (Next without a true HasNext), not a transient condition.
	ErrEmptySequence = errors.New("pagination: no more elements")

	errRelativeLink = errors.New("next link is not an absolute URI")
)

// TransportError is returned when a page fetch fails at the HTTP level:
// either the Doer returned an error or the response status was not 2xx.
type TransportError struct {
	// StatusCode is the HTTP status, 0 for network failures
	StatusCode int
	URL        string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("pagination: fetch %s: %v", e.URL, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("pagination: fetch %s: status %d: %s: %v", e.URL, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("pagination: fetch %s: status %d: %s", e.URL, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedPageError is returned when a page cannot be interpreted: the body is
// not a JSON array, the next link is not an absolute URI, or the element mapper
// rejected an element.
type MalformedPageError struct {
	URL    string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *MalformedPageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pagination: malformed page %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("pagination: malformed page %s: %s", e.URL, e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *MalformedPageError) Unwrap() error {
	return e.Err
}
