package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ResponseError is a non-200 answer to a resource read.
type ResponseError struct {
	StatusCode       int
	URL              string
	Message          string
	DocumentationURL string
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("github: GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 answer to a resource read.
func IsNotFound(err error) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

func newResponseError(resp *http.Response, url string, body []byte) *ResponseError {
	respErr := &ResponseError{
		StatusCode: resp.StatusCode,
		URL:        url,
		Message:    resp.Status,
	}
	var payload struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		respErr.Message = payload.Message
		respErr.DocumentationURL = payload.DocumentationURL
	}
	return respErr
}
