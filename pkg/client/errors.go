package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrRateLimitCritical is returned when the shared rate limit state blocks a request.
	ErrRateLimitCritical = errors.New("rate limit critical")
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents GitHub rate limit answers
	// (429, or 403 with X-RateLimit-Remaining: 0 or Retry-After).
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassCircuitOpen represents requests refused by the open circuit breaker.
	ErrorClassCircuitOpen ErrorClass = "circuit_open"
)

// APIError represents a failed GitHub API call with additional context.
type APIError struct {
	StatusCode       int
	Class            ErrorClass
	Message          string
	DocumentationURL string

	// RetryAfter is how long GitHub asked us to wait (Retry-After or
	// X-RateLimit-Reset); zero when it did not say.
	RetryAfter time.Duration

	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GitHub %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("GitHub %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a GitHub 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether err was caused by a GitHub rate limit,
// either answered by GitHub or enforced locally.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimitCritical) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Class == ErrorClassRateLimit
}

// newAPIError builds an APIError from a non-2xx response and its body.
func newAPIError(resp *http.Response, class ErrorClass, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Class:      class,
		Message:    resp.Status,
		RetryAfter: retryAfter(resp.Header),
	}

	var payload struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
		apiErr.DocumentationURL = payload.DocumentationURL
	}

	return apiErr
}

// isRateLimitResponse detects GitHub's primary and secondary rate limit answers.
func isRateLimitResponse(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != ""
	default:
		return false
	}
}

// retryAfter returns the wait GitHub asked for, preferring Retry-After over
// the primary rate limit reset when the window is exhausted.
func retryAfter(headers http.Header) time.Duration {
	if value := headers.Get("Retry-After"); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	if headers.Get("X-RateLimit-Remaining") == "0" {
		if epoch, err := strconv.ParseInt(headers.Get("X-RateLimit-Reset"), 10, 64); err == nil {
			if wait := time.Until(time.Unix(epoch, 0)); wait > 0 {
				return wait
			}
		}
	}
	return 0
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx errors will not change on retry
		return false
	case ErrorClassServer:
		return true
	case ErrorClassRateLimit:
		return true
	case ErrorClassNetwork:
		return true
	case ErrorClassCircuitOpen:
		// The breaker stays open for its whole timeout
		return false
	default:
		return false
	}
}
