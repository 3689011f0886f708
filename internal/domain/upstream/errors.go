// Package upstream holds the shared plumbing for calls to remote order stores:
// typed API errors, retry policy, rate limiting and webhook signatures.
package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Standard upstream errors.
var (
	ErrRateLimited        = errors.New("upstream rate limit exceeded")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrUnauthorized       = errors.New("unauthorized access to order store")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrInvalidRequest     = errors.New("invalid request parameters")
	ErrServiceUnavailable = errors.New("order store temporarily unavailable")
)

// Source names the remote order store an error came from.
type Source string

const (
	SourceSupabase Source = "supabase"
	SourceNotion   Source = "notion"
)

// Error codes returned by the Notion API that carry meaning beyond the HTTP status.
const (
	CodeRateLimited        = "rate_limited"
	CodeUnauthorized       = "unauthorized"
	CodeRestrictedResource = "restricted_resource"
	CodeObjectNotFound     = "object_not_found"
	CodeValidationError    = "validation_error"
	CodeConflict           = "conflict_error"
	CodeInternalError      = "internal_server_error"
	CodeServiceUnavailable = "service_unavailable"
	CodeDatabaseDown       = "database_connection_unavailable"
)

// APIError is a structured error from an order store API.
// Both PostgREST and Notion answer with a JSON body carrying "code" and "message".
type APIError struct {
	Source     Source `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
	StatusCode int    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("[%s] %s", e.Code, msg)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("%s %d: %s (request_id: %s)", e.Source, e.StatusCode, msg, e.RequestID)
	}
	return fmt.Sprintf("%s %d: %s", e.Source, e.StatusCode, msg)
}

// Is implements errors.Is for APIError.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Code == CodeRateLimited || e.StatusCode == http.StatusTooManyRequests
	case ErrUnauthorized:
		return e.Code == CodeUnauthorized || e.Code == CodeRestrictedResource ||
			e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrResourceNotFound:
		return e.Code == CodeObjectNotFound || e.StatusCode == http.StatusNotFound
	case ErrInvalidRequest:
		return e.Code == CodeValidationError || e.StatusCode == http.StatusBadRequest
	case ErrServiceUnavailable:
		return e.Code == CodeInternalError || e.Code == CodeServiceUnavailable ||
			e.Code == CodeDatabaseDown || e.StatusCode >= 500
	default:
		return false
	}
}

// IsRetryable returns true if this error is safe to retry.
func (e *APIError) IsRetryable() bool {
	switch e.Code {
	case CodeRateLimited, CodeConflict, CodeServiceUnavailable, CodeDatabaseDown:
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ErrorCategory classifies errors into categories.
type ErrorCategory string

const (
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryRateLimit      ErrorCategory = "rate_limit"
	CategoryServer         ErrorCategory = "server"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryValidation     ErrorCategory = "validation"
	CategoryUnknown        ErrorCategory = "unknown"
)

// Category returns the category of this error.
func (e *APIError) Category() ErrorCategory {
	switch {
	case errors.Is(e, ErrRateLimited):
		return CategoryRateLimit
	case errors.Is(e, ErrUnauthorized):
		return CategoryAuthentication
	case errors.Is(e, ErrResourceNotFound):
		return CategoryNotFound
	case errors.Is(e, ErrInvalidRequest):
		return CategoryValidation
	case errors.Is(e, ErrServiceUnavailable):
		return CategoryServer
	default:
		return CategoryUnknown
	}
}

// NewAPIError builds an APIError from a non-2xx response body.
// Bodies that are not JSON become the message verbatim.
func NewAPIError(source Source, statusCode int, body []byte) *APIError {
	e := &APIError{Source: source, StatusCode: statusCode}
	if err := json.Unmarshal(body, e); err != nil || (e.Code == "" && e.Message == "") {
		e.Code = ""
		e.Message = strings.TrimSpace(string(body))
	}
	e.Source = source
	e.StatusCode = statusCode
	return e
}
