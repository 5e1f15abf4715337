package core

import (
	"errors"
	"fmt"
)

// Kind is the closed set of domain-level failure categories used for
// classification and retry decisions.
type Kind string

const (
	KindInvalidAPIKey     Kind = "INVALID_API_KEY"
	KindInvalidProvider   Kind = "INVALID_PROVIDER"
	KindCompressionFailed Kind = "COMPRESSION_FAILED"
	KindLLMAPIError       Kind = "LLM_API_ERROR"
	KindTimeout           Kind = "TIMEOUT"
	KindNetworkError      Kind = "NETWORK_ERROR"
	KindRateLimit         Kind = "RATE_LIMIT"
	KindValidationError   Kind = "VALIDATION_ERROR"
)

// Error is the single typed error crossing every component boundary. Any
// transport- or library-specific failure is translated into one of these
// before it reaches the caller.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // HTTP status, 0 when not applicable
	Details    any // raw payload from the failing call, when available
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError creates a domain error with the given kind and message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewErrorWithStatus creates a domain error carrying an HTTP status and the
// raw response payload.
func NewErrorWithStatus(kind Kind, message string, statusCode int, details any) *Error {
	return &Error{Kind: kind, Message: message, StatusCode: statusCode, Details: details}
}

// KindOf extracts the domain kind from an error chain. The second return is
// false when the error carries no domain kind.
func KindOf(err error) (Kind, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given domain kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
