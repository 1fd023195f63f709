package domain

import (
	"errors"
	"net/http"
)

var (
	// ErrConfig signals a missing credential or configuration value.
	ErrConfig = errors.New("configuration error")
	// ErrUpstream signals a network failure or non-2xx upstream response.
	ErrUpstream = errors.New("upstream error")
	// ErrParse signals an upstream body that is not valid JSON.
	ErrParse = errors.New("parse error")
	// ErrShape signals valid JSON missing required structure.
	ErrShape = errors.New("unexpected response shape")
)

// MaxDetailsLen caps the upstream body excerpt carried in ServiceError.Details.
const MaxDetailsLen = 1000

// ServiceError is a request-terminal failure with a client-facing message,
// an optional upstream excerpt and the HTTP status to respond with.
type ServiceError struct {
	Kind    error
	Message string
	Details string
	Status  int
}

func (e *ServiceError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Kind }

// NewConfigError creates a ServiceError for missing configuration (500).
func NewConfigError(msg, details string) error {
	return &ServiceError{Kind: ErrConfig, Message: msg, Details: details, Status: http.StatusInternalServerError}
}

// NewUpstreamError creates a ServiceError for upstream failures (502).
func NewUpstreamError(msg, details string) error {
	return &ServiceError{Kind: ErrUpstream, Message: msg, Details: details, Status: http.StatusBadGateway}
}

// NewParseError creates a ServiceError for undecodable upstream bodies (500).
func NewParseError(msg string) error {
	return &ServiceError{Kind: ErrParse, Message: msg, Status: http.StatusInternalServerError}
}

// NewShapeError creates a ServiceError for structurally invalid payloads (500).
func NewShapeError(msg string) error {
	return &ServiceError{Kind: ErrShape, Message: msg, Status: http.StatusInternalServerError}
}

// WithStatus returns a copy of a ServiceError with a different status.
// Non-ServiceErrors are returned unchanged.
func WithStatus(err error, status int) error {
	var se *ServiceError
	if !errors.As(err, &se) {
		return err
	}
	cp := *se
	cp.Status = status
	return &cp
}

// Truncate trims s to at most MaxDetailsLen runes.
func Truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxDetailsLen {
		return s
	}
	return string(r[:MaxDetailsLen])
}
