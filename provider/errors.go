package provider

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a ProviderError along the failure taxonomy.
type ErrorKind string

const (
	// ErrKindValidation covers input failures detected before any I/O.
	ErrKindValidation ErrorKind = "validation"
	// ErrKindConfig covers missing or malformed secrets, detected before
	// any network call.
	ErrKindConfig ErrorKind = "config"
	// ErrKindProvider covers rejections after a network attempt reached the
	// provider.
	ErrKindProvider ErrorKind = "provider"
	// ErrKindNetwork covers transport failures and timeouts; the provider
	// was never (or not verifiably) reached, so its state is unknown.
	ErrKindNetwork ErrorKind = "network"
	// ErrKindMalformed covers 2xx responses missing required fields.
	ErrKindMalformed ErrorKind = "malformed_response"
)

// ProviderError is the typed error every adapter surfaces. Provider and Kind
// are closed enums so callers can switch exhaustively; StatusCode and Code
// are set when the provider supplied them.
type ProviderError struct {
	Provider   Provider
	Kind       ErrorKind
	Message    string
	StatusCode int
	Code       string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (%s, http %d)", e.Provider, e.Message, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Kind)
}

// NewValidationError reports an input failure, before any I/O.
func NewValidationError(p Provider, message string) *ProviderError {
	return &ProviderError{Provider: p, Kind: ErrKindValidation, Message: message}
}

// NewConfigError reports a missing or malformed secret, before any network call.
func NewConfigError(p Provider, message string) *ProviderError {
	return &ProviderError{Provider: p, Kind: ErrKindConfig, Message: message}
}

// NewProviderFailure reports a rejection from the provider itself.
func NewProviderFailure(p Provider, message string, statusCode int, code string) *ProviderError {
	return &ProviderError{Provider: p, Kind: ErrKindProvider, Message: message, StatusCode: statusCode, Code: code}
}

// NewNetworkError wraps a transport failure. Timeouts get the "timeout" code
// so callers can tell "provider rejected us" from "we never reached the
// provider".
func NewNetworkError(p Provider, err error) *ProviderError {
	code := "connection_failed"
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		code = "timeout"
	}
	return &ProviderError{Provider: p, Kind: ErrKindNetwork, Message: err.Error(), Code: code}
}

// NewMalformedResponseError reports a 2xx response missing a required field.
func NewMalformedResponseError(p Provider, missingField string) *ProviderError {
	return &ProviderError{
		Provider: p,
		Kind:     ErrKindMalformed,
		Message:  fmt.Sprintf("provider response missing required field %q", missingField),
	}
}

// AsProviderError unwraps err into a *ProviderError if possible.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// TimeoutError is returned by the HTTP client when a call exceeds its
// deadline.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
}
