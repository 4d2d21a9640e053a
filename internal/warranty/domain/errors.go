package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies relay failures. Each kind maps onto one HTTP status.
type ErrorKind string

const (
	KindMalformedInput   ErrorKind = "MALFORMED_INPUT"
	KindMisconfigured    ErrorKind = "MISCONFIGURED"
	KindUpstreamRejected ErrorKind = "UPSTREAM_REJECTED"
	KindInternal         ErrorKind = "INTERNAL"
)

// Status returns the HTTP status a relay error of this kind is reported with.
func (k ErrorKind) Status() int {
	switch k {
	case KindMalformedInput:
		return http.StatusBadRequest
	case KindUpstreamRejected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RelayError is a classified relay failure. Message is what the caller sees.
type RelayError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RelayError) Unwrap() error { return e.Err }

// Status is shorthand for e.Kind.Status().
func (e *RelayError) Status() int { return e.Kind.Status() }

// NewMalformedInputError reports a request body the relay could not parse.
func NewMalformedInputError(message string, err error) *RelayError {
	return &RelayError{Kind: KindMalformedInput, Message: message, Err: err}
}

// NewMisconfiguredError reports a missing configuration key.
func NewMisconfiguredError(key string) *RelayError {
	return &RelayError{Kind: KindMisconfigured, Message: "Missing " + key}
}

// NewUpstreamRejectedError carries the upstream's own error text.
func NewUpstreamRejectedError(message string) *RelayError {
	return &RelayError{Kind: KindUpstreamRejected, Message: message}
}

// NewInternalError wraps any unexpected fault. The message is err's text, or
// "unknown" when there is none.
func NewInternalError(err error) *RelayError {
	message := "unknown"
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	return &RelayError{Kind: KindInternal, Message: message, Err: err}
}

// AsRelayError classifies err, treating anything unclassified as internal.
func AsRelayError(err error) *RelayError {
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return relayErr
	}
	return NewInternalError(err)
}
