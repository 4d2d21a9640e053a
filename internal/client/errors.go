package client

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTermsNotAccepted is returned before anything else is checked.
	ErrTermsNotAccepted = errors.New("warranty terms must be accepted before submitting")
	// ErrTimeout means the submit deadline passed before the relay answered.
	ErrTimeout = errors.New("timed out waiting for the relay (timeout)")
	// ErrBadServerResponse means the relay answered with something other than JSON.
	ErrBadServerResponse = errors.New("bad server response")
	// ErrSubmissionInProgress means this Submitter already has a call in flight.
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
)

// ValidationError lists required fields that are missing or empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// NetworkError wraps transport failures other than the submit timeout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RelayError is a well-formed relay reply that reports failure.
type RelayError struct {
	Status  int
	Message string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay rejected submission (status %d): %s", e.Status, e.Message)
}
