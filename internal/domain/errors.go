package domain

import (
	"errors"
	"fmt"
)

// Content-source error sentinels. The wiki client maps HTTP failures onto
// these so the processor can branch without knowing about status codes.
var (
	ErrNotFound    = errors.New("page not found")
	ErrRateLimited = errors.New("rate limited")
	ErrServerError = errors.New("server error")
	ErrTimeout     = errors.New("request timed out")
)

// ErrorKind classifies a processing failure for the work queue.
type ErrorKind int

const (
	// ErrorKindTransient failures re-enter the claimable pool via Fail,
	// up to max_retries.
	ErrorKindTransient ErrorKind = iota
	// ErrorKindPermanent failures bypass retry accounting and go straight
	// to the failed state.
	ErrorKindPermanent
	// ErrorKindFatal indicates a coordination bug (invariant violation),
	// not a business failure. Never swallowed.
	ErrorKindFatal
)

// String returns the kind as a short lowercase label for logs.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindPermanent:
		return "permanent"
	case ErrorKindFatal:
		return "fatal"
	default:
		return "transient"
	}
}

// ProcessError tags a collaborator failure with its retry classification.
type ProcessError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable failure.
func Transient(err error) *ProcessError {
	return &ProcessError{Kind: ErrorKindTransient, Err: err}
}

// Permanent wraps err as a non-retryable failure.
func Permanent(err error) *ProcessError {
	return &ProcessError{Kind: ErrorKindPermanent, Err: err}
}

// Fatal wraps err as an invariant violation.
func Fatal(err error) *ProcessError {
	return &ProcessError{Kind: ErrorKindFatal, Err: err}
}

// KindOf returns the classification of err. Content-source sentinels carry
// an implied kind (not-found is permanent, the rest transient); untagged
// errors default to transient so unknown failures retry rather than burn.
func KindOf(err error) ErrorKind {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return ErrorKindPermanent
	}
	return ErrorKindTransient
}
