package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUpstream marks failures of the text generation service.
	ErrUpstream = errors.New("upstream service error")
	// ErrMalformedResponse marks generation responses with an unexpected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// ValidationError reports a rejected argument. It matches ErrInvalidArgument.
type ValidationError struct {
	Op     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

func Invalid(op, field, reason string) error {
	return &ValidationError{Op: op, Field: field, Reason: reason}
}

// UpstreamError wraps a failed generation call (HTTP status, timeout, cancellation).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Op + ": upstream failure"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// MalformedResponseError reports a response that could not be interpreted.
type MalformedResponseError struct {
	Op     string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: malformed response: %s", e.Op, e.Reason)
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

func Malformed(op, reason string) error {
	return &MalformedResponseError{Op: op, Reason: reason}
}
