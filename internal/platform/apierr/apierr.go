package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
)

// StatusClientClosedRequest is the non-standard status used when the caller went away.
const StatusClientClosedRequest = 499

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError maps domain errors onto an HTTP status and error code.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, context.Canceled):
		return New(StatusClientClosedRequest, "canceled", err)
	case errors.Is(err, apperr.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, apperr.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, context.DeadlineExceeded):
		return New(http.StatusGatewayTimeout, "upstream_timeout", err)
	case errors.Is(err, apperr.ErrUpstream), errors.Is(err, apperr.ErrMalformedResponse):
		return New(http.StatusBadGateway, "upstream_error", err)
	default:
		return New(http.StatusInternalServerError, "internal", err)
	}
}
