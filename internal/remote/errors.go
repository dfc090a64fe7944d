package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrNotConfigured reports that no remote store is set up. It is the
// expected outcome for local-only installs, not a failure.
var ErrNotConfigured = errors.New("remote store not configured")

// Code classifies a remote failure.
type Code string

const (
	CodeUnavailable        Code = "unavailable"
	CodePermissionDenied   Code = "permission-denied"
	CodeFailedPrecondition Code = "failed-precondition"
	CodeNotFound           Code = "not-found"
	CodeTimeout            Code = "timeout"
	CodeUnknown            Code = "unknown"
)

// Error is the error type returned by every DocumentStore method.
type Error struct {
	Op         string
	Collection string
	Code       Code
	Err        error
}

// NewError builds an *Error with an explicit code.
func NewError(op, collection string, code Code, err error) *Error {
	return &Error{Op: op, Collection: collection, Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("remote %s %s: %s: %v", e.Op, e.Collection, e.Code, e.Err)
	}
	return fmt.Sprintf("remote %s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Reason is the short human-readable text for the status indicator.
func (e *Error) Reason() string {
	switch e.Code {
	case CodePermissionDenied:
		return "Remote: Permission denied - check access token"
	case CodeFailedPrecondition:
		return "Remote: Index required"
	case CodeNotFound:
		return "Remote: Document not found"
	case CodeTimeout:
		return "Remote: Request timed out"
	case CodeUnavailable:
		return "Remote: Unavailable"
	default:
		return "Remote: " + e.Err.Error()
	}
}

// Wrap converts err into an *Error, classifying it by its cause. An err
// that already is an *Error is returned unchanged.
func Wrap(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return &Error{Op: op, Collection: collection, Code: classify(err), Err: err}
}

// CodeOf returns the code of a remote error, or CodeUnknown.
func CodeOf(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeUnknown
}

// Reason returns the status-indicator text for any error.
func Reason(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Reason()
	}
	return "Remote: " + err.Error()
}

func classify(err error) Code {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if code := Code(apiErr.Code); code.known() {
			return code
		}
		return codeForStatus(apiErr.Status)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CodeTimeout
		}
		return CodeUnavailable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CodeUnavailable
	}
	return CodeUnknown
}

func codeForStatus(status int) Code {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CodePermissionDenied
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict || status == http.StatusPreconditionFailed || status == http.StatusBadRequest:
		return CodeFailedPrecondition
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return CodeTimeout
	case status >= 500:
		return CodeUnavailable
	}
	return CodeUnknown
}

func (c Code) known() bool {
	switch c {
	case CodeUnavailable, CodePermissionDenied, CodeFailedPrecondition, CodeNotFound, CodeTimeout, CodeUnknown:
		return true
	}
	return false
}

// CodeStatus maps a code to the HTTP status the document server uses for it.
func CodeStatus(c Code) int {
	switch c {
	case CodePermissionDenied:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeFailedPrecondition:
		return http.StatusBadRequest
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
