package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapClassifies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), CodeTimeout},
		{"unauthorized", &APIError{Status: http.StatusUnauthorized}, CodePermissionDenied},
		{"forbidden", &APIError{Status: http.StatusForbidden}, CodePermissionDenied},
		{"missing", &APIError{Status: http.StatusNotFound}, CodeNotFound},
		{"server down", &APIError{Status: http.StatusBadGateway}, CodeUnavailable},
		{"explicit code wins", &APIError{Status: http.StatusBadRequest, Code: "failed-precondition"}, CodeFailedPrecondition},
		{"unknown", errors.New("boom"), CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap("update", "adventures", tt.err)
			if got := CodeOf(err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Error("wrapped error should unwrap to its cause")
			}
		})
	}
}

func TestWrapKeepsExistingError(t *testing.T) {
	orig := NewError("create", "surprises", CodePermissionDenied, errors.New("denied"))
	got := Wrap("update", "adventures", fmt.Errorf("outer: %w", orig))

	var re *Error
	if !errors.As(got, &re) {
		t.Fatal("Wrap() should return an *Error")
	}
	if re != orig {
		t.Errorf("Wrap() = %v, want the original error", re)
	}
	if Wrap("x", "y", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestReason(t *testing.T) {
	err := NewError("subscribe", "adventures", CodePermissionDenied, errors.New("401"))
	if got, want := Reason(err), "Remote: Permission denied - check access token"; got != want {
		t.Errorf("Reason() = %q, want %q", got, want)
	}
	err = NewError("subscribe", "adventures", CodeFailedPrecondition, errors.New("index"))
	if got, want := err.Reason(), "Remote: Index required"; got != want {
		t.Errorf("Reason() = %q, want %q", got, want)
	}
}

func TestCodeStatusRoundTrip(t *testing.T) {
	for _, c := range []Code{CodePermissionDenied, CodeNotFound, CodeFailedPrecondition, CodeTimeout, CodeUnavailable} {
		if got := codeForStatus(CodeStatus(c)); got != c {
			t.Errorf("codeForStatus(CodeStatus(%q)) = %q", c, got)
		}
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	got, err := NormalizeBaseURL("  http://localhost:8787/ ")
	if err != nil {
		t.Fatalf("NormalizeBaseURL() failed: %v", err)
	}
	if got != "http://localhost:8787" {
		t.Errorf("NormalizeBaseURL() = %q", got)
	}
	if _, err := NormalizeBaseURL("/v1"); err == nil {
		t.Error("NormalizeBaseURL() without scheme should fail")
	}
	if _, err := NormalizeBaseURL(""); err == nil {
		t.Error("NormalizeBaseURL(\"\") should fail")
	}
}
