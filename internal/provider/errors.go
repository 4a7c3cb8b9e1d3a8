package provider

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrTimeout is wrapped by errors returned when a provider call exceeds its
// deadline.
var ErrTimeout = errors.New("provider call timed out")

// Error is returned for any failed exchange with the provider. StatusCode is
// zero when no response was received.
type Error struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
	case e.Code != "":
		return fmt.Sprintf("provider %s: status %d (%s)", e.Op, e.StatusCode, e.Code)
	default:
		return fmt.Sprintf("provider %s: status %d", e.Op, e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RateLimited reports whether the provider rejected the call with 429.
func (e *Error) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}

// Temporary reports whether retrying the call may succeed.
func Temporary(err error) bool {
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.StatusCode == 0 || pe.RateLimited() || pe.StatusCode >= 500
}
