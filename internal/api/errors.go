// internal/api/errors.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRateLimited marks a request the backend refused for sending too
	// many requests. Never retried automatically.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrEmptyData marks a success envelope that carried no payload where
	// one was required.
	ErrEmptyData = errors.New("empty data in response envelope")
)

// Error is a request failure with endpoint context. Envelope failures and
// transport-status failures both surface through it.
type Error struct {
	Err        error
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error [%s]: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("api error [%s]: %v", e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// rate-limit markers the backend is known to embed in error messages.
var rateLimitMarkers = []string{"429", "rate limit", "too many requests"}

// classify wraps an envelope failure, promoting rate-limit signals to
// ErrRateLimited so callers can steer the operator to the slower path.
func classify(endpoint string, statusCode int, message string) error {
	apiErr := &Error{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
	if statusCode == http.StatusTooManyRequests {
		apiErr.Err = ErrRateLimited
		return apiErr
	}
	lower := strings.ToLower(message)
	for _, marker := range rateLimitMarkers {
		if strings.Contains(lower, marker) {
			apiErr.Err = ErrRateLimited
			return apiErr
		}
	}
	return apiErr
}

// IsRateLimited reports whether err signals the backend's rate limiter.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
