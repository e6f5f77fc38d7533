package sparql

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrBodyTooLarge is returned when a response exceeds the configured body
// limit. Truncated results are never decoded or cached.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is a non-2xx response from the endpoint.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Retryable reports transient server-side failures.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || (e.Code >= 500 && e.Code < 600)
}

// IsRetryable reports whether err is worth another attempt: 5xx, 429, and
// network timeouts, refusals and resets.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
