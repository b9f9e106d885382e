// Package resilience provides retry and circuit breaker support for calls to
// the external search and AI providers.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// statusCoder is implemented by provider API errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// Retryable reports whether an error is worth retrying: an HTTP status that
// signals throttling or a server-side fault, or a network-level failure.
// Client-side errors (bad key, malformed request) are permanent.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return RetryableStatus(sc.HTTPStatus())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped transport errors lose their type; fall back to message matching.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// RetryableStatus reports whether an HTTP status code indicates a condition
// that may clear on retry.
func RetryableStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
