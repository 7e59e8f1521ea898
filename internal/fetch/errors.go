package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrRetriesExhausted wraps the last retryable failure once the retry budget is spent.
var ErrRetriesExhausted = errors.New("retries exhausted")

// NetworkError is a transport-level failure (connect, read, timeout).
type NetworkError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	kind := "connection error"
	if e.Timeout {
		kind = "timeout"
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, kind, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Snippet    string
	Retryable  bool
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d body: %s", e.URL, e.StatusCode, e.Snippet)
}

var retryableStatus = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// IsRetryableStatus reports whether code is in the retryable set.
func IsRetryableStatus(code int) bool {
	_, ok := retryableStatus[code]
	return ok
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
