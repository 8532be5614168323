package middleware

import (
	"net/http"
	"time"
)

const (
	// DefaultRequestTimeout bounds a request including its Todoist calls
	DefaultRequestTimeout = 30 * time.Second
)

const timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`

// Timeout cancels the request context after timeout and answers 503 with the
// error envelope if the handler has not written yet
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		// TimeoutHandler derives the deadline context itself.
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
