package todoist

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable marks a request that never got an HTTP response
var ErrUnavailable = errors.New("todoist unavailable")

// APIError is a non-2xx response from the Todoist API
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("todoist %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("todoist %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the same request may succeed
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsUnavailable reports whether err is a transport failure or a transient
// API response. Client errors such as a bad token are not.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return false
}
