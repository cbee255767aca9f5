package fortigate

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for appliance API failures.
var (
	// ErrTransport indicates the request never produced an HTTP response.
	ErrTransport = errors.New("fortigate: transport failure")

	// ErrInvalidResponse indicates a 2xx response whose body is not JSON.
	ErrInvalidResponse = errors.New("fortigate: response is not JSON")

	// ErrUnauthorized is returned for HTTP 401.
	ErrUnauthorized = errors.New("fortigate: unauthorized")

	// ErrForbidden is returned for HTTP 403.
	ErrForbidden = errors.New("fortigate: forbidden")

	// ErrNotFound is returned for HTTP 404.
	ErrNotFound = errors.New("fortigate: not found")
)

// APIError is a non-2xx response from the appliance.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Excerpt    string
}

// statusHints explain the common failures.
var statusHints = map[int]string{
	http.StatusUnauthorized: "API token invalid or missing",
	http.StatusForbidden:    "API token lacks permission for this endpoint",
	http.StatusNotFound:     "wrong endpoint or REST API disabled on this path",
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("fortigate: %s %s: HTTP %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if hint, ok := statusHints[e.StatusCode]; ok {
		return msg + ": " + hint
	}
	if e.Excerpt != "" {
		return msg + ": " + e.Excerpt
	}
	return msg
}

// Unwrap maps well-known status codes onto the sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
