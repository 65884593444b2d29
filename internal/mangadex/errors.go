package mangadex

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork marks transport failures: DNS, TLS, resets, timeouts.
	ErrNetwork = errors.New("network error")
	// ErrValidation marks responses or inputs that must not be trusted.
	ErrValidation = errors.New("validation error")
	// ErrSizeLimit marks a payload larger than the configured ceiling.
	ErrSizeLimit = fmt.Errorf("%w: size limit exceeded", ErrValidation)
)

// APIError is a non-2xx or undecodable response.
type APIError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed response (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Temporary reports whether repeating the request may succeed.
func (e *APIError) Temporary() bool {
	return e.Err == nil && (e.Status == http.StatusTooManyRequests || e.Status >= 500)
}
