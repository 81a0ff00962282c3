package netbox

import (
	"errors"
	"fmt"
)

// Configuration errors, surfaced by New before any network activity.
var (
	// ErrAddrEmpty means no NetBox address was configured.
	ErrAddrEmpty = errors.New("netbox address is required")
	// ErrTokenEmpty means no API token was configured.
	ErrTokenEmpty = errors.New("netbox API token is required")
)

// StatusError is returned when the API answers with a non-2xx status.
// The transport does not retry; callers decide what a failure means.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("netbox: %s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("netbox: %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
