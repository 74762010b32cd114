package cogclient

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when Open is given an empty URL.
	ErrInvalidURL = errors.New("cogclient: invalid URL")
	// ErrNilHTTPClient indicates a nil HTTP client was provided.
	ErrNilHTTPClient = errors.New("cogclient: http client cannot be nil")
	// ErrInvalidBlockSize indicates a non-positive block size option.
	ErrInvalidBlockSize = errors.New("cogclient: block size must be positive")
	// ErrRangeNotSupported is returned when the server ignores Range headers.
	ErrRangeNotSupported = errors.New("cogclient: server does not support range requests")
)

// APIError represents an HTTP failure from the remote host.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Detail == "" {
		return fmt.Sprintf("cogclient: http error status=%d", e.Status)
	}
	return fmt.Sprintf("cogclient: http error status=%d: %s", e.Status, e.Detail)
}

// Temporary reports whether the error may be retried.
func (e *APIError) Temporary() bool {
	if e == nil {
		return false
	}
	return e.Status >= 500 && e.Status < 600
}
