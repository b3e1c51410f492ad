package orb

import (
	"errors"
	"fmt"
)

// ConnectionError indicates the platform could not be reached at the
// transport layer (DNS failure, refused connection, timeout).
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("orb: the server could not be reached: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RateLimitError is returned when the platform responds with 429.
type RateLimitError struct {
	Body string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("orb: rate limited (429): %s", e.Body)
}

// NotFoundError is returned when the platform responds with 404. During a
// customer lookup this signals expected absence, not a failure.
type NotFoundError struct {
	Body string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("orb: not found (404): %s", e.Body)
}

// StatusError is returned for any other non-2xx response. It carries the
// status code and raw response body for diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("orb: unexpected status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsRateLimit reports whether err is a RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsConnection reports whether err is a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
