package api

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned when the local session is known to be
// expired before a protected request is issued. It is the only error
// that should force a re-login instead of being surfaced as a network
// failure, so callers must check it with errors.Is before anything
// else.
var ErrSessionExpired = errors.New("session expired")

// HTTPError is a non-success response from the backend.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// ContentTypeError indicates the backend answered with something other
// than JSON, typically a proxy or captive-portal page.
type ContentTypeError struct {
	ContentType string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("expected JSON response, got %q", e.ContentType)
}
