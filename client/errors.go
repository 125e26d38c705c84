package client

import (
	"fmt"

	"github.com/careercompass/compass-client/internal/errors"
)

// APIError is the single error value surfaced for failed operations. It
// carries an HTTP-status-like code and a human-readable message; callers
// classify it with errors.Is against the sentinels in internal/errors
// (ErrAuthRequired, ErrSessionExpired, ...). The client never renders UI;
// presentation is the caller's concern.
type APIError struct {
	// Status is the HTTP status of the failed response, or 0 when no
	// response was received (network failure, fail-fast auth check).
	Status  int
	Message string

	kind error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error: %s", e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func newAuthRequiredErr() *APIError {
	return &APIError{Message: "authentication required", kind: errors.ErrAuthRequired}
}

func newSessionExpiredErr() *APIError {
	return &APIError{Status: 401, Message: "session expired, please log in again", kind: errors.ErrSessionExpired}
}

func newHTTPErr(status int, message string, kind error) *APIError {
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &APIError{Status: status, Message: message, kind: kind}
}

func errorKindFor(status int) error {
	if status == 404 {
		return errors.ErrNotFound
	}
	return errors.ErrBadResponse
}

// newTransportErr downgrades raw fetch/parse failures to a generic message
// rather than propagating transport internals to callers.
func newTransportErr(err error) *APIError {
	return &APIError{Message: "network error, please try again", kind: errors.Wrapf(errors.ErrBadResponse, "%v", err)}
}
