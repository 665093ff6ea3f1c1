package hass

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an operation failed.
type ErrorKind string

const (
	// KindStatus means the hub answered with a non-200 HTTP status.
	KindStatus ErrorKind = "http_status"
	// KindTransport means the request never completed (connection error,
	// context cancellation, unreadable body).
	KindTransport ErrorKind = "transport"
	// KindDecode means the hub's reply could not be decoded as the
	// expected JSON shape.
	KindDecode ErrorKind = "decode"
)

// Error is the failure value returned by all client operations.
// StatusCode and Body are set for KindStatus only.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// AsError unwraps err into a *Error when possible.
func AsError(err error) (*Error, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

func statusError(code int, body string) *Error {
	return &Error{Kind: KindStatus, StatusCode: code, Body: body}
}

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}

func decodeError(err error) *Error {
	return &Error{Kind: KindDecode, Err: err}
}
