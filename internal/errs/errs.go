// Package errs defines the error kinds shared by the automation core.
//
// Every public operation returns a *Error (possibly wrapped) so callers can
// switch on the Kind without parsing messages.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	Other                  Kind = "other"
	Invalid                Kind = "invalid"
	NotFound               Kind = "not_found"
	UnsupportedPlatform    Kind = "unsupported_platform"
	Timeout                Kind = "timeout"
	ExternalProcessFailure Kind = "external_process_failure"
	MalformedPayload       Kind = "malformed_payload"
	NetworkFailure         Kind = "network_failure"
	ResizeFailure          Kind = "resize_failure"
)

// Error is the structured error carried across package boundaries.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// E builds an *Error. err may be nil.
func E(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost *Error in err's chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
