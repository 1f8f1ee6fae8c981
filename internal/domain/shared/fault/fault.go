package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so transport layers can map it to a response
// code without inspecting message text.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound: a referenced entity does not exist.
	KindNotFound
	// KindInvalid: a business rule was violated (date conflict, capacity,
	// self-booking, stale state transition).
	KindInvalid
	// KindForbidden: the actor is known but lacks permission.
	KindForbidden
)

// Error is a kinded error with a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Invalid builds a KindInvalid error.
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

// Forbidden builds a KindForbidden error.
func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an existing error, preserving it for errors.Is.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from anywhere in the error chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err carries KindNotFound.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsInvalid reports whether err carries KindInvalid.
func IsInvalid(err error) bool { return KindOf(err) == KindInvalid }

// IsForbidden reports whether err carries KindForbidden.
func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }
