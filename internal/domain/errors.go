package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can branch without reading messages.
type Kind int

const (
	KindTransport Kind = iota // DNS, dial, non-2xx upstream, anything unclassified
	KindConfiguration
	KindTimeout
	KindValidation
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTimeout:
		return "timeout"
	case KindValidation:
		return "validation"
	case KindParse:
		return "parse"
	default:
		return "transport"
	}
}

// Validation sentinels. Wrap them in an *Error to attach a message.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnconfiguredURL = errors.New("unconfigured service url")
)

// Error is the typed error returned by every component of the core.
// Msg is the human readable text shown to clients; Err is the cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error with a formatted client message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and message to cause.
func Wrap(kind Kind, op string, cause error, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

// KindOf reports the kind of err. Sentinels map to validation and
// unknown errors default to transport.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnconfiguredURL) {
		return KindValidation
	}
	return KindTransport
}

// IsKind is shorthand for KindOf(err) == kind with a nil guard.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
