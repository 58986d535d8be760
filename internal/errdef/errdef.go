// Package errdef defines the error kinds surfaced by the client. Every
// failure returned from a request carries exactly one [Kind] naming the
// phase that failed.
package errdef

import (
	stdErrors "errors"
	"fmt"
)

type Kind string

const (
	KindUnknown              Kind = "unknown"
	KindMalformedURL         Kind = "malformed url"
	KindInvalidRequest       Kind = "invalid request"
	KindConnect              Kind = "connect"
	KindTLS                  Kind = "tls"
	KindTimeout              Kind = "timeout"
	KindInvalidStatusLine    Kind = "invalid status line"
	KindInvalidHeader        Kind = "invalid header"
	KindInvalidContentLength Kind = "invalid content-length"
	KindInvalidChunkSize     Kind = "invalid chunk size"
	KindUnexpectedEOF        Kind = "unexpected eof"
	KindTooManyRedirects     Kind = "too many redirects"
	KindIO                   Kind = "io"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("minhttp: %s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("minhttp: %s: %v", e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("minhttp: %s: %s", e.Kind, e.Message)
	default:
		return "minhttp: " + string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Timeout lets callers treat the error like a [net.Error].
func (e *Error) Timeout() bool {
	return e != nil && e.Kind == KindTimeout
}

// Is matches another *Error of the same kind that carries no cause,
// so the exported sentinels work with [errors.Is].
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Err == nil && t.Message == "" && t.Kind == e.Kind
}

// Wrap annotates err with a kind and optional message, returning nil when
// err is nil. An err that already carries a kind is returned unchanged, the
// innermost kind is the most specific one.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stdErrors.As(err, &e) {
		return err
	}

	msg := ""
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: ensureKind(kind), Message: msg, Err: err}
}

// New creates a formatted error with the supplied kind.
func New(kind Kind, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: ensureKind(kind), Message: msg}
}

// Sentinel returns a cause-less error of the kind, suitable for errors.Is.
func Sentinel(kind Kind) error {
	return &Error{Kind: kind}
}

// KindOf extracts the kind from the wrapped error value.
func KindOf(err error) Kind {
	var e *Error
	if stdErrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

func ensureKind(kind Kind) Kind {
	if kind == "" {
		return KindUnknown
	}
	return kind
}
