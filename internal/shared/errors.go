package shared

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so callers can branch without matching
// message strings.
type Kind string

const (
	// KindMissingField indicates a required input was absent.
	KindMissingField Kind = "missing_field"
	// KindNotFound indicates a product, transaction or code lookup failed.
	KindNotFound Kind = "not_found"
	// KindConflict indicates a duplicate or an invalid state transition.
	KindConflict Kind = "conflict"
	// KindInsufficientStock indicates the requested quantity exceeds a balance.
	KindInsufficientStock Kind = "insufficient_stock"
	// KindAlreadyExists indicates an identity collision on create.
	KindAlreadyExists Kind = "already_exists"
	// KindInternal is the fallback for store-level failures.
	KindInternal Kind = "internal"
)

// Error carries a stable kind plus a human readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a kinded error.
func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Ef builds a kinded error with a formatted message.
func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = E(KindNotFound, "resource not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserSafeMessage returns a message suitable for end users. Store level
// failures are collapsed into a generic message.
func UserSafeMessage(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Msg
	}
	return "operation failed, please try again"
}
