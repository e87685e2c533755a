// Package common defines shared constants and errors used across the layers
// of the myrecipe backend. Repository code returns the sentinel values and
// callers match them with errors.Is; the service layer converts them into
// *common.Error values carrying a Kind, which the transport boundary maps to
// an HTTP status.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
)

// Kind discriminates failure categories at the service boundary. Exactly one
// Kind is attached to every error that crosses into the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	// KindUnauthorized covers every token problem: malformed, bad signature,
	// expired, wrong type, revoked, not found. Callers must not be able to
	// tell which check failed.
	KindUnauthorized
	KindDuplicate
	KindNotFound
	KindValidation
	KindPersistence
	// KindConfig is startup-fatal misconfiguration (e.g. a missing or short
	// signing key). It never reaches the request path.
	KindConfig
)

// Error is the discriminated error type returned by services. Code is a
// stable machine-readable identifier surfaced in HTTP error bodies; Message
// is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E constructs an Error without a cause.
func E(kind Kind, code string, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap constructs an Error around an underlying cause. The cause is kept for
// logs and errors.Is/As matching but is never serialized to clients.
func Wrap(kind Kind, code string, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// KindOf extracts the Kind from err, walking the wrap chain. Errors that do
// not carry a *common.Error are treated as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf extracts the error code from err, defaulting to a generic internal
// code for errors that never got classified.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return CodeInternal
}

// Stable error codes surfaced in HTTP error bodies.
const (
	CodeUnauthorized   = "ERR_UNAUTHORIZED"
	CodeDuplicateEmail = "ERR_DUPLICATE_EMAIL"
	CodeNotFound       = "ERR_NOT_FOUND"
	CodeValidation     = "ERR_VALIDATION_FAILED"
	CodePersistence    = "ERR_PERSISTENCE"
	CodeConfig         = "ERR_CONFIG"
	CodeInternal       = "ERR_INTERNAL"
)

// Unauthorized returns the generic credential error. Every token failure
// funnels through here so the message cannot leak the failing check.
func Unauthorized(err error) *Error {
	return Wrap(KindUnauthorized, CodeUnauthorized, "invalid or expired credentials", err)
}
