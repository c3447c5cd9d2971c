// Package apperror defines the error kinds shared by every service and
// the HTTP boundary. Kinds are semantic tags, not a type hierarchy:
// handlers translate low-level failures into one of these, and the
// dispatcher decides retryable vs permanent by kind.
package apperror

import (
	"errors"
	"fmt"
)

// Kind is one of the seven named error kinds.
type Kind string

const (
	NotFound            Kind = "not_found"
	InvalidInput        Kind = "invalid_input"
	InvalidTransition   Kind = "invalid_transition"
	RateLimited         Kind = "rate_limited"
	UpstreamUnavailable Kind = "upstream_unavailable"
	PermanentFailure    Kind = "permanent_failure"
	Suppressed          Kind = "suppressed"
)

// HTTPStatus maps a Kind to the status code it carries at the API boundary.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return 404
	case InvalidInput:
		return 400
	case InvalidTransition:
		return 409
	case RateLimited:
		return 429
	default:
		return 500
	}
}

// Retryable reports whether the dispatcher should apply the queue's retry
// policy instead of moving the job straight to failed.
func (k Kind) Retryable() bool {
	return k == RateLimited || k == UpstreamUnavailable
}

// Error is an AppError carrying a Kind, the wrapped cause, and optional
// context for the HTTP {error, hint, ...context} envelope.
type Error struct {
	Kind    Kind
	Err     error
	Hint    string
	Context map[string]interface{}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err under kind. With a nil err, Error() returns just the kind.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WithHint attaches a user-facing hint to the error.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithContext attaches boundary context to the error.
func (e *Error) WithContext(ctx map[string]interface{}) *Error {
	e.Context = ctx
	return e
}

// Sentinel causes for the service layers that don't have a more specific
// underlying error to wrap.
var (
	ErrSuppressed    = errors.New("recipient is suppressed")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrNotRecyclable = errors.New("offer is not recyclable")

	// ErrNotConfigured marks an operator-plug collaborator (the external
	// extractor/generator interfaces) that this deployment never wired a
	// concrete implementation for.
	ErrNotConfigured = errors.New("collaborator not configured")
)

// KindOf extracts the Kind from err, defaulting to UpstreamUnavailable for
// unrecognized errors so the dispatcher treats them as retryable rather than
// silently swallowing them.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return UpstreamUnavailable
}
