// Package apierr implements the error taxonomy of spec §7: a closed set of
// kinds (not names) that every boundary-facing error is classified into,
// plus a typed Error that carries a stable code and never leaks low-level
// store identifiers to API callers.
package apierr

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of error kinds from spec §7.
type Kind string

// Error kind constants, per spec §7.
const (
	KindValidation         Kind = "ValidationError"
	KindAuthz              Kind = "AuthzError"
	KindQuota              Kind = "QuotaError"
	KindStorageTransient   Kind = "StorageTransient"
	KindStoragePermanent   Kind = "StoragePermanent"
	KindEnrichmentDegraded Kind = "EnrichmentDegraded"
	KindProfileConflict    Kind = "ProfileConflict"
	KindExternalModel      Kind = "ExternalModelError"
	KindCancelled          Kind = "Cancelled"
)

// Retryable reports whether the taxonomy defines this kind as one the
// retry combinator (internal/platform/retry) should retry.
func (k Kind) Retryable() bool {
	switch k {
	case KindQuota, KindStorageTransient, KindExternalModel:
		return true
	default:
		return false
	}
}

// Error is a taxonomy-classified error returned across every capability
// boundary (spec §7 propagation policy): it carries a stable Kind and a
// caller-safe Message, wrapping the underlying cause for internal logging
// without exposing it to the caller.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// New constructs a classified Error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs a classified Error that also retains cause for Unwrap,
// so internal logging can include full context while Error() stays
// caller-safe.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Error implements the error interface. It never includes the wrapped
// cause's text, since that may contain store-internal identifiers.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is implements errors.Is matching by Kind, so callers can write
// errors.Is(err, apierr.New(apierr.KindQuota, "")) or, more idiomatically,
// use Classify and switch on the returned Kind directly.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}

	return false
}

// Classify extracts the Kind from err if it (or something it wraps) is an
// *Error; otherwise it falls back to KindStorageTransient, matching the
// panic-recovery mapping in spec §7 ("mapped to StorageTransient for the
// affected item").
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	return KindStorageTransient
}
