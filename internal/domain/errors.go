package domain

import (
	"errors"
	"fmt"
)

// IntegrationKind identifies which external collaborator failed.
type IntegrationKind string

const (
	FeedUnavailable    IntegrationKind = "FEED_UNAVAILABLE"
	FeedAuthFailed     IntegrationKind = "FEED_AUTH_FAILED"
	StoreUnavailable   IntegrationKind = "STORE_UNAVAILABLE"
	StoreWriteConflict IntegrationKind = "STORE_WRITE_CONFLICT"
)

// IntegrationError wraps a failure of an external collaborator (order feed or
// tabular store). These abort the whole recompute and surface to the caller.
type IntegrationError struct {
	Kind IntegrationKind
	Op   string
	Err  error
}

func (e *IntegrationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *IntegrationError) Unwrap() error { return e.Err }

// NewIntegrationError builds an IntegrationError for the given kind and op.
func NewIntegrationError(kind IntegrationKind, op string, err error) *IntegrationError {
	return &IntegrationError{Kind: kind, Op: op, Err: err}
}

// IntegrationKindOf extracts the integration kind from an error chain, or ""
// if the error is not an IntegrationError.
func IntegrationKindOf(err error) IntegrationKind {
	var ie *IntegrationError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

// ValidationError reports malformed caller input or a malformed feed record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether the error chain contains a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
