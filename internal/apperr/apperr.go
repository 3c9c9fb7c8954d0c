// Package apperr defines the typed errors raised by the complaint workflow.
//
// Callers classify failures with errors.As against these types (or the Is*
// helpers) and never by inspecting message text. The HTTP layer maps each
// kind to a status code and a stable "kind" string, and the REST client
// maps that string back into the same types.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the stable, wire-level name of an error class.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindUnauthenticated   Kind = "unauthenticated"
	KindAuthorization     Kind = "authorization"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindTransient         Kind = "transient"
	KindInternal          Kind = "internal"
)

// ValidationError reports malformed or missing input.
//
// Not retryable: the same request will fail again.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// AuthenticationError reports a missing, malformed or expired bearer token.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication required: %s", e.Message)
}

// NewAuthenticationError creates an authentication error.
func NewAuthenticationError(msg string) *AuthenticationError {
	return &AuthenticationError{Message: msg}
}

// AuthorizationError reports an actor whose role does not permit the action.
//
// Not retryable: surfaced to the actor as-is.
type AuthorizationError struct {
	Action string
	Role   string
}

func (e *AuthorizationError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("not authorized to %s", e.Action)
	}
	return fmt.Sprintf("role %s is not authorized to %s", e.Role, e.Action)
}

// NewAuthorizationError creates an authorization error.
func NewAuthorizationError(action, role string) *AuthorizationError {
	return &AuthorizationError{Action: action, Role: role}
}

// NotFoundError reports an unresolved complaint, officer or file reference.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFoundError creates a not-found error. id may be any printable value.
func NewNotFoundError(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// ConflictError reports an operation that is illegal in the current state,
// including a lost optimistic-concurrency race.
type ConflictError struct {
	Message string
	Err     error
}

func (e *ConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conflict: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("conflict: %s", e.Message)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *ConflictError) Unwrap() error {
	return e.Err
}

// NewConflictError creates a conflict error.
func NewConflictError(msg string) *ConflictError {
	return &ConflictError{Message: msg}
}

// InvalidTransitionError reports a status change that is not an edge of the
// configured transition graph. It is a ConflictError as well:
// errors.As(err, new(*ConflictError)) succeeds for it.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// Unwrap exposes the conflict classification.
func (e *InvalidTransitionError) Unwrap() error {
	return &ConflictError{Message: "invalid status transition"}
}

// NewInvalidTransitionError creates an invalid transition error.
func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

// TransientError reports a network failure, timeout or 5xx response.
//
// Retryable at the caller's discretion; the workflow never retries.
type TransientError struct {
	Message string
	Err     error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient failure: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("transient failure: %s", e.Message)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a transient error.
func NewTransientError(msg string, err error) *TransientError {
	return &TransientError{Message: msg, Err: err}
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	var (
		validation *ValidationError
		authn      *AuthenticationError
		authz      *AuthorizationError
		notFound   *NotFoundError
		transition *InvalidTransitionError
		conflict   *ConflictError
		transient  *TransientError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &authn):
		return KindUnauthenticated
	case errors.As(err, &authz):
		return KindAuthorization
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &transition):
		return KindInvalidTransition
	case errors.As(err, &conflict):
		return KindConflict
	case errors.As(err, &transient):
		return KindTransient
	default:
		return KindInternal
	}
}

// FromKind rebuilds a typed error from its wire kind and message.
func FromKind(kind Kind, msg string) error {
	switch kind {
	case KindValidation:
		return &ValidationError{Message: msg}
	case KindUnauthenticated:
		return &AuthenticationError{Message: msg}
	case KindAuthorization:
		return &AuthorizationError{Action: msg}
	case KindNotFound:
		return &NotFoundError{Resource: msg}
	case KindInvalidTransition:
		return &ConflictError{Message: msg, Err: &InvalidTransitionError{}}
	case KindConflict:
		return &ConflictError{Message: msg}
	case KindTransient:
		return &TransientError{Message: msg}
	default:
		return errors.New(msg)
	}
}

// IsRetryable reports whether a caller may retry the failed operation.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}
