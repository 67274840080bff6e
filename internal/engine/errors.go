package engine

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors for callers and the transport layer
type Kind int

// Error kinds
const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindInvalidState
	KindConflict
	KindValidation
)

// Error is a typed engine error
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// NotFoundError reports that an entity id does not resolve
func NotFoundError(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// ForbiddenError reports that the caller lacks the required role or ownership
func ForbiddenError(format string, args ...interface{}) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// InvalidStateError reports an operation incompatible with current entity state
func InvalidStateError(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a uniqueness violation such as a duplicate membership
func ConflictError(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports invalid input such as an empty message
func ValidationError(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of an engine error, or 0 for other errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsNotFound reports whether err is a not-found engine error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsForbidden reports whether err is a forbidden engine error
func IsForbidden(err error) bool {
	return KindOf(err) == KindForbidden
}

// IsConflict reports whether err is a conflict engine error
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}
