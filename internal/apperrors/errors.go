package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the operation collided with concurrent state,
// e.g. a second open session for the same user and branch.
var ErrConflict = errors.New("conflict")

// ErrInvalidState indicates that the operation is not legal in the current lifecycle state.
var ErrInvalidState = errors.New("invalid state")

// ErrForbidden indicates that the caller is not allowed to perform the operation.
var ErrForbidden = errors.New("forbidden")

// ErrInternal indicates an unexpected infrastructure failure.
var ErrInternal = errors.New("internal error")

// AppError wraps an infrastructure error with an HTTP-ish status code and a safe message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	if e.Err == nil {
		return ErrInternal
	}
	return e.Err
}

// NewNotFoundError wraps ErrNotFound with a message.
func NewNotFoundError(msg string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, msg)
}

// NewValidationFailedError wraps ErrValidation with a message.
func NewValidationFailedError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// NewConflictError wraps ErrConflict with a message.
func NewConflictError(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

// SessionStateError is returned when a cash session operation is rejected because of
// the session's lifecycle state. Kind is ErrInvalidState or ErrConflict.
type SessionStateError struct {
	SessionID string
	Status    string
	Op        string
	Kind      error
	Reason    string
}

func (e *SessionStateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("cannot %s: session is %s", e.Op, statusWord(e.Status))
}

func (e *SessionStateError) Unwrap() error { return e.Kind }

// NewInvalidState builds a SessionStateError of kind ErrInvalidState.
func NewInvalidState(op, sessionID, status string) *SessionStateError {
	return &SessionStateError{SessionID: sessionID, Status: status, Op: op, Kind: ErrInvalidState}
}

// NewConflict builds a SessionStateError of kind ErrConflict.
func NewConflict(op, sessionID, status, reason string) *SessionStateError {
	return &SessionStateError{SessionID: sessionID, Status: status, Op: op, Kind: ErrConflict, Reason: reason}
}

func statusWord(status string) string {
	switch status {
	case "OPEN":
		return "open"
	case "CLOSED":
		return "closed"
	case "":
		return "unknown"
	}
	return status
}
