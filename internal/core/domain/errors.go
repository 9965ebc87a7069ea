package domain

import (
	"errors"
	"fmt"
)

// Builder validation error codes
const (
	ErrCodeMissingField               = "MISSING_FIELD"
	ErrCodeInvalidModifierCombination = "INVALID_MODIFIER_COMBINATION"
	ErrCodeInvalidMultiCapture        = "INVALID_MULTI_CAPTURE"
	ErrCodeInvalidTransition          = "INVALID_TRANSITION"
	ErrCodeUnexpectedField            = "UNEXPECTED_FIELD"
	ErrCodeInvalidField               = "INVALID_FIELD"
)

// Dispatch error codes
const (
	ErrCodeUnsupportedCombination = "UNSUPPORTED_COMBINATION"
	ErrCodeIncompletePayByLink    = "INCOMPLETE_PAY_BY_LINK"
)

// BuilderError is raised before dispatch when the builder configuration is unusable.
// The caller fixes the configuration; it is never retried.
type BuilderError struct {
	Code    string
	Field   string
	Message string
	Err     error
}

func (e *BuilderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *BuilderError) Unwrap() error {
	return e.Err
}

// DispatchError is raised when no connector can take the resolved request.
type DispatchError struct {
	Code    string
	Message string
	Err     error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func NewMissingFieldError(field string) *BuilderError {
	return &BuilderError{
		Code:    ErrCodeMissingField,
		Field:   field,
		Message: fmt.Sprintf("%s is required", field),
	}
}

// NewInvalidFieldError reports a field that is present but holds an unusable value.
func NewInvalidFieldError(field string, err error) *BuilderError {
	return &BuilderError{
		Code:    ErrCodeInvalidField,
		Field:   field,
		Message: fmt.Sprintf("invalid %s", field),
		Err:     err,
	}
}

func NewInvalidModifierError(t TransactionType, m TransactionModifier, reason string) *BuilderError {
	return &BuilderError{
		Code:    ErrCodeInvalidModifierCombination,
		Field:   "transactionModifier",
		Message: fmt.Sprintf("modifier %s cannot be used with %s: %s", m, t, reason),
	}
}

func NewInvalidMultiCaptureError(reason string) *BuilderError {
	return &BuilderError{
		Code:    ErrCodeInvalidMultiCapture,
		Field:   "multiCapture",
		Message: fmt.Sprintf("invalid multi-capture: %s", reason),
	}
}

func NewInvalidTransitionError(from, to string) *BuilderError {
	return &BuilderError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewUnexpectedFieldError(field, reason string) *BuilderError {
	return &BuilderError{
		Code:    ErrCodeUnexpectedField,
		Field:   field,
		Message: fmt.Sprintf("%s is not allowed: %s", field, reason),
	}
}

func NewUnsupportedCombinationError(key string) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeUnsupportedCombination,
		Message: fmt.Sprintf("no connector supports %s", key),
	}
}

func NewIncompletePayByLinkError(reason string, err error) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeIncompletePayByLink,
		Message: fmt.Sprintf("incomplete pay-by-link request: %s", reason),
		Err:     err,
	}
}

// IsErrorCode checks if an error is a BuilderError or DispatchError with a specific code
func IsErrorCode(err error, code string) bool {
	var builderErr *BuilderError
	if errors.As(err, &builderErr) {
		return builderErr.Code == code
	}
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return dispatchErr.Code == code
	}
	return false
}
