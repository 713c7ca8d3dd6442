package types

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an access error
type ErrorKind string

const (
	ErrorKindNoSession           ErrorKind = "no_session"
	ErrorKindAddressMismatch     ErrorKind = "address_mismatch"
	ErrorKindRoleMismatch        ErrorKind = "role_mismatch"
	ErrorKindLedgerDenied        ErrorKind = "ledger_denied"
	ErrorKindProviderUnavailable ErrorKind = "provider_unavailable"
	ErrorKindUnrecognizedRole    ErrorKind = "unrecognized_role"
	ErrorKindLedgerWriteFailed   ErrorKind = "ledger_write_failed"
	ErrorKindInvalidInput        ErrorKind = "invalid_input"
	ErrorKindStorage             ErrorKind = "storage"
)

// AccessError represents a structured error in the access gate
type AccessError struct {
	Kind    ErrorKind              `json:"kind"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *AccessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AccessError) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a detail field and returns the same error
func (e *AccessError) WithDetail(key string, value interface{}) *AccessError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewAccessError creates a new access error of the given kind
func NewAccessError(kind ErrorKind, message string) *AccessError {
	return &AccessError{
		Kind:    kind,
		Code:    codeFor(kind),
		Message: message,
	}
}

// WrapAccessError creates a new access error with an underlying cause
func WrapAccessError(kind ErrorKind, message string, cause error) *AccessError {
	return &AccessError{
		Kind:    kind,
		Code:    codeFor(kind),
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidInputError creates a new validation error
func NewInvalidInputError(message string, details map[string]interface{}) *AccessError {
	return &AccessError{
		Kind:    ErrorKindInvalidInput,
		Code:    ErrCodeInvalidInput,
		Message: message,
		Details: details,
	}
}

// KindOf returns the kind of err if it is (or wraps) an AccessError
func KindOf(err error) (ErrorKind, bool) {
	var accessErr *AccessError
	if errors.As(err, &accessErr) {
		return accessErr.Kind, true
	}
	return "", false
}

// IsKind reports whether err is (or wraps) an AccessError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Common error codes
const (
	ErrCodeNoSession           = "NO_SESSION"
	ErrCodeAddressMismatch     = "ADDRESS_MISMATCH"
	ErrCodeRoleMismatch        = "ROLE_MISMATCH"
	ErrCodeLedgerDenied        = "LEDGER_DENIED"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeUnrecognizedRole    = "UNRECOGNIZED_ROLE"
	ErrCodeLedgerWriteFailed   = "LEDGER_WRITE_FAILED"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeStorage             = "STORAGE_ERROR"
)

func codeFor(kind ErrorKind) string {
	switch kind {
	case ErrorKindNoSession:
		return ErrCodeNoSession
	case ErrorKindAddressMismatch:
		return ErrCodeAddressMismatch
	case ErrorKindRoleMismatch:
		return ErrCodeRoleMismatch
	case ErrorKindLedgerDenied:
		return ErrCodeLedgerDenied
	case ErrorKindProviderUnavailable:
		return ErrCodeProviderUnavailable
	case ErrorKindUnrecognizedRole:
		return ErrCodeUnrecognizedRole
	case ErrorKindLedgerWriteFailed:
		return ErrCodeLedgerWriteFailed
	case ErrorKindInvalidInput:
		return ErrCodeInvalidInput
	default:
		return ErrCodeStorage
	}
}
