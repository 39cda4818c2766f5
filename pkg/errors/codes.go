package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique identifier for specific error conditions in Anima.
// Clinical conditions are never errors; they are alarm codes in internal/alarm.
type ErrorCode int

const (
	ErrCodeUnknown       ErrorCode = 1000
	ErrCodeConfigInvalid ErrorCode = 1001
	ErrCodeConfigRead    ErrorCode = 1002

	// Clinician settings
	ErrCodeSettingsOutOfRange ErrorCode = 2001

	// Hardware bring-up and I/O
	ErrCodeHardwareInit  ErrorCode = 3001
	ErrCodeActuatorWrite ErrorCode = 3002
	ErrCodeSensorRead    ErrorCode = 3003
)

// AnimaError is a custom error type that provides structured error information,
// including an error code, the operation being performed, and the underlying cause.
type AnimaError struct {
	// Code is the specific error code.
	Code ErrorCode
	// Msg is a human-readable description of the error.
	Msg string
	// Operation describes the action being performed when the error occurred.
	Operation string
	// Err is the underlying error that caused this error, if any.
	Err error
}

// Error returns a formatted string representation of the error.
func (e *AnimaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %s (cause: %v)", e.Code, e.Operation, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Operation, e.Msg)
}

// Unwrap returns the underlying error.
func (e *AnimaError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AnimaError carrying the same code.
func (e *AnimaError) Is(target error) bool {
	t, ok := target.(*AnimaError)
	return ok && t.Code == e.Code
}

// New creates a new AnimaError with the specified code, operation, message, and underlying error.
func New(code ErrorCode, op, msg string, err error) error {
	return &AnimaError{
		Code:      code,
		Msg:       msg,
		Operation: op,
		Err:       err,
	}
}

// CodeOf extracts the ErrorCode from anywhere in err's chain.
// It returns ErrCodeUnknown for nil or foreign errors.
func CodeOf(err error) ErrorCode {
	var ae *AnimaError
	if stderrors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeUnknown
}

// Personal.AI order the ending
