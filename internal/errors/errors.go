package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a pockets error code.
type ErrorCode string

const (
	ErrAmbiguousAddressing ErrorCode = "AMBIGUOUS_ADDRESSING" // 400
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"       // 404
	ErrNoActiveEditor      ErrorCode = "NO_ACTIVE_EDITOR"     // 412
	ErrNoPockets           ErrorCode = "NO_POCKETS"           // 412
	ErrCancelled           ErrorCode = "CANCELLED"            // 499
	ErrInternal            ErrorCode = "INTERNAL"             // 500
	ErrHostUnavailable     ErrorCode = "HOST_UNAVAILABLE"     // 503
)

// PocketsError represents a structured error with code, status, and details.
type PocketsError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PocketsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAmbiguousAddressing creates a 400 error for when both ID and label are provided.
func NewAmbiguousAddressing() *PocketsError {
	return &PocketsError{
		Code:    ErrAmbiguousAddressing,
		Status:  400,
		Message: "cannot specify both id and name; use one addressing mode",
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PocketsError {
	return &PocketsError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a node cannot be found.
func NewNotFound(identifier string) *PocketsError {
	return &PocketsError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("node not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *PocketsError {
	return &PocketsError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNoActiveEditor creates a 412 error when no editor group is active.
func NewNoActiveEditor() *PocketsError {
	return &PocketsError{
		Code:    ErrNoActiveEditor,
		Status:  412,
		Message: "no active editor; open a file before saving tabs",
	}
}

// NewNoPockets creates a 412 error when an action needs at least one pocket.
func NewNoPockets() *PocketsError {
	return &PocketsError{
		Code:    ErrNoPockets,
		Status:  412,
		Message: "no pockets exist; create one first",
	}
}

// NewCancelled creates a 499 error for an operation cancelled mid-flight.
func NewCancelled(operation string) *PocketsError {
	return &PocketsError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
		Details: map[string]any{"operation": operation},
	}
}

// NewHostUnavailable creates a 503 error when a host service cannot be reached.
func NewHostUnavailable(service string, err error) *PocketsError {
	msg := fmt.Sprintf("%s unavailable", service)
	if err != nil {
		msg = fmt.Sprintf("%s unavailable: %v", service, err)
	}
	return &PocketsError{
		Code:    ErrHostUnavailable,
		Status:  503,
		Message: msg,
		Details: map[string]any{"service": service},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *PocketsError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &PocketsError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is (or wraps) a PocketsError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *PocketsError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}
