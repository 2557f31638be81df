package errors

import (
	"errors"
	"fmt"
)

// ErrCode represents an error code
type ErrCode string

const (
	// Client side: a single file's submission failed
	ErrCodeTransport        ErrCode = "TRANSPORT_ERROR"
	ErrCodeServiceRejection ErrCode = "SERVICE_REJECTION"
	ErrCodeRead             ErrCode = "READ_ERROR"

	// Service side
	ErrCodeNotFound        ErrCode = "NOT_FOUND"
	ErrCodeBadRequest      ErrCode = "BAD_REQUEST"
	ErrCodePayloadTooLarge ErrCode = "PAYLOAD_TOO_LARGE"
	ErrCodeInternal        ErrCode = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewTransportError creates an error for a submission that could not reach
// or complete against the ingestion service
func NewTransportError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeTransport,
		Message: message,
		Err:     err,
	}
}

// NewServiceRejection creates an error for a service that answered but
// reported failure or returned an unusable payload
func NewServiceRejection(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeServiceRejection,
		Message: message,
		Err:     err,
	}
}

// NewReadError creates an error for a local file that could not be read
func NewReadError(name string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeRead,
		Message: fmt.Sprintf("failed to read %s", name),
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// NewPayloadTooLargeError creates a new payload too large error
func NewPayloadTooLargeError(limit int64) *AppError {
	return &AppError{
		Code:    ErrCodePayloadTooLarge,
		Message: fmt.Sprintf("upload exceeds %d bytes", limit),
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "" if there is none
func CodeOf(err error) ErrCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Describe returns a human-readable message for err without the error code
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch {
		case appErr.Err == nil:
			return appErr.Message
		case appErr.Message == "":
			return appErr.Err.Error()
		default:
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
		}
	}
	return err.Error()
}

// IsTransport checks if the error is a transport error
func IsTransport(err error) bool {
	return CodeOf(err) == ErrCodeTransport
}

// IsRejection checks if the error is a service rejection
func IsRejection(err error) bool {
	return CodeOf(err) == ErrCodeServiceRejection
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}
