package errors

import (
	"fmt"
)

// Error codes shared by every layer of the dashboard core
const (
	CodeDuplicateName          = "DUPLICATE_NAME"
	CodeDuplicateBankForDevice = "DUPLICATE_BANK_FOR_DEVICE"
	CodeNotFound               = "NOT_FOUND"
	CodeUnauthenticated        = "UNAUTHENTICATED"
	CodeTransport              = "TRANSPORT_ERROR"
	CodeInvalidFormat          = "INVALID_FORMAT"
	CodeSyncInProgress         = "SYNC_IN_PROGRESS"
	CodeValidation             = "VALIDATION_ERROR"
	CodeConfig                 = "CONFIG_ERROR"
)

// Sentinels for errors.Is matching. AppError.Is compares codes only, so any
// AppError built by the constructors below matches its sentinel.
var (
	ErrDuplicateName          = AppError{Code: CodeDuplicateName}
	ErrDuplicateBankForDevice = AppError{Code: CodeDuplicateBankForDevice}
	ErrNotFound               = AppError{Code: CodeNotFound}
	ErrUnauthenticated        = AppError{Code: CodeUnauthenticated}
	ErrTransport              = AppError{Code: CodeTransport}
	ErrInvalidFormat          = AppError{Code: CodeInvalidFormat}
	ErrSyncInProgress         = AppError{Code: CodeSyncInProgress}
	ErrValidation             = AppError{Code: CodeValidation}
	ErrConfig                 = AppError{Code: CodeConfig}
)

// AppError is a custom error type for application errors
type AppError struct {
	Code    string
	Message string
	Err     error
	Details map[string]interface{}
}

// Error returns a string representation of the error
func (e AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is implements the errors.Is interface
func (e AppError) Is(target error) bool {
	if target, ok := target.(AppError); ok {
		return target.Code == e.Code
	}
	return false
}

// Unwrap returns the underlying error
func (e AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a single detail to the error
func (e AppError) WithDetail(key string, value interface{}) AppError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// NewDuplicateNameError reports a device name that is already taken
func NewDuplicateNameError(name string) AppError {
	return AppError{
		Code:    CodeDuplicateName,
		Message: "this device already exists",
	}.WithDetail("name", name)
}

// NewDuplicateBankError reports a bank already linked to the device
func NewDuplicateBankError(deviceID, bank string) AppError {
	return AppError{
		Code:    CodeDuplicateBankForDevice,
		Message: "this bank is already linked to this device",
	}.WithDetail("deviceId", deviceID).WithDetail("bank", bank)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) AppError {
	return AppError{
		Code:    CodeNotFound,
		Message: message,
	}
}

// NewUnauthenticatedError creates an error for a missing or expired session
func NewUnauthenticatedError(message string) AppError {
	return AppError{
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

// NewTransportError wraps a network or backend failure
func NewTransportError(message string, err error) AppError {
	return AppError{
		Code:    CodeTransport,
		Message: message,
		Err:     err,
	}
}

// NewInvalidFormatError wraps a decode failure of an external document
func NewInvalidFormatError(message string, err error) AppError {
	return AppError{
		Code:    CodeInvalidFormat,
		Message: message,
		Err:     err,
	}
}

// NewSyncInProgressError rejects a push or pull while another one runs
func NewSyncInProgressError() AppError {
	return AppError{
		Code:    CodeSyncInProgress,
		Message: "a cloud sync is already in progress",
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) AppError {
	return AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewConfigError creates a configuration error
func NewConfigError(message string) AppError {
	return AppError{
		Code:    CodeConfig,
		Message: message,
	}
}

// Code extracts the AppError code from err, or "" when err is not an AppError
func Code(err error) string {
	for err != nil {
		if appErr, ok := err.(AppError); ok {
			return appErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
