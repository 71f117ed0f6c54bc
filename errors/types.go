package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors. Any of these aborts a run before a unit executes.
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Session errors
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"

	// External tool errors
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"
	ErrCodeNotifyFailed    ErrorCode = "NOTIFY_FAILED"
	ErrCodeOracleFailed    ErrorCode = "ORACLE_FAILED"

	// Report errors
	ErrCodeReportPersist  ErrorCode = "REPORT_PERSIST"
	ErrCodeReportNotFound ErrorCode = "REPORT_NOT_FOUND"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// VigilError represents a structured error with context
type VigilError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *VigilError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *VigilError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *VigilError) WithDetail(key string, value interface{}) *VigilError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *VigilError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new VigilError
func New(code ErrorCode, message string) *VigilError {
	return &VigilError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a VigilError
func Wrap(err error, code ErrorCode, message string) *VigilError {
	return &VigilError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific VigilError code
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the outermost error code from an error chain
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	vErr, ok := err.(*VigilError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return vErr.Code
}

// IsConfiguration reports whether err belongs to the configuration family.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case ErrCodeConfigNotFound, ErrCodeConfigInvalid, ErrCodeConfigValidation:
		return true
	}
	return false
}

// As returns the first VigilError in err's chain.
func As(err error) (*VigilError, bool) {
	for err != nil {
		if vErr, ok := err.(*VigilError); ok {
			return vErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
