// Package errors provides the typed errors used across mdview and the
// mapping from error categories to HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeMethod     ErrorType = "method"
	ErrorTypeRequest    ErrorType = "request"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// MdviewError is a structured error type with context.
type MdviewError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
	File    string
}

// Error implements the error interface.
func (e *MdviewError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.File != "" {
		parts = append(parts, "file:"+e.File)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *MdviewError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *MdviewError) Is(target error) bool {
	var t *MdviewError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *MdviewError) WithContext(key string, value interface{}) *MdviewError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile records the file the error concerns.
func (e *MdviewError) WithFile(name string) *MdviewError {
	e.File = name

	return e
}

// Error creation functions

// NewValidationError creates a validation error. Validation errors are client
// mistakes and map to 400.
func NewValidationError(code, message string) *MdviewError {
	return &MdviewError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(code, message string) *MdviewError {
	return &MdviewError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewMethodError creates an unsupported-method error.
func NewMethodError(method string) *MdviewError {
	return &MdviewError{
		Type:    ErrorTypeMethod,
		Code:    ErrCodeMethodNotAllowed,
		Message: fmt.Sprintf("method %s not allowed", method),
	}
}

// NewRequestError creates an error for a request target the router cannot
// split. It maps to 500.
func NewRequestError(code, message string) *MdviewError {
	return &MdviewError{
		Type:    ErrorTypeRequest,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *MdviewError {
	return &MdviewError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewRenderError creates a markdown conversion error.
func NewRenderError(message string, cause error) *MdviewError {
	return &MdviewError{
		Type:    ErrorTypeRender,
		Code:    ErrCodeRenderFailed,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *MdviewError {
	return &MdviewError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *MdviewError {
	return &MdviewError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	var me *MdviewError
	if errors.As(err, &me) {
		return me.Type == ErrorTypeNotFound
	}

	return false
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	var me *MdviewError
	if errors.As(err, &me) {
		return me.Type == ErrorTypeConfig
	}

	return false
}

// HTTPStatus maps an error to the status code a handler should answer with.
// Untyped errors are internal.
func HTTPStatus(err error) int {
	var me *MdviewError
	if !errors.As(err, &me) {
		return http.StatusInternalServerError
	}

	switch me.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeMethod:
		return http.StatusMethodNotAllowed
	case ErrorTypeRequest, ErrorTypeIO, ErrorTypeRender, ErrorTypeConfig, ErrorTypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a client. The cause is
// never exposed.
func PublicMessage(err error) string {
	var me *MdviewError
	if errors.As(err, &me) {
		return me.Message
	}

	return http.StatusText(http.StatusInternalServerError)
}

// Common error codes.
const (
	ErrCodeMultipleQuery    = "ERR_MULTIPLE_QUERY"
	ErrCodeMalformedQuery   = "ERR_MALFORMED_QUERY"
	ErrCodeUnknownParam     = "ERR_UNKNOWN_PARAM"
	ErrCodeNoMarkdown       = "ERR_NO_MARKDOWN"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeFileUnreadable   = "ERR_FILE_UNREADABLE"
	ErrCodeDirUnreadable    = "ERR_DIR_UNREADABLE"
	ErrCodeMethodNotAllowed = "ERR_METHOD_NOT_ALLOWED"
	ErrCodeRenderFailed     = "ERR_RENDER_FAILED"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeUnknownStyle     = "ERR_UNKNOWN_STYLE"
	ErrCodeNoFreePort       = "ERR_NO_FREE_PORT"
	ErrCodeBindFailed       = "ERR_BIND_FAILED"
)
