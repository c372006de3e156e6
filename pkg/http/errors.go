package http

import (
	"fmt"
	"net/http"
)

// Error codes carried in AppError.Code.
const (
	CodeNotFound    = "ERR_NOT_FOUND"
	CodeBadRequest  = "ERR_BAD_REQUEST"
	CodeUnavailable = "ERR_UNAVAILABLE"
)

// AppError is an error a handler can return as-is; Status picks the HTTP
// status and the rest is serialized for the client.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
	}
}

// WithParam attaches a detail the client can branch on, such as the
// dashboard section that had no data.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError wraps the cause; it is logged but never serialized.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return NewAppError(CodeNotFound, "", fmt.Sprintf(format, a...), http.StatusNotFound)
}

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return NewAppError(CodeBadRequest, "", fmt.Sprintf(format, a...), http.StatusBadRequest)
}

// UnavailableErrorf creates a 503 error for a disabled backend, an upstream
// timeout or a dashboard section without data.
func UnavailableErrorf(format string, a ...interface{}) *AppError {
	return NewAppError(CodeUnavailable, "", fmt.Sprintf(format, a...), http.StatusServiceUnavailable)
}
