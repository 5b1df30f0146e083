// Package errors provides structured error types for Profilar with error
// categories, codes, and recoverability information so callers can distinguish
// a defect worth aborting over from one the batch should survive.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeCompile    ErrorType = "compile"
	ErrorTypeInternal   ErrorType = "internal"
)

// ProfilarError is a structured error type with context.
type ProfilarError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Component   string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *ProfilarError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *ProfilarError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *ProfilarError) Is(target error) bool {
	var t *ProfilarError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithFile adds the file path the error relates to.
func (e *ProfilarError) WithFile(filePath string) *ProfilarError {
	e.FilePath = filePath

	return e
}

// WithComponent adds component context.
func (e *ProfilarError) WithComponent(component string) *ProfilarError {
	e.Component = component

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *ProfilarError {
	return &ProfilarError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *ProfilarError {
	return &ProfilarError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *ProfilarError {
	return &ProfilarError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewCompileError creates a compilation error.
func NewCompileError(code, message string, cause error) *ProfilarError {
	return &ProfilarError{
		Type:        ErrorTypeCompile,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *ProfilarError {
	return &ProfilarError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var pe *ProfilarError
	if errors.As(err, &pe) {
		return pe.Recoverable
	}

	return false
}
