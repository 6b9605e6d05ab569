// Package errors provides custom error types and error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes.
const (
	// Caller errors.
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"

	// Pipeline errors.
	CodeEmbedding = "EMBEDDING_ERROR"
	CodeProvider  = "PROVIDER_ERROR"
	CodeRewrite   = "REWRITE_ERROR"
	CodeRerank    = "RERANK_ERROR"
	CodeLLM       = "LLM_ERROR"
	CodeQdrant    = "QDRANT_ERROR"
	CodeIngest    = "INGEST_ERROR"

	// Infrastructure errors.
	CodeInternal    = "INTERNAL_ERROR"
	CodeUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout     = "TIMEOUT"
)

// AppError represents an application error with code and details.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Code returns the code of err if it is an AppError, or CodeInternal.
func Code(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return Code(err) == code
}

// Convenience constructors.

// ValidationError creates a validation error.
func ValidationError(message string) *AppError {
	return New(CodeValidation, message)
}

// EmbeddingError wraps an embedding provider failure.
func EmbeddingError(err error) *AppError {
	return Wrap(CodeEmbedding, "embedding generation failed", err)
}

// ProviderError wraps a search backend failure.
func ProviderError(provider string, err error) *AppError {
	return Wrap(CodeProvider, fmt.Sprintf("provider %s search failed", provider), err)
}

// TimeoutError creates a timeout error for an operation.
func TimeoutError(operation string) *AppError {
	return New(CodeTimeout, fmt.Sprintf("%s timed out", operation))
}

// UnavailableError creates a service unavailable error.
func UnavailableError(service string) *AppError {
	return New(CodeUnavailable, fmt.Sprintf("%s is unavailable", service))
}
