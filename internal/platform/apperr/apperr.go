// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error type for the vehicles backend.

Every failure that leaves the service layer is an [AppError]. It carries the
numeric result code surfaced to clients in the `code` field of every JSON
body, the HTTP status used by the API handlers, and the underlying cause for
server-side logging.

Taxonomy:

  - BadParameter: malformed or missing input (decryption failures fold in here).
  - NotFound: no identity matched the session or credentials.
  - Conflict: a write collided with a unique index.
  - Store / DatabaseUnavailable: the document store failed or is unreachable.
  - Internal: anything unexpected.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Result Codes

// Code is the numeric result code returned in the `code` field of responses.
type Code int

const (
	CodeSuccess         Code = 0
	CodeFailed          Code = -100
	CodeBadParameter    Code = -101
	CodeDatabaseConnect Code = -200

	// Reserved for SMS verification flows; unused by this service.
	CodeSMSCheck   Code = -300
	CodeSMSTimeout Code = -301

	CodeNotFound Code = -400

	// Reserved for duplicate-submission detection; unused by this service.
	CodeResubmit Code = -500

	CodeUnknown Code = -600
)

// AppError is the canonical error type.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients.
type AppError struct {
	// Code is the numeric result code.
	Code Code `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"msg"`
	// HTTPStatus is the HTTP response status code used by API handlers.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors

// BadParameter creates a 400 [AppError] with optional per-field details.
func BadParameter(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeBadParameter,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// NotFound creates a 404 [AppError].
//
// Example:
//
//	apperr.NotFound("login timed out")
func NotFound(msg string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    msg,
		HTTPStatus: http.StatusNotFound,
	}
}

// Forbidden creates a 403 [AppError]. The session middleware uses it for every
// denial that is the client's fault.
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeBadParameter,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for unique-index violations.
func Conflict(msg string, cause error) *AppError {
	return &AppError{
		Code:       CodeFailed,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
		Cause:      cause,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeFailed,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Server Errors

// Store creates a 500 [AppError] for a failed document store operation.
func Store(cause error) *AppError {
	return &AppError{
		Code:       CodeFailed,
		Message:    "Database operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// DatabaseUnavailable creates a 503 [AppError] for an unreachable document store.
func DatabaseUnavailable(cause error) *AppError {
	return &AppError{
		Code:       CodeDatabaseConnect,
		Message:    "Database connection failed",
		HTTPStatus: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeUnknown,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code Code) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}

// IsNotFound reports whether err is a NotFound [*AppError].
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsClientError reports whether err is an [*AppError] caused by the caller
// rather than by the server.
func IsClientError(err error) bool {
	ae := As(err)
	return ae != nil && ae.HTTPStatus >= 400 && ae.HTTPStatus < 500
}
