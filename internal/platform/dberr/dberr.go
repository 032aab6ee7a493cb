// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level document store errors and
// higher-level application errors.
package dberr

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
)

// ErrNotFound is returned when a queried document doesn't exist.
var ErrNotFound = apperr.NotFound("Resource not found")

// Wrap inspects a driver error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// Errors that are already an [apperr.AppError] pass through untouched, so Wrap
// is safe to apply more than once along a call chain.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	if apperr.As(err) != nil {
		return err
	}

	cause := fmt.Errorf("%s: %w", action, err)

	switch {
	// 1. Not Found mapping
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound

	// 2. Unique index violations
	case mongo.IsDuplicateKeyError(err):
		return apperr.Conflict("Resource already exists", cause)

	// 3. Unreachable or stalled store
	case isUnavailable(err):
		return apperr.DatabaseUnavailable(cause)
	}

	// 4. Everything else is a failed operation
	return apperr.Store(cause)
}

// isUnavailable reports whether err means the store could not be reached.
func isUnavailable(err error) bool {
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, context.DeadlineExceeded)
}
