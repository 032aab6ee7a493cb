// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// Every body, success or error, carries the numeric result `code` so that
// clients can branch on one field regardless of the endpoint.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
	"github.com/taibuivan/vehicles/internal/platform/ctxutil"
)

// DataEnvelope is the JSON envelope for successful single-value responses.
type DataEnvelope struct {
	Code apperr.Code `json:"code"`
	Data any         `json:"data"`
}

// ListEnvelope is the JSON envelope for paged list responses. Amount is the
// total number of matching items, independent of the page window.
type ListEnvelope struct {
	Code   apperr.Code `json:"code"`
	Data   any         `json:"data"`
	Amount int64       `json:"amount"`
}

// MessageEnvelope is the JSON envelope for acknowledgements without data.
type MessageEnvelope struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"msg"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Code    apperr.Code         `json:"code"`
	Message string              `json:"msg"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusOK, DataEnvelope{Code: apperr.CodeSuccess, Data: data})
}

// List writes a 200 OK response with a page of items and the total amount.
func List(writer http.ResponseWriter, data any, amount int64) {
	JSON(writer, http.StatusOK, ListEnvelope{Code: apperr.CodeSuccess, Data: data, Amount: amount})
}

// Message writes a 200 OK acknowledgement.
func Message(writer http.ResponseWriter, message string) {
	JSON(writer, http.StatusOK, MessageEnvelope{Code: apperr.CodeSuccess, Message: message})
}

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	logger := ctxutil.GetLogger(request.Context())

	appError := apperr.As(err)
	if appError == nil {
		// Unexpected internal error: log full details but hide them from the client.
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.Int("code", int(appError.Code)),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Code:    appError.Code,
		Message: appError.Message,
		Details: appError.Details,
	})
}
