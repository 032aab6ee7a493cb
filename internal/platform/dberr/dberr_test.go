// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
	"github.com/taibuivan/vehicles/internal/platform/dberr"
)

/*
TestWrap classifies driver errors into result codes and HTTP statuses.
*/
func TestWrap(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   apperr.Code
		wantStatus int
	}{
		{"no_documents", mongo.ErrNoDocuments, apperr.CodeNotFound, http.StatusNotFound},
		{"duplicate_key", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, apperr.CodeFailed, http.StatusConflict},
		{"deadline", context.DeadlineExceeded, apperr.CodeDatabaseConnect, http.StatusServiceUnavailable},
		{"disconnected", mongo.ErrClientDisconnected, apperr.CodeDatabaseConnect, http.StatusServiceUnavailable},
		{"other", errors.New("unexpected reply"), apperr.CodeFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := apperr.As(dberr.Wrap(tt.err, "find user"))
			require.NotNil(t, wrapped)
			assert.Equal(t, tt.wantCode, wrapped.Code)
			assert.Equal(t, tt.wantStatus, wrapped.HTTPStatus)
		})
	}
}

/*
TestWrap_PassThrough verifies nil and application errors are returned untouched.
*/
func TestWrap_PassThrough(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "count"))

	original := apperr.BadParameter("bad filter")
	assert.Same(t, original, dberr.Wrap(original, "count"))
}
