// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vehicles/internal/identity"
	"github.com/taibuivan/vehicles/internal/platform/apperr"
)

func post(t *testing.T, handler http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(recorder, request)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder, decoded
}

/*
TestHandler_Credentials covers the login and register endpoints end to end.
*/
func TestHandler_Credentials(t *testing.T) {
	f := newFixture(t)
	router := identity.NewHandler(f.service).Routes()

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   apperr.Code
	}{
		{"login_unknown", "/dev/login", `{"account":"driver01","password":"secret"}`, http.StatusNotFound, apperr.CodeNotFound},
		{"register", "/dev/register", `{"account":"driver01","password":"secret"}`, http.StatusOK, apperr.CodeSuccess},
		{"login", "/dev/login", `{"account":"driver01","password":"secret"}`, http.StatusOK, apperr.CodeSuccess},
		{"register_other_password", "/dev/register", `{"account":"driver01","password":"other"}`, http.StatusConflict, apperr.CodeFailed},
		{"missing_password", "/dev/login", `{"account":"driver01"}`, http.StatusBadRequest, apperr.CodeBadParameter},
		{"blank_account", "/dev/register", `{"account":"  ","password":"secret"}`, http.StatusBadRequest, apperr.CodeBadParameter},
		{"invalid_json", "/dev/login", `{"account":`, http.StatusBadRequest, apperr.CodeBadParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder, body := post(t, router, tt.path, tt.body)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, float64(tt.wantCode), body["code"])

			if tt.wantStatus == http.StatusOK {
				assert.Len(t, body["session"], 32)
				assert.Equal(t, testPEM, body["publicKey"])
				assert.Positive(t, body["serverTime"])
			} else {
				assert.NotEmpty(t, body["msg"])
				assert.NotContains(t, body, "session")
			}
		})
	}
}

/*
TestHandler_PublicKey verifies the key endpoint returns the PEM in the data envelope.
*/
func TestHandler_PublicKey(t *testing.T) {
	f := newFixture(t)
	router := identity.NewHandler(f.service).Routes()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/publickey", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["code"])
	assert.Equal(t, testPEM, body["data"])
}
