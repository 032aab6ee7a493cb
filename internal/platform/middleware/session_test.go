// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
	"github.com/taibuivan/vehicles/internal/platform/ctxutil"
	"github.com/taibuivan/vehicles/internal/platform/middleware"
	"github.com/taibuivan/vehicles/internal/platform/sec"
)

const validToken = "AbCdEfGhIjKlMnOpQrStUvWxYz012345"

// # Fakes

type fakeChecker struct {
	tokens map[string]bool
	err    error
}

func (checker *fakeChecker) CheckIdentity(_ context.Context, token string) error {
	if checker.err != nil {
		return checker.err
	}
	if !checker.tokens[token] {
		return apperr.NotFound("login timed out")
	}
	return nil
}

type fakeReplay struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (guard *fakeReplay) Claim(_ context.Context, value string, _ time.Duration) (bool, error) {
	guard.mu.Lock()
	defer guard.mu.Unlock()

	if guard.err != nil {
		return false, guard.err
	}
	if guard.seen[value] {
		return false, nil
	}
	guard.seen[value] = true
	return true, nil
}

// # Harness

var serverNow = time.UnixMilli(1_700_000_000_000)

func newKeys(t *testing.T) *sec.KeyPair {
	t.Helper()
	keys, err := sec.GenerateKeyPair(1024)
	require.NoError(t, err)
	return keys
}

func guarded(keys *sec.KeyPair, checker middleware.IdentityChecker, replay middleware.ReplayGuard) http.Handler {
	authorize := middleware.Authorize(keys, checker, middleware.SessionGuardConfig{
		Window: 5 * time.Second,
		Now:    func() time.Time { return serverNow },
		Replay: replay,
	})

	return authorize(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(ctxutil.GetSession(request.Context())))
	}))
}

func serve(handler http.Handler, param string) *httptest.ResponseRecorder {
	target := "/vehicles/status"
	if param != "" {
		target += "?session=" + param
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
	return recorder
}

func seal(t *testing.T, keys *sec.KeyPair, token string, at time.Time) string {
	t.Helper()
	param, err := middleware.SealSession(keys, token, at)
	require.NoError(t, err)
	return param
}

func sealRaw(t *testing.T, keys *sec.KeyPair, payload map[string]any) string {
	t.Helper()
	plaintext, err := json.Marshal(payload)
	require.NoError(t, err)
	ciphertext, err := keys.Encrypt(plaintext)
	require.NoError(t, err)
	return url.QueryEscape(ciphertext)
}

// # Tests

/*
TestAuthorize walks every terminal state of the session guard.
*/
func TestAuthorize(t *testing.T) {
	keys := newKeys(t)
	otherKeys := newKeys(t)
	checker := &fakeChecker{tokens: map[string]bool{validToken: true}}

	tests := []struct {
		name       string
		param      func(t *testing.T) string
		checkerErr error
		wantStatus int
	}{
		{"missing", func(t *testing.T) string { return "" }, nil, http.StatusForbidden},
		{"not_base64", func(t *testing.T) string { return "%21%21%21" }, nil, http.StatusForbidden},
		{"wrong_key", func(t *testing.T) string { return seal(t, otherKeys, validToken, serverNow) }, nil, http.StatusForbidden},
		{"not_json", func(t *testing.T) string {
			ciphertext, err := keys.Encrypt([]byte("session=abc"))
			require.NoError(t, err)
			return url.QueryEscape(ciphertext)
		}, nil, http.StatusForbidden},
		{"no_timestamp", func(t *testing.T) string {
			return sealRaw(t, keys, map[string]any{"session": validToken})
		}, nil, http.StatusForbidden},
		{"fresh", func(t *testing.T) string { return seal(t, keys, validToken, serverNow) }, nil, http.StatusOK},
		{"lower_bound", func(t *testing.T) string { return seal(t, keys, validToken, serverNow.Add(-5*time.Second)) }, nil, http.StatusOK},
		{"upper_bound", func(t *testing.T) string { return seal(t, keys, validToken, serverNow.Add(5*time.Second)) }, nil, http.StatusOK},
		{"too_old", func(t *testing.T) string {
			return seal(t, keys, validToken, serverNow.Add(-5*time.Second-time.Millisecond))
		}, nil, http.StatusForbidden},
		{"too_new", func(t *testing.T) string {
			return seal(t, keys, validToken, serverNow.Add(5*time.Second+time.Millisecond))
		}, nil, http.StatusForbidden},
		{"formatted_timestamp", func(t *testing.T) string {
			return sealRaw(t, keys, map[string]any{
				"session":   validToken,
				"timestamp": serverNow.In(time.Local).Format(time.DateTime),
			})
		}, nil, http.StatusOK},
		{"unknown_session", func(t *testing.T) string { return seal(t, keys, "someone-else", serverNow) }, nil, http.StatusForbidden},
		{"store_unavailable", func(t *testing.T) string { return seal(t, keys, validToken, serverNow) },
			apperr.DatabaseUnavailable(errors.New("no reachable servers")), http.StatusInternalServerError},
		{"unexpected_error", func(t *testing.T) string { return seal(t, keys, validToken, serverNow) },
			errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker.err = tt.checkerErr
			defer func() { checker.err = nil }()

			recorder := serve(guarded(keys, checker, nil), tt.param(t))

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, validToken, recorder.Body.String())
			}
		})
	}
}

/*
TestAuthorize_ErrorBody verifies denials carry the standard result envelope.
*/
func TestAuthorize_ErrorBody(t *testing.T) {
	keys := newKeys(t)
	recorder := serve(guarded(keys, &fakeChecker{}, nil), seal(t, keys, validToken, serverNow))

	require.Equal(t, http.StatusForbidden, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, float64(apperr.CodeBadParameter), body["code"])
	assert.NotEmpty(t, body["msg"])
}

/*
TestAuthorize_ReplayGuard verifies a sealed parameter is accepted once.
*/
func TestAuthorize_ReplayGuard(t *testing.T) {
	keys := newKeys(t)
	checker := &fakeChecker{tokens: map[string]bool{validToken: true}}
	replay := &fakeReplay{seen: make(map[string]bool)}
	handler := guarded(keys, checker, replay)

	param := seal(t, keys, validToken, serverNow)

	assert.Equal(t, http.StatusOK, serve(handler, param).Code)
	assert.Equal(t, http.StatusForbidden, serve(handler, param).Code)
	assert.Equal(t, http.StatusOK, serve(handler, seal(t, keys, validToken, serverNow)).Code)

	replay.err = errors.New("redis down")
	assert.Equal(t, http.StatusInternalServerError, serve(handler, seal(t, keys, validToken, serverNow)).Code)
}

/*
TestSessionParam covers the decoding of the query value.
*/
func TestSessionParam(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
		want     string
	}{
		{"escaped", "session=ab%2Bcd%2F%3D%3D", "ab+cd/=="},
		{"unescaped_plus", "session=ab+cd/==", "ab+cd/=="},
		{"double_escaped", "session=ab%252Bcd%252F%253D%253D", "ab+cd/=="},
		{"absent", "other=1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/vehicles/status?"+tt.rawQuery, nil)
			assert.Equal(t, tt.want, middleware.SessionParam(request))
		})
	}
}

/*
TestParseTimestamp covers every accepted timestamp form.
*/
func TestParseTimestamp(t *testing.T) {
	local := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)

	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{"millis_number", "1700000000123", time.UnixMilli(1_700_000_000_123), false},
		{"millis_string", `"1700000000123"`, time.UnixMilli(1_700_000_000_123), false},
		{"millis_float", "1700000000123.0", time.UnixMilli(1_700_000_000_123), false},
		{"rfc3339", `"2026-03-14T09:26:53Z"`, time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC), false},
		{"datetime_local", `"2026-03-14 09:26:53"`, local, false},
		{"null", "null", time.Time{}, true},
		{"empty", "", time.Time{}, true},
		{"garbage", `"yesterday"`, time.Time{}, true},
		{"object", `{"ms":1}`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := middleware.ParseTimestamp(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

/*
TestFresh verifies the window bounds are inclusive.
*/
func TestFresh(t *testing.T) {
	window := 5 * time.Second

	assert.True(t, middleware.Fresh(serverNow.Add(window), serverNow, window))
	assert.True(t, middleware.Fresh(serverNow.Add(-window), serverNow, window))
	assert.False(t, middleware.Fresh(serverNow.Add(window+time.Millisecond), serverNow, window))
	assert.False(t, middleware.Fresh(serverNow.Add(-window-time.Millisecond), serverNow, window))
}
