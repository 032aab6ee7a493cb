// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
	"github.com/taibuivan/vehicles/internal/platform/constants"
	"github.com/taibuivan/vehicles/internal/platform/ctxutil"
	"github.com/taibuivan/vehicles/internal/platform/respond"
)

// # Contracts

// SessionDecrypter opens an encrypted session parameter.
type SessionDecrypter interface {
	Decrypt(ciphertext string) ([]byte, error)
}

// SessionEncrypter seals a session parameter. It is the client-side
// counterpart of [SessionDecrypter].
type SessionEncrypter interface {
	Encrypt(plaintext []byte) (string, error)
}

// IdentityChecker confirms that a session token belongs to exactly one user.
// A NotFound [apperr.AppError] means the token is unknown or superseded.
type IdentityChecker interface {
	CheckIdentity(ctx context.Context, token string) error
}

// ReplayGuard claims a session parameter so it is accepted only once.
type ReplayGuard interface {
	Claim(ctx context.Context, value string, ttl time.Duration) (bool, error)
}

// SessionGuardConfig tunes [Authorize].
type SessionGuardConfig struct {
	// Window is the tolerance on either side of now. Zero means the default.
	Window time.Duration
	// Now returns the server clock. Nil means time.Now.
	Now func() time.Time
	// Replay is optional.
	Replay ReplayGuard
}

// SessionPayload is the plaintext of the session parameter.
//
// Timestamp is kept raw because clients send it either as unix milliseconds
// or as a formatted string; see [ParseTimestamp].
type SessionPayload struct {
	Session   string          `json:"session"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// Denial messages.
var (
	errMissingSession = apperr.Forbidden("Missing session parameter")
	errBadSession     = apperr.Forbidden("Malformed session parameter")
	errBadTimestamp   = apperr.Forbidden("Oops, bad request for timestamp")
	errReplayed       = apperr.Forbidden("Session parameter already used")
	errUnknownSession = apperr.Forbidden("Login timed out")
)

// # Middleware

// Authorize guards a route group with the encrypted session parameter.
//
// # Flow
//  1. Extract the non-empty `session` query parameter.
//  2. Decrypt it and decode `{session, timestamp}`.
//  3. Check that timestamp lies within [now-window, now+window], bounds included.
//  4. Claim the ciphertext with the replay guard, when one is configured.
//  5. Check the token against the identity store.
//
// Every rejection in steps 1 to 5 answers 403, except identity store failures
// other than NotFound, which answer 500. On success the token is stored in
// the request context (see [ctxutil.GetSession]).
func Authorize(decrypter SessionDecrypter, checker IdentityChecker, cfg SessionGuardConfig) func(http.Handler) http.Handler {
	window := cfg.Window
	if window <= 0 {
		window = constants.DefaultSessionWindow
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()
			logger := ctxutil.GetLogger(ctx)

			deny := func(err *apperr.AppError, reason string, attrs ...any) {
				logger.WarnContext(ctx, "session_denied", append([]any{slog.String("reason", reason)}, attrs...)...)
				respond.Error(writer, request, err)
			}

			// 1. Extract
			ciphertext := SessionParam(request)
			if ciphertext == "" {
				deny(errMissingSession, "missing")
				return
			}

			// 2. Decrypt
			payload, err := OpenSession(decrypter, ciphertext)
			if err != nil {
				deny(errBadSession, "decrypt", slog.Any("error", err))
				return
			}

			// 3. Freshness
			requestTime, err := ParseTimestamp(payload.Timestamp)
			if err != nil {
				deny(errBadTimestamp, "timestamp_format", slog.Any("error", err))
				return
			}

			current := now()
			logger.DebugContext(ctx, "session_range",
				slog.String("start", current.Add(-window).Format(constants.TimestampLayout)),
				slog.String("end", current.Add(window).Format(constants.TimestampLayout)),
				slog.String("request", requestTime.Format(constants.TimestampLayout)),
			)

			if !Fresh(requestTime, current, window) {
				deny(errBadTimestamp, "stale")
				return
			}

			// 4. Replay
			if cfg.Replay != nil {
				claimed, err := cfg.Replay.Claim(ctx, ciphertext, 2*window)
				if err != nil {
					fail(writer, request, err)
					return
				}
				if !claimed {
					deny(errReplayed, "replayed")
					return
				}
			}

			// 5. Existence
			if err := checker.CheckIdentity(ctx, payload.Session); err != nil {
				if apperr.IsNotFound(err) {
					deny(errUnknownSession, "unknown_session")
					return
				}
				fail(writer, request, err)
				return
			}

			next.ServeHTTP(writer, request.WithContext(ctxutil.WithSession(ctx, payload.Session)))
		})
	}
}

// fail answers 500 for server-side failures during authorization, keeping
// the result code of err when it carries one.
func fail(writer http.ResponseWriter, request *http.Request, err error) {
	ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "session_check_failed", slog.Any("error", err))

	code := apperr.CodeUnknown
	if appError := apperr.As(err); appError != nil {
		code = appError.Code
	}
	writeError(writer, http.StatusInternalServerError, code, "Session verification failed")
}

// # Protocol Helpers

// SessionParam returns the session query parameter, percent-decoded.
//
// A second decoding pass is applied when the value still holds escapes, for
// clients that encode twice. Spaces are turned back into '+' since unescaped
// base64 loses them to form decoding.
func SessionParam(request *http.Request) string {
	value := request.URL.Query().Get(constants.SessionQueryParam)

	if strings.Contains(value, "%") {
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
	}

	return strings.ReplaceAll(value, " ", "+")
}

// OpenSession decrypts and decodes a session parameter.
func OpenSession(decrypter SessionDecrypter, ciphertext string) (*SessionPayload, error) {
	plaintext, err := decrypter.Decrypt(ciphertext)
	if err != nil {
		return nil, err
	}

	var payload SessionPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("session: invalid payload: %w", err)
	}
	if payload.Session == "" {
		return nil, errors.New("session: empty token")
	}

	return &payload, nil
}

// SealSession builds a query-escaped session parameter for token stamped at.
func SealSession(encrypter SessionEncrypter, token string, at time.Time) (string, error) {
	plaintext, err := json.Marshal(map[string]any{
		"session":   token,
		"timestamp": at.UnixMilli(),
	})
	if err != nil {
		return "", err
	}

	ciphertext, err := encrypter.Encrypt(plaintext)
	if err != nil {
		return "", err
	}

	return url.QueryEscape(ciphertext), nil
}

// ParseTimestamp reads a session timestamp.
//
// Accepted forms: a JSON number or numeric string of unix milliseconds, an
// RFC 3339 string, or a "YYYY-MM-DD HH:mm:ss" string in server local time.
func ParseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, errors.New("session: missing timestamp")
	}

	if raw[0] != '"' {
		var number json.Number
		if err := json.Unmarshal(raw, &number); err != nil {
			return time.Time{}, fmt.Errorf("session: invalid timestamp: %w", err)
		}
		return fromMillis(number.String())
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return time.Time{}, fmt.Errorf("session: invalid timestamp: %w", err)
	}
	text = strings.TrimSpace(text)

	if parsed, err := fromMillis(text); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return parsed, nil
	}
	if parsed, err := time.ParseInLocation(constants.TimestampLayout, text, time.Local); err == nil {
		return parsed, nil
	}

	return time.Time{}, fmt.Errorf("session: unrecognized timestamp %q", text)
}

func fromMillis(text string) (time.Time, error) {
	if millis, err := strconv.ParseInt(text, 10, 64); err == nil {
		return time.UnixMilli(millis), nil
	}

	millis, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(millis) || math.IsInf(millis, 0) {
		return time.Time{}, fmt.Errorf("session: invalid timestamp %q", text)
	}
	return time.UnixMicro(int64(millis * 1000)), nil
}

// Fresh reports whether requestTime lies within window of now, bounds included.
func Fresh(requestTime, now time.Time, window time.Duration) bool {
	return !requestTime.Before(now.Add(-window)) && !requestTime.After(now.Add(window))
}
