// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vehicles/internal/platform/sec"
)

func newPair(t *testing.T) *sec.KeyPair {
	t.Helper()
	pair, err := sec.GenerateKeyPair(1024)
	require.NoError(t, err)
	return pair
}

/*
TestKeyPair_RoundTrip verifies that a client-side ciphertext decrypts to the same payload.
*/
func TestKeyPair_RoundTrip(t *testing.T) {
	pair := newPair(t)
	payload := []byte(`{"session":"pJvBP7E2on0GHwQ05MhLBoqwIbdsGsPb","timestamp":1700000000000}`)

	ciphertext, err := pair.Encrypt(payload)
	require.NoError(t, err)

	plaintext, err := pair.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, payload, plaintext)
}

/*
TestKeyPair_Decrypt_Failures maps every malformed input onto ErrDecryption.
*/
func TestKeyPair_Decrypt_Failures(t *testing.T) {
	pair := newPair(t)
	other := newPair(t)

	foreign, err := other.Encrypt([]byte("hello"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		ciphertext string
	}{
		{"empty", ""},
		{"not_base64", "%%%not-base64%%%"},
		{"wrong_length", base64.StdEncoding.EncodeToString([]byte("short"))},
		{"other_key", foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pair.Decrypt(tt.ciphertext)
			assert.ErrorIs(t, err, sec.ErrDecryption)
		})
	}
}

/*
TestKeyPair_Decrypt_UnpaddedBase64 accepts ciphertexts whose padding was stripped in transit.
*/
func TestKeyPair_Decrypt_UnpaddedBase64(t *testing.T) {
	pair := newPair(t)

	ciphertext, err := pair.Encrypt([]byte("payload"))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	require.NoError(t, err)

	plaintext, err := pair.Decrypt(base64.RawURLEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(plaintext))
}

/*
TestLoadKeyPair reads keys from disk, with and without an explicit public key file.
*/
func TestLoadKeyPair(t *testing.T) {
	pair := newPair(t)
	dir := t.TempDir()

	privatePEM, err := pair.PrivateKeyPEM()
	require.NoError(t, err)

	privatePath := filepath.Join(dir, "rsa_private_key.pem")
	publicPath := filepath.Join(dir, "rsa_public_key.pem")
	require.NoError(t, os.WriteFile(privatePath, privatePEM, 0o600))
	require.NoError(t, os.WriteFile(publicPath, []byte(pair.PublicKeyPEM()), 0o644))

	t.Run("with_public_key", func(t *testing.T) {
		loaded, err := sec.LoadKeyPair(privatePath, publicPath)
		require.NoError(t, err)
		assert.Equal(t, pair.PublicKeyPEM(), loaded.PublicKeyPEM())

		ciphertext, err := pair.Encrypt([]byte("x"))
		require.NoError(t, err)
		plaintext, err := loaded.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, "x", string(plaintext))
	})

	t.Run("derived_public_key", func(t *testing.T) {
		loaded, err := sec.LoadKeyPair(privatePath, "")
		require.NoError(t, err)
		assert.Equal(t, pair.PublicKeyPEM(), loaded.PublicKeyPEM())
		assert.Contains(t, loaded.PublicKeyPEM(), "BEGIN PUBLIC KEY")
	})

	t.Run("mismatched_public_key", func(t *testing.T) {
		otherPath := filepath.Join(dir, "other_public_key.pem")
		require.NoError(t, os.WriteFile(otherPath, []byte(newPair(t).PublicKeyPEM()), 0o644))

		_, err := sec.LoadKeyPair(privatePath, otherPath)
		assert.Error(t, err)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := sec.LoadKeyPair(filepath.Join(dir, "absent.pem"), "")
		assert.Error(t, err)
	})
}
