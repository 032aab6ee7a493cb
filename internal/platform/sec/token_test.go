// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vehicles/internal/platform/sec"
)

var alphanumeric = regexp.MustCompile(`^[A-Za-z0-9]{32}$`)

/*
TestGenerateSessionToken checks token shape and that tokens don't repeat.
*/
func TestGenerateSessionToken(t *testing.T) {
	seen := make(map[string]struct{}, 100)

	for i := 0; i < 100; i++ {
		token, err := sec.GenerateSessionToken(32)
		require.NoError(t, err)
		assert.Regexp(t, alphanumeric, token)

		_, duplicate := seen[token]
		assert.False(t, duplicate)
		seen[token] = struct{}{}
	}
}

func TestGenerateSessionToken_InvalidLength(t *testing.T) {
	_, err := sec.GenerateSessionToken(0)
	assert.Error(t, err)
}

/*
TestPasswordDigest verifies determinism and separation by account and pepper.
*/
func TestPasswordDigest(t *testing.T) {
	digest := sec.PasswordDigest("pepper", "driver01", "secret")

	assert.Len(t, digest, 64)
	assert.Equal(t, digest, sec.PasswordDigest("pepper", "driver01", "secret"))
	assert.NotEqual(t, digest, sec.PasswordDigest("pepper", "driver02", "secret"))
	assert.NotEqual(t, digest, sec.PasswordDigest("other", "driver01", "secret"))
	assert.NotEqual(t, digest, sec.PasswordDigest("pepper", "driver01", "Secret"))
	assert.NotContains(t, digest, "secret")
}
