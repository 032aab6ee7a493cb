// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for the stored password digest.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// PasswordDigest derives the value stored in the `password` field.
//
// The digest is deterministic for a given (pepper, account, password) so the
// login filter can match on it directly. The salt is bound to the account,
// which keeps equal passwords of different accounts apart.
func PasswordDigest(pepper, account, password string) string {
	salt := sha256.Sum256([]byte(pepper + "\x00" + account))
	key := argon2.IDKey([]byte(password), salt[:], argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(key)
}
