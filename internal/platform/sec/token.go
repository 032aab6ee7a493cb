// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSessionToken returns a random alphanumeric token of length n drawn
// from a CSPRNG without modulo bias.
func GenerateSessionToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("sec: invalid token length %d", n)
	}

	alphabetSize := big.NewInt(int64(len(tokenAlphabet)))
	token := make([]byte, n)

	for i := range token {
		index, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("sec: failed to read random source: %w", err)
		}
		token[i] = tokenAlphabet[index.Int64()]
	}

	return string(token), nil
}
