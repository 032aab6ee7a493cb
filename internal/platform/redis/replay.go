// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	stdctx "context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/vehicles/internal/platform/constants"
)

// ReplayGuard remembers presented session parameters for a short time.
//
// A parameter can be claimed once; a second claim before the TTL elapses
// reports false.
type ReplayGuard struct {
	client redis.Cmdable
}

// NewReplayGuard creates a guard backed by client.
func NewReplayGuard(client redis.Cmdable) *ReplayGuard {
	return &ReplayGuard{client: client}
}

// Claim records value and reports whether it was seen for the first time.
func (guard *ReplayGuard) Claim(context stdctx.Context, value string, ttl time.Duration) (bool, error) {
	claimed, err := guard.client.SetNX(context, ReplayKey(value), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: replay claim failed: %w", err)
	}
	return claimed, nil
}

// ReplayKey derives the storage key for value. Ciphertexts are hashed so key
// length stays fixed.
func ReplayKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return constants.RedisPrefixReplay + hex.EncodeToString(sum[:])
}
