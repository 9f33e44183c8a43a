// Package cmn provides common low-level types and utilities shared by the
// droplet dispatch layer, transports, and backends.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"math/rand"

	"github.com/teris-io/shortid"
	"go.uber.org/atomic"
)

const (
	// Alphabet for generating request IDs similar to the shortid.DEFAULT_ABC
	// NOTE: len(uuidABC) > 0x3f - see GenTie()
	uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"
)

var (
	sid  *shortid.Shortid
	rtie atomic.Int32
)

func init() {
	sid = shortid.MustNew(4 /*worker*/, uuidABC, uint64(rand.Int63()))
}

// GenRequestID generates unique and human-readable per-request trace IDs.
func GenRequestID() (rid string) {
	var h, t string
	rid = sid.MustGenerate()
	if !isAlpha(rid[0]) {
		h = string(rune('A' + rand.Int()%26))
	}
	c := rid[len(rid)-1]
	if c == '-' || c == '_' {
		t = string(rune('a' + rand.Int()%26))
	}
	return h + rid + t
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// GenTie produces a short non-repeating tie-breaker for temp file names.
func GenTie() string {
	tie := rtie.Add(1)
	b0 := uuidABC[tie&0x3f]
	b1 := uuidABC[-tie&0x3f]
	b2 := uuidABC[(tie>>2)&0x3f]
	return string([]byte{b0, b1, b2})
}
