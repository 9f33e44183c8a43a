// Package uks implements the Universal Key Scheme.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package uks_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/uks"
)

func TestHexRoundTrip(t *testing.T) {
	id := new(big.Int)
	uks.GenKey(id, 0xdeadbeefcafe, 42, 7, 0x123456)

	hex := uks.KeyToString(id)
	assert.Len(t, hex, 40)
	assert.Equal(t, strings.ToUpper(hex), hex)

	back, err := uks.StringToKey(hex)
	require.NoError(t, err)
	assert.Zero(t, id.Cmp(back), "bn -> hex -> bn must be the identity")
}

func TestKeyFieldsSurvive(t *testing.T) {
	id := new(big.Int)
	uks.GenKeyRaw(id, 0xabcdef, 0x1122334455667788, 0x99aabbcc, 0xdd, 0x654321)

	// read each field back through the bit accessors
	assert.EqualValues(t, 0xabcdef, uks.HashGet(id))

	// regenerating with mask 0 keeps every payload field and recomputes the
	// hash over them
	check := new(big.Int).Set(id)
	uks.GenKeyExt(check, 0, 0, 0, 0, 0)
	again := new(big.Int).Set(check)
	uks.GenKeyExt(again, 0, 0, 0, 0, 0)
	assert.Zero(t, check.Cmp(again), "hash is a pure function of the payload")
}

func TestHashSetGet(t *testing.T) {
	id := new(big.Int)
	uks.GenKey(id, 1, 2, 3, 4)

	require.NoError(t, uks.HashSet(id, 0x00feed))
	assert.EqualValues(t, 0x00feed, uks.HashGet(id))

	assert.Error(t, uks.HashSet(id, 1<<uks.HashNBits))
}

func TestReplicaAndClass(t *testing.T) {
	id := new(big.Int)
	uks.GenKey(id, 1, 2, 3, 4)
	hashBefore := uks.HashGet(id)

	require.NoError(t, uks.SetReplica(id, 5))
	assert.Equal(t, 5, uks.GetReplica(id))
	assert.Error(t, uks.SetReplica(id, 16))

	require.NoError(t, uks.SetClass(id, 2))

	// replica and class are outside the hashed payload
	assert.EqualValues(t, hashBefore, uks.HashGet(id))
}

func TestGenKeyDeterministic(t *testing.T) {
	a, b := new(big.Int), new(big.Int)
	uks.GenKey(a, 77, 88, 99, 11)
	uks.GenKey(b, 77, 88, 99, 11)
	assert.Zero(t, a.Cmp(b))

	c := new(big.Int)
	uks.GenKey(c, 78, 88, 99, 11)
	assert.NotZero(t, a.Cmp(c))
}

func TestStringToKeyRejectsGarbage(t *testing.T) {
	_, err := uks.StringToKey("not-hex")
	assert.Error(t, err)

	// 41 hex digits exceed 160 bits
	_, err = uks.StringToKey(strings.Repeat("F", 41))
	assert.Error(t, err)
}

func TestLeftZeroPadding(t *testing.T) {
	id := big.NewInt(0x42)
	hex := uks.KeyToString(id)
	assert.Len(t, hex, 40)
	assert.True(t, strings.HasPrefix(hex, "00000000"))
	assert.True(t, strings.HasSuffix(hex, "42"))
}
