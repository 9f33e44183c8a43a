// Package ntinydb encodes and decodes the length-prefixed (key, value)
// blob carried by the Scality backends.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package ntinydb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/ntinydb"
)

func TestAppendLayout(t *testing.T) {
	blob := ntinydb.Append(nil, "k1", []byte("v1"))
	expected := []byte{
		0, 0, 0, 2, 'k', '1', 0, 0, // klen, key, pad
		0, 0, 0, 2, 'v', '1', 0, 0, // vlen, value, pad
	}
	assert.Equal(t, expected, blob)
}

func TestRoundTrip(t *testing.T) {
	blob := ntinydb.Append(nil, "color", []byte("blue"))
	blob = ntinydb.Append(blob, "size", []byte("1024"))
	blob = ntinydb.Append(blob, "empty", nil)

	got := map[string]string{}
	var order []string
	err := ntinydb.Decode(blob, func(key string, value []byte) error {
		got[key] = string(value)
		order = append(order, key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"color": "blue", "size": "1024", "empty": ""}, got)
	assert.Equal(t, []string{"color", "size", "empty"}, order)
}

func TestGet(t *testing.T) {
	blob := ntinydb.Append(nil, "a", []byte("1"))
	blob = ntinydb.Append(blob, "b", []byte("2"))

	v, ok, err := ntinydb.Get(blob, "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("2"), v)

	_, ok, err = ntinydb.Get(blob, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTruncated(t *testing.T) {
	blob := ntinydb.Append(nil, "k1", []byte("v1"))
	err := ntinydb.Decode(blob[:len(blob)-3], func(string, []byte) error { return nil })
	assert.Equal(t, cmn.EInval, cmn.StatusOf(err))

	err = ntinydb.Decode([]byte{0, 0}, func(string, []byte) error { return nil })
	assert.Equal(t, cmn.EInval, cmn.StatusOf(err))
}
