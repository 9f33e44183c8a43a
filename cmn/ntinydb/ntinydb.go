// Package ntinydb encodes and decodes the "ntinydb" blob: a sequence of
// length-prefixed (key, value) pairs, each length a big-endian u32 and each
// field padded to a 4-byte boundary. Scality backends carry user metadata as
// one base64-wrapped ntinydb blob in a single header.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package ntinydb

import (
	"encoding/binary"

	"github.com/NVIDIA/droplet/cmn"
)

func pad4(n int) int { return (4 - n%4) % 4 }

// Append encodes one (key, value) pair onto b and returns the extended blob.
func Append(b []byte, key string, value []byte) []byte {
	var lenbuf [4]byte

	binary.BigEndian.PutUint32(lenbuf[:], uint32(len(key)))
	b = append(b, lenbuf[:]...)
	b = append(b, key...)
	b = append(b, make([]byte, pad4(len(key)))...)

	binary.BigEndian.PutUint32(lenbuf[:], uint32(len(value)))
	b = append(b, lenbuf[:]...)
	b = append(b, value...)
	b = append(b, make([]byte, pad4(len(value)))...)
	return b
}

// Decode walks every (key, value) pair in the blob.
func Decode(b []byte, fn func(key string, value []byte) error) error {
	off := 0
	readField := func() ([]byte, error) {
		if off+4 > len(b) {
			return nil, cmn.Errf(cmn.EInval, "truncated ntinydb blob at %d", off)
		}
		n := int(binary.BigEndian.Uint32(b[off:]))
		off += 4
		if n < 0 || off+n > len(b) {
			return nil, cmn.Errf(cmn.EInval, "bad ntinydb field length %d", n)
		}
		field := b[off : off+n]
		off += n + pad4(n)
		return field, nil
	}
	for off < len(b) {
		key, err := readField()
		if err != nil {
			return err
		}
		value, err := readField()
		if err != nil {
			return err
		}
		if err := fn(string(key), value); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value bound to key, if present.
func Get(b []byte, key string) (value []byte, ok bool, err error) {
	err = Decode(b, func(k string, v []byte) error {
		if k == key && !ok {
			value, ok = v, true
		}
		return nil
	})
	return
}
