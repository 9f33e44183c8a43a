// Package uks implements the Universal Key Scheme: 160-bit structured
// object keys with replica, class, specific, service, volume, object-id and
// dispersion-hash fields, rendered as fixed-width uppercase hex.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package uks

import (
	"crypto/md5"
	"math/big"
	"strings"

	"github.com/NVIDIA/droplet/cmn"
)

// Field widths, low bits first: replica, class, specific, service, volume,
// object id, then the hash on top.
const (
	ReplicaNBits  = 4
	ClassNBits    = 4
	ExtraNBits    = ReplicaNBits + ClassNBits
	SpecificNBits = 24
	ServiceNBits  = 8
	VolIDNBits    = 32
	OIDNBits      = 64
	HashNBits     = 24

	PayloadNBits = ExtraNBits + SpecificNBits + ServiceNBits + VolIDNBits + OIDNBits
	KeyNBits     = PayloadNBits + HashNBits

	keyHexLen = KeyNBits / 4
)

// Mask selects which payload fields GenKeyExt overwrites; unset fields are
// read back from the key.
type Mask uint32

const (
	MaskOID Mask = 1 << iota
	MaskVolID
	MaskServiceID
	MaskSpecific
	MaskAll Mask = 0xffffffff
)

func setBits(id *big.Int, off, nbits int, v uint64) {
	for i := 0; i < nbits; i++ {
		if v&(1<<uint(i)) != 0 {
			id.SetBit(id, off+i, 1)
		} else {
			id.SetBit(id, off+i, 0)
		}
	}
}

func getBits(id *big.Int, off, nbits int) uint64 {
	var v uint64
	for i := 0; i < nbits; i++ {
		if id.Bit(off+i) == 1 {
			v |= 1 << uint(i)
		}
	}
	return v
}

// GenKeyRaw writes every payload field and the given hash verbatim.
func GenKeyRaw(id *big.Int, hash uint32, oid uint64, volid uint32, serviceid uint8, specific uint32) {
	id.SetInt64(0)
	off := ExtraNBits
	setBits(id, off, SpecificNBits, uint64(specific))
	off += SpecificNBits
	setBits(id, off, ServiceNBits, uint64(serviceid))
	off += ServiceNBits
	setBits(id, off, VolIDNBits, uint64(volid))
	off += VolIDNBits
	setBits(id, off, OIDNBits, oid)
	off += OIDNBits
	setBits(id, off, HashNBits, uint64(hash))
}

// GenKeyExt writes the payload fields selected by mask (reading the others
// back from the key), then computes the dispersion hash: the low HashNBits
// of MD5 over the payload fields.
func GenKeyExt(id *big.Int, mask Mask, oid uint64, volid uint32, serviceid uint8, specific uint32) {
	off := ExtraNBits
	entropy := make([]byte, PayloadNBits/8)

	fill := func(nbits int, v uint64) {
		for i := 0; i < nbits; i++ {
			bit := off + i
			ebit := bit - ExtraNBits
			if v&(1<<uint(i)) != 0 {
				id.SetBit(id, bit, 1)
				entropy[ebit/8] |= 1 << uint(ebit%8)
			} else {
				id.SetBit(id, bit, 0)
				entropy[ebit/8] &^= 1 << uint(ebit%8)
			}
		}
		off += nbits
	}

	if mask&MaskSpecific == 0 {
		specific = uint32(getBits(id, off, SpecificNBits))
	}
	fill(SpecificNBits, uint64(specific))

	if mask&MaskServiceID == 0 {
		serviceid = uint8(getBits(id, off, ServiceNBits))
	}
	fill(ServiceNBits, uint64(serviceid))

	if mask&MaskVolID == 0 {
		volid = uint32(getBits(id, off, VolIDNBits))
	}
	fill(VolIDNBits, uint64(volid))

	if mask&MaskOID == 0 {
		oid = getBits(id, off, OIDNBits)
	}
	fill(OIDNBits, oid)

	digest := md5.Sum(entropy)
	for i := 0; i < HashNBits; i++ {
		if digest[i/8]&(1<<uint(i%8)) != 0 {
			id.SetBit(id, PayloadNBits+i, 1)
		} else {
			id.SetBit(id, PayloadNBits+i, 0)
		}
	}
}

// GenKey writes every payload field and derives the hash.
func GenKey(id *big.Int, oid uint64, volid uint32, serviceid uint8, specific uint32) {
	GenKeyExt(id, MaskAll, oid, volid, serviceid, specific)
}

// HashGet reads the dispersion-hash field.
func HashGet(id *big.Int) uint32 {
	return uint32(getBits(id, PayloadNBits, HashNBits))
}

// HashSet overwrites the dispersion-hash field.
func HashSet(id *big.Int, hash uint32) error {
	if hash >= 1<<HashNBits {
		return cmn.Err(cmn.Failure)
	}
	setBits(id, PayloadNBits, HashNBits, uint64(hash))
	return nil
}

// SetReplica writes the replica index field.
func SetReplica(id *big.Int, replica int) error {
	if replica < 0 || replica >= 1<<ReplicaNBits {
		return cmn.Err(cmn.Failure)
	}
	setBits(id, 0, ReplicaNBits, uint64(replica))
	return nil
}

// GetReplica reads the replica index field.
func GetReplica(id *big.Int) int {
	return int(getBits(id, 0, ReplicaNBits))
}

// SetClass writes the class field.
func SetClass(id *big.Int, class int) error {
	if class < 0 || class >= 1<<ClassNBits {
		return cmn.Err(cmn.Failure)
	}
	setBits(id, ReplicaNBits, ClassNBits, uint64(class))
	return nil
}

// KeyToString renders a key as fixed-width uppercase hex, zero-padded on
// the left.
func KeyToString(id *big.Int) string {
	hex := strings.ToUpper(id.Text(16))
	if len(hex) < keyHexLen {
		hex = strings.Repeat("0", keyHexLen-len(hex)) + hex
	}
	return hex
}

// StringToKey parses a fixed-width hex key.
func StringToKey(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(s, 16)
	if !ok || id.Sign() < 0 {
		return nil, cmn.Errf(cmn.EInval, "bad uks key %q", s)
	}
	if id.BitLen() > KeyNBits {
		return nil, cmn.Errf(cmn.EInval, "uks key too wide %q", s)
	}
	return id, nil
}
