// Package cdmi implements the CDMI backend: JSON object bodies in native
// mode, header-flattened metadata in HTTP-compat mode, CDMI object IDs, and
// ACE-based ACLs.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cdmi

import (
	"encoding/hex"
	"strings"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/core"
)

// CDMI object IDs are fixed-layout byte strings rendered as uppercase hex:
// a zero reserved byte, a 3-byte enterprise number, a zero byte, a 1-byte
// total length, two zero CRC bytes, then the opaque payload.
const objectIDHeaderLen = 8

type idScheme struct{}

// interface guard
var _ core.IDScheme = (*idScheme)(nil)

func (idScheme) Name() string { return "cdmi" }

func (idScheme) IDToString(enterpriseNumber uint32, opaque []byte) (string, error) {
	total := objectIDHeaderLen + len(opaque)
	if total > 0xff || enterpriseNumber > 0xffffff {
		return "", cmn.Err(cmn.EInval)
	}
	raw := make([]byte, 0, total)
	raw = append(raw, 0,
		byte(enterpriseNumber>>16), byte(enterpriseNumber>>8), byte(enterpriseNumber),
		0, byte(total), 0, 0)
	raw = append(raw, opaque...)
	return strings.ToUpper(hex.EncodeToString(raw)), nil
}

func (idScheme) StringToID(id string) (uint32, []byte, error) {
	raw, err := hex.DecodeString(id)
	if err != nil {
		return 0, nil, cmn.ErrWrap(cmn.EInval, err, "object id")
	}
	if len(raw) < objectIDHeaderLen || int(raw[5]) != len(raw) {
		return 0, nil, cmn.Errf(cmn.EInval, "bad object id %q", id)
	}
	en := uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	opaque := make([]byte, len(raw)-objectIDHeaderLen)
	copy(opaque, raw[objectIDHeaderLen:])
	return en, opaque, nil
}
