// Package sproxyd implements the Scality sproxyd backend: id-addressed
// objects under the proxy base path, user metadata as one base64-wrapped
// ntinydb header, and version/consistency control headers.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package sproxyd

import (
	"math/big"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/core"
	"github.com/NVIDIA/droplet/uks"
)

// idScheme maps sproxyd's UKS keys onto the generic id interface: the
// enterprise number rides the service-id field, the opaque bytes the
// object-id field.
type idScheme struct{}

// interface guard
var _ core.IDScheme = (*idScheme)(nil)

func (idScheme) Name() string { return "uks" }

func (idScheme) IDToString(enterpriseNumber uint32, opaque []byte) (string, error) {
	if len(opaque) > uks.OIDNBits/8 || enterpriseNumber >= 1<<uks.ServiceNBits {
		return "", cmn.Err(cmn.EInval)
	}
	var oid uint64
	for _, b := range opaque {
		oid = oid<<8 | uint64(b)
	}
	id := new(big.Int)
	uks.GenKey(id, oid, 0, uint8(enterpriseNumber), 0)
	return uks.KeyToString(id), nil
}

func (idScheme) StringToID(s string) (uint32, []byte, error) {
	id, err := uks.StringToKey(s)
	if err != nil {
		return 0, nil, err
	}
	// verify the dispersion hash before trusting the payload
	check := new(big.Int).Set(id)
	uks.GenKeyExt(check, 0, 0, 0, 0, 0)
	if uks.HashGet(check) != uks.HashGet(id) {
		return 0, nil, cmn.Errf(cmn.EInval, "uks hash mismatch in %q", s)
	}
	var (
		en     uint32
		opaque = make([]byte, uks.OIDNBits/8)
	)
	tmp := new(big.Int).Set(id)
	tmp.Rsh(tmp, uks.ExtraNBits+uks.SpecificNBits)
	en = uint32(tmp.Uint64() & ((1 << uks.ServiceNBits) - 1))
	tmp.Rsh(tmp, uks.ServiceNBits+uks.VolIDNBits)
	oid := tmp.Uint64() & ^uint64(0)
	for i := len(opaque) - 1; i >= 0; i-- {
		opaque[i] = byte(oid)
		oid >>= 8
	}
	return en, opaque, nil
}
