// Package srws implements the Scality RING web service backend.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package srws

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/cmn/ntinydb"
	"github.com/NVIDIA/droplet/req"
)

func TestPutHeaders(t *testing.T) {
	r := req.New(cmn.MethodPut)
	r.Resource = "/AB12"
	r.SetData([]byte("data"))
	r.AddMetadatum("owner", "me")

	headers, err := buildHeaders(r, nil, false)
	require.NoError(t, err)

	assert.Equal(t, "4", headers.GetValue("Content-Length"))
	assert.Equal(t, policyImmediate, headers.GetValue(headerReplicaPolicy))

	blob, err := base64.StdEncoding.DecodeString(headers.GetValue(headerUsermd))
	require.NoError(t, err)
	v, ok, err := ntinydb.Get(blob, "owner")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "me", string(v))
}

func TestLazyPolicy(t *testing.T) {
	r := req.New(cmn.MethodGet)
	r.Resource = "/AB12"
	opt := &cmn.Option{Mask: cmn.OptLazy}

	headers, err := buildHeaders(r, opt, false)
	require.NoError(t, err)
	assert.Equal(t, policyLazy, headers.GetValue(headerReplicaPolicy))
}

func TestMDOnly(t *testing.T) {
	r := req.New(cmn.MethodPut)
	r.Resource = "/AB12"
	r.AddMetadatum("k", "v")

	headers, err := buildHeaders(r, nil, true)
	require.NoError(t, err)
	assert.Equal(t, cmdUpdateUsermd, headers.GetValue(headerCmd))
}

func TestParseReplyHeaders(t *testing.T) {
	blob := ntinydb.Append(nil, "k", []byte("v"))
	headers := dict.New(13)
	headers.Add(headerUsermd, base64.StdEncoding.EncodeToString(blob), true)
	headers.Add("Content-Length", "10", true)

	md, sysmd, err := parseMetadataFromHeaders(headers)
	require.NoError(t, err)
	assert.Equal(t, "v", md.GetValue("k"))
	assert.EqualValues(t, 10, sysmd.Size)
}
