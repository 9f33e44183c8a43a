// Package sproxyd implements the Scality sproxyd backend.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package sproxyd

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

func TestPutUsermdHeader(t *testing.T) {
	r := req.New(cmn.MethodPut)
	r.Resource = "/proxy/chord/ABCD"
	r.SetData([]byte("payload"))
	r.AddMetadatum("k1", "v1")

	headers, err := buildHeaders(r, nil, false)
	require.NoError(t, err)

	usermd := headers.GetValue(headerUsermd)
	require.NotEmpty(t, usermd)
	blob, err := base64.StdEncoding.DecodeString(usermd)
	require.NoError(t, err)

	expected := []byte{
		0, 0, 0, 2, 'k', '1', 0, 0,
		0, 0, 0, 2, 'v', '1', 0, 0,
	}
	assert.Equal(t, expected, blob)
}

func TestMDOnlyCmd(t *testing.T) {
	r := req.New(cmn.MethodPut)
	r.Resource = "/proxy/chord/ABCD"
	r.AddMetadatum("k", "v")

	headers, err := buildHeaders(r, nil, true)
	require.NoError(t, err)
	assert.Equal(t, cmdUpdateUsermd, headers.GetValue(headerCmd))
	assert.Equal(t, "", headers.GetValue("Content-Length"))
}

func TestConsistentAndVersionOptions(t *testing.T) {
	r := req.New(cmn.MethodGet)
	r.Resource = "/proxy/chord/ABCD"

	opt := &cmn.Option{Mask: cmn.OptConsistent | cmn.OptForceVersion, ForceVersion: "7"}
	headers, err := buildHeaders(r, opt, false)
	require.NoError(t, err)
	assert.Equal(t, policyConsistent, headers.GetValue(headerReplicaPolicy))
	assert.Equal(t, cmdForceVersion, headers.GetValue(headerCmd))
	assert.Equal(t, "7", headers.GetValue(headerForceVersion))

	query := queryOf(&cmn.Option{Mask: cmn.OptExpectVersion, ExpectVersion: "9"})
	require.NotNil(t, query)
	assert.Equal(t, "9", query.GetValue("version"))
	assert.Nil(t, queryOf(nil))
}

func TestParseReplyHeaders(t *testing.T) {
	blob := ntinydb.Append(nil, "k1", []byte("v1"))
	blob = ntinydb.Append(blob, "k2", []byte("v2"))

	headers := dict.New(13)
	headers.Add(headerUsermd, base64.StdEncoding.EncodeToString(blob), true)
	headers.Add(headerSize, "2048", true)
	headers.Add(headerMTime, "1640995200", true)
	headers.Add(headerVersion, "3", true)
	headers.Add(headerCRC32, "cafebabe", true)

	md, sysmd, err := parseMetadataFromHeaders(headers)
	require.NoError(t, err)
	assert.Equal(t, "v1", md.GetValue("k1"))
	assert.Equal(t, "v2", md.GetValue("k2"))
	assert.EqualValues(t, 2048, sysmd.Size)
	assert.True(t, sysmd.Has(cmn.SysMDMaskMTime))
	assert.Equal(t, "3", sysmd.Version)
	assert.Equal(t, "cafebabe", sysmd.ETag, "crc32 doubles as the etag")
}

func TestIDSchemeRoundTrip(t *testing.T) {
	scheme := idScheme{}
	opaque := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	id, err := scheme.IDToString(42, opaque)
	require.NoError(t, err)
	assert.Len(t, id, 40, "uks keys render as fixed-width hex")

	en, gotOpaque, err := scheme.StringToID(id)
	require.NoError(t, err)
	assert.EqualValues(t, 42, en)
	assert.Equal(t, opaque, gotOpaque)

	id2, err := scheme.IDToString(en, gotOpaque)
	require.NoError(t, err)
	assert.Equal(t, id, id2)
}

func TestIDSchemeRejectsCorruptHash(t *testing.T) {
	scheme := idScheme{}
	id, err := scheme.IDToString(1, []byte{9})
	require.NoError(t, err)

	// flip a nibble of the object-id field without fixing the hash
	corrupt := []byte(id)
	if corrupt[20] == '0' {
		corrupt[20] = '1'
	} else {
		corrupt[20] = '0'
	}
	_, _, err = scheme.StringToID(string(corrupt))
	assert.Equal(t, cmn.EInval, cmn.StatusOf(err))
}
