// Package swift implements the OpenStack Swift backend.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package swift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/req"
)

func TestPutMetadataHeaders(t *testing.T) {
	r := req.New(cmn.MethodPut)
	r.Resource = "/c/o"
	r.ObjectType = cmn.FTypeReg
	r.SetData([]byte("abc"))
	r.AddMetadatum("color", "red")

	headers := dict.New(13)
	require.NoError(t, finishHeaders(r, headers, nil))
	assert.Equal(t, "3", headers.GetValue("Content-Length"))
	assert.Equal(t, "red", headers.GetValue("X-Object-Meta-color"))
}

func TestContainerMetadataHeaders(t *testing.T) {
	r := req.New(cmn.MethodPut)
	r.Resource = "/c"
	r.ObjectType = cmn.FTypeDir
	r.AddMetadatum("team", "infra")

	headers := dict.New(13)
	require.NoError(t, finishHeaders(r, headers, nil))
	assert.Equal(t, "infra", headers.GetValue("X-Container-Meta-team"))
}

func TestGetAccept(t *testing.T) {
	r := req.New(cmn.MethodGet)
	r.Resource = "/c/o"
	r.ObjectType = cmn.FTypeAny
	headers := dict.New(13)
	require.NoError(t, finishHeaders(r, headers, nil))
	assert.Equal(t, "*/*", headers.GetValue("Accept"))

	r2 := req.New(cmn.MethodGet)
	r2.Resource = "/c/o"
	headers2 := dict.New(13)
	require.NoError(t, finishHeaders(r2, headers2, nil))
	assert.Equal(t, "application/json", headers2.GetValue("Accept"))
}

func TestParseMetadataFromHeaders(t *testing.T) {
	headers := dict.New(13)
	headers.Add("X-Object-Meta-color", "blue", true)
	headers.Add("Content-Length", "7", true)
	headers.Add("ETag", "abc123", true)

	md, sysmd := parseMetadataFromHeaders(headers)
	assert.Equal(t, "blue", md.GetValue("color"))
	assert.EqualValues(t, 7, sysmd.Size)
	assert.Equal(t, "abc123", sysmd.ETag)
}

func TestParseObjectList(t *testing.T) {
	body := []byte(`[
		{"name": "a.txt", "bytes": 14, "hash": "h1", "last_modified": "2022-01-01T00:00:00.000000"},
		{"subdir": "photos/"},
		{"name": "b.txt", "bytes": 3, "hash": "h2", "last_modified": "2022-01-02T00:00:00.000000"}
	]`)
	objects, prefixes, err := parseObjectList(body)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "a.txt", objects[0].Path)
	assert.EqualValues(t, 14, objects[0].Size)
	assert.Equal(t, []string{"photos/"}, prefixes)
}

func TestParseContainerList(t *testing.T) {
	body := []byte(`[{"name": "c1"}, {"name": "c2"}]`)
	buckets, err := parseContainerList(body)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "c1", buckets[0].Name)
}
