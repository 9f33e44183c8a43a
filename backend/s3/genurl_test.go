// Package s3 implements the S3-compatible REST backend.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package s3

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
	"github.com/NVIDIA/droplet/req"
)

func TestGenURL(t *testing.T) {
	prof := &core.Profile{
		Host:      "127.0.0.1:9000",
		Backend:   Name,
		AccessKey: "AK",
		SecretKey: "SK",
		KeepAlive: true,
	}
	require.NoError(t, prof.Validate())
	c, err := core.NewCtx(prof)
	require.NoError(t, err)

	expires := time.Unix(1700000000, 0)
	url, err := genURL(c, "b", "/o", "", expires)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/b/o?"), "got %s", url)
	assert.Contains(t, url, "AWSAccessKeyId=AK")
	assert.Contains(t, url, "Expires=1700000000")

	// the signature covers the Expires epoch in place of the date line
	sigStart := strings.Index(url, "Signature=") + len("Signature=")
	sigEnd := strings.Index(url[sigStart:], "&") + sigStart
	gotSig := url[sigStart:sigEnd]

	headers := dict.New(3)
	headers.Add("Expires", strconv.FormatInt(expires.Unix(), 10), false)
	canonical := req.MakeSignature("GET", "b", "/o", "", headers)
	assert.Equal(t, req.URLEncode(req.Sign("SK", canonical)), gotSig)
}
