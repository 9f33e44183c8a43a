// Package core holds the droplet context, the backend vtable contract, and
// the shared request-exchange plumbing.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/core"
)

func TestProfileSaveLoad(t *testing.T) {
	dir := t.TempDir()
	prof := &core.Profile{
		Host:      "127.0.0.1:8080",
		Backend:   "s3",
		BasePath:  "/",
		AccessKey: "AK",
		SecretKey: "SK",
		KeepAlive: true,
	}
	require.NoError(t, core.SaveProfile(dir, "test", prof))

	loaded, err := core.LoadProfile(dir, "test")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", loaded.Host)
	assert.Equal(t, "s3", loaded.Backend)
	assert.Equal(t, "AK", loaded.AccessKey)
	assert.True(t, loaded.KeepAlive)
	assert.Equal(t, "80", loaded.Port, "default port applied on load")
	assert.Equal(t, dir, loaded.DropletDir)
}

func TestProfileValidate(t *testing.T) {
	p := &core.Profile{}
	err := p.Validate()
	assert.Equal(t, cmn.EInval, cmn.StatusOf(err))

	p = &core.Profile{Backend: "s3", UseHTTPS: true}
	require.NoError(t, p.Validate())
	assert.Equal(t, "443", p.Port)
	assert.Equal(t, "/", p.BasePath)
	assert.Equal(t, 10, p.BlacklistExpire)
}

func TestLoadProfileMissing(t *testing.T) {
	_, err := core.LoadProfile(t.TempDir(), "absent")
	assert.Equal(t, cmn.ENoEnt, cmn.StatusOf(err))
}
