// Package droplet is a client library for cloud and object storage systems.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package droplet_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet"
	"github.com/NVIDIA/droplet/backend/posix"
	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
)

// redirBackend redirects the first Get and records the re-driven resource.
type redirBackend struct {
	core.Unsupported
	calls        int
	gotResource  string
	gotSubres    string
	alwaysBounce bool
}

func (*redirBackend) Name() string { return "redir-test" }

func (rb *redirBackend) Get(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, string, error) {
	rb.calls++
	if rb.calls == 1 || rb.alwaysBounce {
		return nil, nil, nil, "", cmn.ErrRedirect("https://h2/b/o?x=y")
	}
	rb.gotResource = resource
	rb.gotSubres = subresource
	return []byte("payload"), dict.New(3), &cmn.SysMD{}, "", nil
}

var testRedir = &redirBackend{}

func init() {
	core.Register(testRedir)
}

func newRedirCtx(t *testing.T) *droplet.Ctx {
	ctx, err := droplet.NewWithProfile(&core.Profile{Backend: "redir-test"})
	require.NoError(t, err)
	return ctx
}

func TestRedirectFollowedOnce(t *testing.T) {
	ctx := newRedirCtx(t)
	defer ctx.Close()
	testRedir.calls = 0
	testRedir.alwaysBounce = false

	data, _, _, err := ctx.Get(context.Background(), "", "/o", "", nil, cmn.FTypeReg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, 2, testRedir.calls)

	// the redirect URI was split into resource and subresource
	assert.Equal(t, "/b/o", testRedir.gotResource)
	assert.Equal(t, "x=y", testRedir.gotSubres)
}

func TestSecondRedirectFails(t *testing.T) {
	ctx := newRedirCtx(t)
	defer ctx.Close()
	testRedir.calls = 0
	testRedir.alwaysBounce = true

	_, _, _, err := ctx.Get(context.Background(), "", "/o", "", nil, cmn.FTypeReg, nil, nil)
	assert.Equal(t, cmn.ERedirect, cmn.StatusOf(err))
	assert.Equal(t, 2, testRedir.calls, "no infinite redirect loop")
}

func TestNotSupportedSurfaces(t *testing.T) {
	ctx := newRedirCtx(t)
	defer ctx.Close()

	err := ctx.Put(context.Background(), "", "/o", "", nil, cmn.FTypeReg, nil, nil, nil, nil, nil)
	assert.Equal(t, cmn.ENotSupp, cmn.StatusOf(err))

	_, err = ctx.GenURL(context.Background(), "b", "/o", "", nil, time.Now().Add(time.Hour))
	assert.Equal(t, cmn.ENotSupp, cmn.StatusOf(err))
}

func TestPosixEndToEnd(t *testing.T) {
	dir := t.TempDir()
	ctx, err := droplet.NewWithProfile(&core.Profile{
		Backend:  posix.Name,
		BasePath: dir,
	})
	require.NoError(t, err)
	defer ctx.Close()

	gctx := context.Background()
	body := []byte("end to end body")
	require.NoError(t, ctx.Put(gctx, "", "/obj", "", nil, cmn.FTypeReg, nil, nil, nil, nil, body))

	data, _, sysmd, err := ctx.Get(gctx, "", "/obj", "", nil, cmn.FTypeReg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, body, data)
	assert.EqualValues(t, len(body), sysmd.Size)

	events := ctx.Core().Events().NEvents()
	assert.True(t, events >= 2, "put and get must both be accounted")

	require.NoError(t, ctx.Delete(gctx, "", "/obj", "", nil, cmn.FTypeUndef, nil))
	_, _, err = ctx.Head(gctx, "", "/obj", "", nil, cmn.FTypeUndef, nil)
	assert.Equal(t, cmn.ENoEnt, cmn.StatusOf(err))
}

func TestPosixStreamSuspendResume(t *testing.T) {
	dir := t.TempDir()
	ctx, err := droplet.NewWithProfile(&core.Profile{
		Backend:  posix.Name,
		BasePath: dir,
	})
	require.NoError(t, err)
	defer ctx.Close()

	gctx := context.Background()
	w := ctx.OpenStream("", "/st", false, nil, nil, nil, nil)
	require.NoError(t, w.Put(gctx, []byte("part one ")))
	status := w.Status()
	w.Close()

	// a fresh stream picks up exactly where the suspended one stopped
	w2 := ctx.OpenStream("", "/st", false, nil, nil, nil, nil)
	require.NoError(t, w2.Resume(gctx, status))
	require.NoError(t, w2.Put(gctx, []byte("part two")))
	w2.Close()

	data, _, _, err := ctx.Get(gctx, "", "/st", "", nil, cmn.FTypeReg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "part one part two", string(data))

	r := ctx.OpenStream("", "/st", false, nil, nil, nil, nil)
	chunk, err := r.Get(gctx, 8)
	require.NoError(t, err)
	assert.Equal(t, "part one", string(chunk))
	chunk, err = r.Get(gctx, 64)
	require.NoError(t, err)
	assert.Equal(t, " part two", string(chunk))
}

func TestBackendName(t *testing.T) {
	ctx := newRedirCtx(t)
	defer ctx.Close()
	assert.Equal(t, "redir-test", ctx.BackendName())
}
