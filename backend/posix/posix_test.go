// Package posix implements the local-filesystem backend.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package posix

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
)

func newTestCtx(t *testing.T) *core.Ctx {
	prof := &core.Profile{
		Backend:  Name,
		BasePath: t.TempDir(),
	}
	require.NoError(t, prof.Validate())
	c, err := core.NewCtx(prof)
	require.NoError(t, err)
	return c
}

// xattrSupported probes the test filesystem once; metadata assertions are
// skipped where user xattrs are unavailable.
func xattrSupported(t *testing.T, dir string) bool {
	probe := filepath.Join(dir, ".xattr-probe")
	require.NoError(t, os.WriteFile(probe, nil, 0o644))
	err := unix.Setxattr(probe, xattrPrefix+"probe", []byte("1"), 0)
	os.Remove(probe)
	return err == nil
}

func TestPutHeadGetRoundTrip(t *testing.T) {
	var (
		b    = &backend{}
		c    = newTestCtx(t)
		gctx = context.Background()
		data = make([]byte, 1024) // zero bytes
	)
	md := dict.New(13)
	md.Add("a", "1", false)

	withXattr := xattrSupported(t, c.Profile().BasePath)
	if !withXattr {
		t.Log("user xattrs unsupported here; metadata assertions skipped")
		md = nil
	}

	_, err := b.Put(gctx, c, "", "/o", "", nil, cmn.FTypeReg, nil, nil, md, nil, data)
	require.NoError(t, err)

	gotMD, sysmd, _, err := b.Head(gctx, c, "", "/o", "", nil, cmn.FTypeUndef, nil)
	require.NoError(t, err)
	require.True(t, sysmd.Has(cmn.SysMDMaskSize))
	assert.EqualValues(t, 1024, sysmd.Size)
	assert.Equal(t, cmn.FTypeReg, sysmd.FType)
	if withXattr {
		assert.Equal(t, "1", gotMD.GetValue("a"))
	}

	gotData, _, _, _, err := b.Get(gctx, c, "", "/o", "", nil, cmn.FTypeReg, nil, nil)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, gotData))
}

func TestGetRange(t *testing.T) {
	var (
		b    = &backend{}
		c    = newTestCtx(t)
		gctx = context.Background()
	)
	_, err := b.Put(gctx, c, "", "/o", "", nil, cmn.FTypeReg, nil, nil, nil, nil,
		[]byte("0123456789"))
	require.NoError(t, err)

	data, _, _, _, err := b.Get(gctx, c, "", "/o", "", nil, cmn.FTypeReg, nil,
		&cmn.Range{Start: 2, End: 5})
	require.NoError(t, err)
	assert.Equal(t, "2345", string(data))
}

func TestInvertedRangeRejected(t *testing.T) {
	var (
		b    = &backend{}
		c    = newTestCtx(t)
		gctx = context.Background()
	)
	_, err := b.Put(gctx, c, "", "/o", "", nil, cmn.FTypeReg, nil,
		&cmn.Range{Start: 5, End: 2}, nil, nil, []byte("x"))
	assert.Equal(t, cmn.EInval, cmn.StatusOf(err))

	_, _, _, _, err = b.Get(gctx, c, "", "/o", "", nil, cmn.FTypeReg, nil,
		&cmn.Range{Start: 5, End: 2})
	assert.Equal(t, cmn.EInval, cmn.StatusOf(err))
}

func TestRangedWrite(t *testing.T) {
	var (
		b    = &backend{}
		c    = newTestCtx(t)
		gctx = context.Background()
	)
	_, err := b.Put(gctx, c, "", "/o", "", nil, cmn.FTypeReg, nil, nil, nil, nil,
		[]byte("0123456789"))
	require.NoError(t, err)

	_, err = b.Put(gctx, c, "", "/o", "", nil, cmn.FTypeReg, nil,
		&cmn.Range{Start: 2, End: 4}, nil, nil, []byte("XYZ"))
	require.NoError(t, err)

	data, _, _, _, err := b.Get(gctx, c, "", "/o", "", nil, cmn.FTypeReg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "01XYZ56789", string(data))
}

func TestBucketsAndListing(t *testing.T) {
	var (
		b    = &backend{}
		c    = newTestCtx(t)
		gctx = context.Background()
	)
	require.NoError(t, b.MakeBucket(gctx, c, "bk", nil, nil))

	_, err := b.Put(gctx, c, "bk", "/x", "", nil, cmn.FTypeReg, nil, nil, nil, nil, []byte("1"))
	require.NoError(t, err)
	_, err = b.Put(gctx, c, "bk", "/sub", "", nil, cmn.FTypeDir, nil, nil, nil, nil, nil)
	require.NoError(t, err)

	objects, prefixes, err := b.ListBucket(gctx, c, "bk", "", "/", -1, nil)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "x", objects[0].Path)
	assert.Equal(t, []string{"sub/"}, prefixes)

	// non-empty bucket cannot be removed
	err = b.DeleteBucket(gctx, c, "bk", nil)
	assert.Equal(t, cmn.ENotEmpty, cmn.StatusOf(err))

	_, err = b.Delete(gctx, c, "bk", "/x", "", nil, cmn.FTypeUndef, nil)
	require.NoError(t, err)
	_, err = b.Delete(gctx, c, "bk", "/sub", "", nil, cmn.FTypeUndef, nil)
	require.NoError(t, err)
	require.NoError(t, b.DeleteBucket(gctx, c, "bk", nil))
}

func TestDeleteMissing(t *testing.T) {
	var (
		b    = &backend{}
		c    = newTestCtx(t)
		gctx = context.Background()
	)
	_, err := b.Delete(gctx, c, "", "/missing", "", nil, cmn.FTypeUndef, nil)
	assert.Equal(t, cmn.ENoEnt, cmn.StatusOf(err))
}

func TestCopyDirectives(t *testing.T) {
	var (
		b    = &backend{}
		c    = newTestCtx(t)
		gctx = context.Background()
	)
	_, err := b.Put(gctx, c, "", "/src", "", nil, cmn.FTypeReg, nil, nil, nil, nil, []byte("abc"))
	require.NoError(t, err)

	_, err = b.Copy(gctx, c, "", "/src", "", "", "/dst", "", nil, cmn.FTypeReg,
		cmn.CopyDirectiveCopy, nil, nil, nil, nil)
	require.NoError(t, err)
	data, _, _, _, err := b.Get(gctx, c, "", "/dst", "", nil, cmn.FTypeReg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	_, err = b.Copy(gctx, c, "", "/dst", "", "", "/moved", "", nil, cmn.FTypeReg,
		cmn.CopyDirectiveMove, nil, nil, nil, nil)
	require.NoError(t, err)
	_, _, _, err = b.Head(gctx, c, "", "/dst", "", nil, cmn.FTypeUndef, nil)
	assert.Equal(t, cmn.ENoEnt, cmn.StatusOf(err))

	// dirent manipulation belongs to another protocol
	_, err = b.Copy(gctx, c, "", "/moved", "", "", "/x", "", nil, cmn.FTypeReg,
		cmn.CopyDirectiveMkdent, nil, nil, nil, nil)
	assert.Equal(t, cmn.ENotSupp, cmn.StatusOf(err))
}

func TestStreamRoundTrip(t *testing.T) {
	var (
		b    = &backend{}
		c    = newTestCtx(t)
		gctx = context.Background()
	)
	s := &core.Stream{Locator: "/streamed"}

	st1, err := b.StreamPut(gctx, c, s, []byte("hello "))
	require.NoError(t, err)
	s.Status = st1

	st2, err := b.StreamPut(gctx, c, s, []byte("world"))
	require.NoError(t, err)
	s.Status = st2

	// reopen at a resumed offset and read back
	rd := &core.Stream{Locator: "/streamed"}
	require.NoError(t, b.StreamResume(gctx, c, rd, []byte(`{"offset":6}`)))
	data, _, err := b.StreamGet(gctx, c, rd, 16)
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))

	_, sysmd, err := b.StreamGetMD(gctx, c, rd)
	require.NoError(t, err)
	assert.EqualValues(t, 11, sysmd.Size)
}

func TestStreamByIDUnsupported(t *testing.T) {
	var (
		b    = &backend{}
		c    = newTestCtx(t)
		gctx = context.Background()
	)
	s := &core.Stream{Locator: "AB", IsID: true}
	err := b.StreamResume(gctx, c, s, nil)
	assert.Equal(t, cmn.ENotSupp, cmn.StatusOf(err))
	_, _, err = b.StreamGet(gctx, c, s, 4)
	assert.Equal(t, cmn.ENotSupp, cmn.StatusOf(err))
}
