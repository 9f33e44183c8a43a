// Package droplet is a client library for cloud and object storage systems:
// one object-storage API over S3-compatible REST, CDMI, Scality sproxyd and
// SRWS, OpenStack Swift, and the local POSIX filesystem.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package droplet

import (
	"context"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
	"github.com/NVIDIA/droplet/stats"
)

// Stream is a cursor over one object with an opaque, resumable status
// token. A stream is used for either reading or writing, not both; a failed
// Get or Put leaves the stream valid for Resume at the last good status.
type Stream struct {
	ctx *Ctx
	s   *core.Stream
}

// OpenStream binds a stream to (bucket, locator) and snapshots the
// per-stream options, condition, and metadata.
func (ctx *Ctx) OpenStream(bucket, locator string, isID bool, opt *cmn.Option,
	cond *cmn.Condition, md *dict.Dict, sysmd *cmn.SysMD) *Stream {
	ctx.c.Trace(cmn.TraceREST, "stream_open bucket=%s locator=%s is_id=%v", bucket, locator, isID)
	s := &core.Stream{
		Bucket:  bucket,
		Locator: locator,
		IsID:    isID,
		Opt:     opt,
		Cond:    cond.Copy(),
		MD:      md.Copy(),
	}
	if sysmd != nil {
		cp := *sysmd
		s.SysMD = &cp
	}
	return &Stream{ctx: ctx, s: s}
}

// Status returns the current resume token.
func (st *Stream) Status() []byte {
	out := make([]byte, len(st.s.Status))
	copy(out, st.s.Status)
	return out
}

// Resume re-installs a previously extracted status token.
func (st *Stream) Resume(gctx context.Context, status []byte) error {
	return st.ctx.c.Backend().StreamResume(gctx, st.ctx.c, st.s, status)
}

// GetMD fetches the object's metadata without moving the cursor.
func (st *Stream) GetMD(gctx context.Context) (*dict.Dict, *cmn.SysMD, error) {
	md, sysmd, err := st.ctx.c.Backend().StreamGetMD(gctx, st.ctx.c, st.s)
	if err == nil {
		st.ctx.c.Event(stats.CategoryData, stats.OpGet, 0)
	}
	return md, sysmd, err
}

// Get reads up to n bytes at the cursor; on success the stream advances.
func (st *Stream) Get(gctx context.Context, n int) ([]byte, error) {
	data, status, err := st.ctx.c.Backend().StreamGet(gctx, st.ctx.c, st.s, n)
	if err != nil {
		return nil, err
	}
	st.s.Status = status
	st.ctx.c.Event(stats.CategoryData, stats.OpOut, int64(len(data)))
	return data, nil
}

// Put writes buf at the cursor; on success the stream advances.
func (st *Stream) Put(gctx context.Context, buf []byte) error {
	status, err := st.ctx.c.Backend().StreamPut(gctx, st.ctx.c, st.s, buf)
	if err != nil {
		return err
	}
	st.s.Status = status
	st.ctx.c.Event(stats.CategoryData, stats.OpIn, int64(len(buf)))
	return nil
}

// PutMD updates the object's metadata.
func (st *Stream) PutMD(gctx context.Context, md *dict.Dict) error {
	err := st.ctx.c.Backend().StreamPutMD(gctx, st.ctx.c, st.s, md)
	if err == nil {
		st.ctx.c.Event(stats.CategoryData, stats.OpPut, 0)
	}
	return err
}

// Flush asks the backend to persist buffered stream state; advisory.
func (st *Stream) Flush(gctx context.Context) error {
	return st.ctx.c.Backend().StreamFlush(gctx, st.ctx.c, st.s)
}

// Close releases the stream snapshots. The status token survives via
// Status for a later Resume on a fresh stream.
func (st *Stream) Close() {
	st.s.MD = nil
	st.s.SysMD = nil
	st.s.Opt = nil
}
