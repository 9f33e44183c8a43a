// Package posix implements the local-filesystem backend: objects are files
// under the context base path, user metadata lives in user.droplet.* xattrs,
// system metadata comes from stat. No HTTP, no signing, no connection pool:
// the vtable contract exercised against a completely different strategy.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package posix

import (
	"context"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
)

var js = jsoniter.ConfigCompatibleWithStandardLibrary

// streamStatus is the resume token: the byte offset of the cursor.
type streamStatus struct {
	Offset int64 `json:"offset"`
}

func statusOf(s *core.Stream) (streamStatus, error) {
	var st streamStatus
	if len(s.Status) == 0 {
		return st, nil
	}
	if err := js.Unmarshal(s.Status, &st); err != nil {
		return st, cmn.ErrWrap(cmn.EInval, err, "stream status")
	}
	return st, nil
}

func marshalStatus(st streamStatus) []byte {
	out, _ := js.Marshal(st)
	return out
}

func (b *backend) streamPath(c *core.Ctx, s *core.Stream) (string, error) {
	if s.IsID {
		// id-addressed streams have no meaning on a filesystem
		return "", cmn.Err(cmn.ENotSupp)
	}
	return pathOf(c, s.Bucket, s.Locator), nil
}

func (b *backend) StreamResume(ctx context.Context, c *core.Ctx, s *core.Stream, status []byte) error {
	if s.IsID {
		return cmn.Err(cmn.ENotSupp)
	}
	var st streamStatus
	if len(status) > 0 {
		if err := js.Unmarshal(status, &st); err != nil {
			return cmn.ErrWrap(cmn.EInval, err, "stream status")
		}
	}
	s.Status = marshalStatus(st)
	return nil
}

func (b *backend) StreamGetMD(ctx context.Context, c *core.Ctx, s *core.Stream) (
	*dict.Dict, *cmn.SysMD, error) {
	path, err := b.streamPath(c, s)
	if err != nil {
		return nil, nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, cmn.ErrFromSyscall(err, "stat")
	}
	md, err := getXattrs(path)
	if err != nil {
		return nil, nil, err
	}
	return md, sysmdOfInfo(info), nil
}

func (b *backend) StreamGet(ctx context.Context, c *core.Ctx, s *core.Stream, n int) (
	[]byte, []byte, error) {
	path, err := b.streamPath(c, s)
	if err != nil {
		return nil, nil, err
	}
	st, err := statusOf(s)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, cmn.ErrFromSyscall(err, "open")
	}
	defer f.Close()

	buf := make([]byte, n)
	cc, err := f.ReadAt(buf, st.Offset)
	if err != nil && err != io.EOF {
		return nil, nil, cmn.ErrFromSyscall(err, "pread")
	}
	st.Offset += int64(cc)
	return buf[:cc], marshalStatus(st), nil
}

func (b *backend) StreamPut(ctx context.Context, c *core.Ctx, s *core.Stream, data []byte) (
	[]byte, error) {
	path, err := b.streamPath(c, s)
	if err != nil {
		return nil, err
	}
	st, err := statusOf(s)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, cmn.ErrFromSyscall(err, "open")
	}
	defer f.Close()

	if _, err := f.WriteAt(data, st.Offset); err != nil {
		return nil, cmn.ErrFromSyscall(err, "pwrite")
	}
	if st.Offset == 0 && s.MD.Count() > 0 {
		if err := setXattrs(path, s.MD); err != nil {
			return nil, err
		}
	}
	st.Offset += int64(len(data))
	return marshalStatus(st), nil
}

func (b *backend) StreamPutMD(ctx context.Context, c *core.Ctx, s *core.Stream, md *dict.Dict) error {
	path, err := b.streamPath(c, s)
	if err != nil {
		return err
	}
	return setXattrs(path, md)
}

func (b *backend) StreamFlush(ctx context.Context, c *core.Ctx, s *core.Stream) error {
	path, err := b.streamPath(c, s)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		return cmn.ErrFromSyscall(err, "open")
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return cmn.ErrFromSyscall(err, "fsync")
	}
	return nil
}
