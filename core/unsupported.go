// Package core holds the droplet context, the backend vtable contract, and
// the shared request-exchange plumbing that every HTTP backend drives.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"context"
	"time"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
)

// Unsupported declines every verb with ENotSupp; backends embed it and
// override what their protocol supports. "Not supported" is a first-class
// outcome, not an error in the backend.
type Unsupported struct{}

func notSupp() error { return cmn.Err(cmn.ENotSupp) }

func (Unsupported) Capabilities(*Ctx) (cmn.Capability, error) { return 0, notSupp() }
func (Unsupported) Login(context.Context, *Ctx) error         { return notSupp() }
func (Unsupported) GetIDScheme(*Ctx) (IDScheme, error)        { return nil, notSupp() }

func (Unsupported) ListAllMyBuckets(context.Context, *Ctx, *cmn.Option) ([]*cmn.BucketInfo, error) {
	return nil, notSupp()
}

func (Unsupported) MakeBucket(context.Context, *Ctx, string, *cmn.Option, *cmn.SysMD) error {
	return notSupp()
}

func (Unsupported) ListBucket(context.Context, *Ctx, string, string, string, int, *cmn.Option) (
	[]*cmn.ObjectInfo, []string, error) {
	return nil, nil, notSupp()
}

func (Unsupported) ListBucketAttrs(context.Context, *Ctx, string, string, string, int, *cmn.Option) (
	*dict.Dict, *cmn.SysMD, []*cmn.ObjectInfo, []string, error) {
	return nil, nil, nil, nil, notSupp()
}

func (Unsupported) DeleteBucket(context.Context, *Ctx, string, *cmn.Option) error {
	return notSupp()
}

func (Unsupported) Put(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType, *cmn.Condition, *cmn.Range, *dict.Dict, *cmn.SysMD, []byte) (string, error) {
	return "", notSupp()
}

func (Unsupported) PutID(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType, *cmn.Condition, *cmn.Range, *dict.Dict, *cmn.SysMD, []byte) (string, error) {
	return "", notSupp()
}

func (Unsupported) Post(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType, *dict.Dict, *cmn.SysMD, []byte, *dict.Dict) (*cmn.SysMD, string, error) {
	return nil, "", notSupp()
}

func (Unsupported) PostID(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType, *dict.Dict, *cmn.SysMD, []byte, *dict.Dict) (*cmn.SysMD, string, error) {
	return nil, "", notSupp()
}

func (Unsupported) Get(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType, *cmn.Condition, *cmn.Range) ([]byte, *dict.Dict, *cmn.SysMD, string, error) {
	return nil, nil, nil, "", notSupp()
}

func (Unsupported) GetID(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType, *cmn.Condition, *cmn.Range) ([]byte, *dict.Dict, *cmn.SysMD, string, error) {
	return nil, nil, nil, "", notSupp()
}

func (Unsupported) Head(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType, *cmn.Condition) (*dict.Dict, *cmn.SysMD, string, error) {
	return nil, nil, "", notSupp()
}

func (Unsupported) HeadID(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType, *cmn.Condition) (*dict.Dict, *cmn.SysMD, string, error) {
	return nil, nil, "", notSupp()
}

func (Unsupported) HeadRaw(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType) (*dict.Dict, string, error) {
	return nil, "", notSupp()
}

func (Unsupported) HeadIDRaw(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType) (*dict.Dict, string, error) {
	return nil, "", notSupp()
}

func (Unsupported) Delete(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType, *cmn.Condition) (string, error) {
	return "", notSupp()
}

func (Unsupported) DeleteID(context.Context, *Ctx, string, string, string, *cmn.Option,
	cmn.FType, *cmn.Condition) (string, error) {
	return "", notSupp()
}

func (Unsupported) DeleteAll(context.Context, *Ctx, string, []string, *cmn.Option) (
	[]cmn.DeleteResult, error) {
	return nil, notSupp()
}

func (Unsupported) DeleteAllID(context.Context, *Ctx, string, []string, *cmn.Option) (
	[]cmn.DeleteResult, error) {
	return nil, notSupp()
}

func (Unsupported) Copy(context.Context, *Ctx, string, string, string, string, string, string,
	*cmn.Option, cmn.FType, cmn.CopyDirective, *dict.Dict, *cmn.SysMD,
	*cmn.Condition, *cmn.Condition) (string, error) {
	return "", notSupp()
}

func (Unsupported) CopyID(context.Context, *Ctx, string, string, string, string, string, string,
	*cmn.Option, cmn.FType, cmn.CopyDirective, *dict.Dict, *cmn.SysMD,
	*cmn.Condition, *cmn.Condition) (string, error) {
	return "", notSupp()
}

func (Unsupported) GenURL(context.Context, *Ctx, string, string, string, *cmn.Option, time.Time) (
	string, error) {
	return "", notSupp()
}

func (Unsupported) StreamResume(context.Context, *Ctx, *Stream, []byte) error { return notSupp() }

func (Unsupported) StreamGetMD(context.Context, *Ctx, *Stream) (*dict.Dict, *cmn.SysMD, error) {
	return nil, nil, notSupp()
}

func (Unsupported) StreamGet(context.Context, *Ctx, *Stream, int) ([]byte, []byte, error) {
	return nil, nil, notSupp()
}

func (Unsupported) StreamPutMD(context.Context, *Ctx, *Stream, *dict.Dict) error { return notSupp() }

func (Unsupported) StreamPut(context.Context, *Ctx, *Stream, []byte) ([]byte, error) {
	return nil, notSupp()
}

func (Unsupported) StreamFlush(context.Context, *Ctx, *Stream) error { return notSupp() }
