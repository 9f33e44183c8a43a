// Package core holds the droplet context, the backend vtable contract, and
// the shared request-exchange plumbing that every HTTP backend drives.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
)

type (
	// IDScheme converts between a backend's canonical object-id string and
	// an (enterprise-number, opaque bytes) pair; the round trip is exact.
	IDScheme interface {
		Name() string
		IDToString(enterpriseNumber uint32, opaque []byte) (string, error)
		StringToID(id string) (enterpriseNumber uint32, opaque []byte, err error)
	}

	// Backend is the per-protocol vtable. Every method is optional in
	// spirit: implementations embed Unsupported, which declines each verb
	// with ENotSupp, and override what the protocol can do.
	//
	// The backends are not generalizations of each other; they are
	// independent implementations of the same interface.
	Backend interface {
		Name() string
		Capabilities(c *Ctx) (cmn.Capability, error)
		Login(ctx context.Context, c *Ctx) error
		GetIDScheme(c *Ctx) (IDScheme, error)

		ListAllMyBuckets(ctx context.Context, c *Ctx, opt *cmn.Option) ([]*cmn.BucketInfo, error)
		MakeBucket(ctx context.Context, c *Ctx, bucket string, opt *cmn.Option, sysmd *cmn.SysMD) error
		ListBucket(ctx context.Context, c *Ctx, bucket, prefix, delimiter string, maxKeys int, opt *cmn.Option) (
			objects []*cmn.ObjectInfo, commonPrefixes []string, err error)
		ListBucketAttrs(ctx context.Context, c *Ctx, bucket, prefix, delimiter string, maxKeys int, opt *cmn.Option) (
			md *dict.Dict, sysmd *cmn.SysMD, objects []*cmn.ObjectInfo, commonPrefixes []string, err error)
		DeleteBucket(ctx context.Context, c *Ctx, bucket string, opt *cmn.Option) error

		Put(ctx context.Context, c *Ctx, bucket, resource, subresource string, opt *cmn.Option,
			objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
			md *dict.Dict, sysmd *cmn.SysMD, data []byte) (location string, err error)
		PutID(ctx context.Context, c *Ctx, bucket, id, subresource string, opt *cmn.Option,
			objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
			md *dict.Dict, sysmd *cmn.SysMD, data []byte) (location string, err error)
		Post(ctx context.Context, c *Ctx, bucket, resource, subresource string, opt *cmn.Option,
			objectType cmn.FType, md *dict.Dict, sysmd *cmn.SysMD, data []byte,
			query *dict.Dict) (retSysmd *cmn.SysMD, location string, err error)
		PostID(ctx context.Context, c *Ctx, bucket, id, subresource string, opt *cmn.Option,
			objectType cmn.FType, md *dict.Dict, sysmd *cmn.SysMD, data []byte,
			query *dict.Dict) (retSysmd *cmn.SysMD, location string, err error)

		Get(ctx context.Context, c *Ctx, bucket, resource, subresource string, opt *cmn.Option,
			objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
			data []byte, md *dict.Dict, sysmd *cmn.SysMD, location string, err error)
		GetID(ctx context.Context, c *Ctx, bucket, id, subresource string, opt *cmn.Option,
			objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
			data []byte, md *dict.Dict, sysmd *cmn.SysMD, location string, err error)

		Head(ctx context.Context, c *Ctx, bucket, resource, subresource string, opt *cmn.Option,
			objectType cmn.FType, cond *cmn.Condition) (md *dict.Dict, sysmd *cmn.SysMD, location string, err error)
		HeadID(ctx context.Context, c *Ctx, bucket, id, subresource string, opt *cmn.Option,
			objectType cmn.FType, cond *cmn.Condition) (md *dict.Dict, sysmd *cmn.SysMD, location string, err error)
		HeadRaw(ctx context.Context, c *Ctx, bucket, resource, subresource string, opt *cmn.Option,
			objectType cmn.FType) (allMD *dict.Dict, location string, err error)
		HeadIDRaw(ctx context.Context, c *Ctx, bucket, id, subresource string, opt *cmn.Option,
			objectType cmn.FType) (allMD *dict.Dict, location string, err error)

		Delete(ctx context.Context, c *Ctx, bucket, resource, subresource string, opt *cmn.Option,
			objectType cmn.FType, cond *cmn.Condition) (location string, err error)
		DeleteID(ctx context.Context, c *Ctx, bucket, id, subresource string, opt *cmn.Option,
			objectType cmn.FType, cond *cmn.Condition) (location string, err error)
		DeleteAll(ctx context.Context, c *Ctx, bucket string, resources []string, opt *cmn.Option) (
			[]cmn.DeleteResult, error)
		DeleteAllID(ctx context.Context, c *Ctx, bucket string, ids []string, opt *cmn.Option) (
			[]cmn.DeleteResult, error)

		Copy(ctx context.Context, c *Ctx, srcBucket, srcResource, srcSubresource,
			dstBucket, dstResource, dstSubresource string, opt *cmn.Option, objectType cmn.FType,
			directive cmn.CopyDirective, md *dict.Dict, sysmd *cmn.SysMD,
			cond, copyCond *cmn.Condition) (location string, err error)
		CopyID(ctx context.Context, c *Ctx, srcBucket, srcID, srcSubresource,
			dstBucket, dstID, dstSubresource string, opt *cmn.Option, objectType cmn.FType,
			directive cmn.CopyDirective, md *dict.Dict, sysmd *cmn.SysMD,
			cond, copyCond *cmn.Condition) (location string, err error)

		GenURL(ctx context.Context, c *Ctx, bucket, resource, subresource string, opt *cmn.Option,
			expires time.Time) (string, error)

		StreamResume(ctx context.Context, c *Ctx, s *Stream, status []byte) error
		StreamGetMD(ctx context.Context, c *Ctx, s *Stream) (md *dict.Dict, sysmd *cmn.SysMD, err error)
		StreamGet(ctx context.Context, c *Ctx, s *Stream, n int) (data, status []byte, err error)
		StreamPutMD(ctx context.Context, c *Ctx, s *Stream, md *dict.Dict) error
		StreamPut(ctx context.Context, c *Ctx, s *Stream, data []byte) (status []byte, err error)
		StreamFlush(ctx context.Context, c *Ctx, s *Stream) error
	}

	// Stream is a cursor over one object: either read from or written to,
	// never both, with an opaque JSON resume token maintained by the
	// backend.
	Stream struct {
		Bucket  string
		Locator string
		IsID    bool

		Opt   *cmn.Option
		Cond  cmn.Condition
		MD    *dict.Dict
		SysMD *cmn.SysMD

		Status []byte // backend-opaque resume token (JSON)
	}
)

var (
	regMu    sync.Mutex
	backends = make(map[string]Backend)
)

// Register installs a named backend; called from backend package init.
func Register(b Backend) {
	regMu.Lock()
	defer regMu.Unlock()
	backends[b.Name()] = b
}

// Lookup resolves a backend by name.
func Lookup(name string) (Backend, error) {
	regMu.Lock()
	defer regMu.Unlock()
	if b, ok := backends[name]; ok {
		return b, nil
	}
	return nil, cmn.Errf(cmn.EInval, "unknown backend %q", name)
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	regMu.Lock()
	defer regMu.Unlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
