// Package srws implements the Scality RING web service backend: a
// simplified ntinydb-in-header metadata convention with a replica-policy
// switch for lazy versus immediate replication.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package srws

import (
	"context"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
	"github.com/NVIDIA/droplet/req"
)

const Name = "srws"

type backend struct {
	core.Unsupported
}

// interface guard
var _ core.Backend = (*backend)(nil)

func init() {
	core.Register(&backend{})
}

func (*backend) Name() string { return Name }

func (*backend) Capabilities(*core.Ctx) (cmn.Capability, error) {
	return cmn.CapIDs | cmn.CapFnames | cmn.CapRaw | cmn.CapLazy, nil
}

func newRequest(c *core.Ctx, method cmn.Method, resource, subresource string) *req.Request {
	r := c.NewRequest(method, "", resource, subresource)
	r.RmBehavior(cmn.BehaviorVirtualHosting)
	return r
}

func locationOf(err error) string { return cmn.RedirectLocation(err) }

func (b *backend) put(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option, md *dict.Dict, data []byte, mdonly bool) (string, error) {
	r := newRequest(c, cmn.MethodPut, resource, subresource)
	if !mdonly {
		r.SetData(data)
	}
	r.AddMetadata(md)
	headers, err := buildHeaders(r, opt, mdonly)
	if err != nil {
		return "", err
	}
	_, err = c.DoRequest(ctx, r, headers, nil, r.Data, opt, nil)
	return locationOf(err), err
}

func (b *backend) Put(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) (string, error) {
	if rng != nil {
		return "", cmn.Err(cmn.ENotSupp)
	}
	return b.put(ctx, c, resource, subresource, opt, md, data, opt.Has(cmn.OptMDOnly))
}

func (b *backend) PutID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) (string, error) {
	return b.Put(ctx, c, bucket, id, subresource, opt, objectType, cond, rng, md, sysmd, data)
}

func (b *backend) get(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option, rng *cmn.Range) ([]byte, *dict.Dict, *cmn.SysMD, string, error) {
	r := newRequest(c, cmn.MethodGet, resource, subresource)
	if rng != nil {
		if err := r.AddRange(*rng); err != nil {
			return nil, nil, nil, "", err
		}
	}
	headers, err := buildHeaders(r, opt, false)
	if err != nil {
		return nil, nil, nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, nil, nil, locationOf(err), err
	}
	md, sysmd, err := parseMetadataFromHeaders(reply.Headers)
	if err != nil {
		return nil, nil, nil, "", err
	}
	return reply.Body, md, sysmd, "", nil
}

func (b *backend) Get(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, string, error) {
	return b.get(ctx, c, resource, subresource, opt, rng)
}

func (b *backend) GetID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, string, error) {
	return b.get(ctx, c, id, subresource, opt, rng)
}

func (b *backend) head(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option) (*dict.Dict, *cmn.SysMD, string, error) {
	r := newRequest(c, cmn.MethodHead, resource, subresource)
	headers, err := buildHeaders(r, opt, false)
	if err != nil {
		return nil, nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, nil, locationOf(err), err
	}
	md, sysmd, err := parseMetadataFromHeaders(reply.Headers)
	return md, sysmd, "", err
}

func (b *backend) Head(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (
	*dict.Dict, *cmn.SysMD, string, error) {
	return b.head(ctx, c, resource, subresource, opt)
}

func (b *backend) HeadID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (
	*dict.Dict, *cmn.SysMD, string, error) {
	return b.head(ctx, c, id, subresource, opt)
}

func (b *backend) HeadRaw(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType) (*dict.Dict, string, error) {
	r := newRequest(c, cmn.MethodHead, resource, subresource)
	headers, err := buildHeaders(r, opt, false)
	if err != nil {
		return nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, locationOf(err), err
	}
	return reply.Headers.Copy(), "", nil
}

func (b *backend) del(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option) (string, error) {
	r := newRequest(c, cmn.MethodDelete, resource, subresource)
	headers, err := buildHeaders(r, opt, false)
	if err != nil {
		return "", err
	}
	_, err = c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	return locationOf(err), err
}

func (b *backend) Delete(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (string, error) {
	return b.del(ctx, c, resource, subresource, opt)
}

func (b *backend) DeleteID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (string, error) {
	return b.del(ctx, c, id, subresource, opt)
}
