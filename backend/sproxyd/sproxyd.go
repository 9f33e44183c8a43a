// Package sproxyd implements the Scality sproxyd backend: id-addressed
// objects under the proxy base path, user metadata as one base64-wrapped
// ntinydb header, and version/consistency control headers.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package sproxyd

import (
	"context"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
	"github.com/NVIDIA/droplet/req"
)

const Name = "sproxyd"

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
	return cmn.CapIDs | cmn.CapFnames | cmn.CapRaw | cmn.CapVersioning | cmn.CapLazy, nil
}

func (*backend) GetIDScheme(*core.Ctx) (core.IDScheme, error) { return idScheme{}, nil }

func newRequest(c *core.Ctx, method cmn.Method, resource, subresource string) *req.Request {
	r := c.NewRequest(method, "", resource, subresource)
	// sproxyd talks to the default host, never virtual-hosted
	r.RmBehavior(cmn.BehaviorVirtualHosting)
	return r
}

func locationOf(err error) string { return cmn.RedirectLocation(err) }

func (b *backend) putInternal(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option, cond *cmn.Condition, md *dict.Dict, data []byte, mdonly bool) (string, error) {
	r := newRequest(c, cmn.MethodPut, resource, subresource)
	r.SetCondition(cond)
	if !mdonly {
		r.SetData(data)
		r.AddBehavior(cmn.BehaviorMD5)
	}
	r.AddMetadata(md)
	query := queryOf(opt)
	headers, err := buildHeaders(r, opt, mdonly)
	if err != nil {
		return "", err
	}
	_, err = c.DoRequest(ctx, r, headers, query, r.Data, opt, nil)
	return locationOf(err), err
}

func (b *backend) Put(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) (string, error) {
	if rng != nil {
		return "", cmn.Err(cmn.ENotSupp)
	}
	if opt.Has(cmn.OptMDOnly) {
		return b.putInternal(ctx, c, resource, subresource, opt, cond, md, nil, true)
	}
	return b.putInternal(ctx, c, resource, subresource, opt, cond, md, data, false)
}

func (b *backend) PutID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) (string, error) {
	return b.Put(ctx, c, bucket, id, subresource, opt, objectType, cond, rng, md, sysmd, data)
}

func (b *backend) get(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, string, error) {
	r := newRequest(c, cmn.MethodGet, resource, subresource)
	r.SetCondition(cond)
	if rng != nil {
		if err := r.AddRange(*rng); err != nil {
			return nil, nil, nil, "", err
		}
	}
	query := queryOf(opt)
	headers, err := buildHeaders(r, opt, false)
	if err != nil {
		return nil, nil, nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, query, nil, opt, nil)
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
	return b.get(ctx, c, resource, subresource, opt, cond, rng)
}

func (b *backend) GetID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, string, error) {
	return b.get(ctx, c, id, subresource, opt, cond, rng)
}

func (b *backend) head(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option, cond *cmn.Condition) (*dict.Dict, *cmn.SysMD, string, error) {
	r := newRequest(c, cmn.MethodHead, resource, subresource)
	r.SetCondition(cond)
	query := queryOf(opt)
	headers, err := buildHeaders(r, opt, false)
	if err != nil {
		return nil, nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, query, nil, opt, nil)
	if err != nil {
		return nil, nil, locationOf(err), err
	}
	md, sysmd, err := parseMetadataFromHeaders(reply.Headers)
	return md, sysmd, "", err
}

func (b *backend) Head(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (
	*dict.Dict, *cmn.SysMD, string, error) {
	return b.head(ctx, c, resource, subresource, opt, cond)
}

func (b *backend) HeadID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (
	*dict.Dict, *cmn.SysMD, string, error) {
	return b.head(ctx, c, id, subresource, opt, cond)
}

func (b *backend) headRaw(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option) (*dict.Dict, string, error) {
	r := newRequest(c, cmn.MethodHead, resource, subresource)
	headers, err := buildHeaders(r, opt, false)
	if err != nil {
		return nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, queryOf(opt), nil, opt, nil)
	if err != nil {
		return nil, locationOf(err), err
	}
	return reply.Headers.Copy(), "", nil
}

func (b *backend) HeadRaw(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType) (*dict.Dict, string, error) {
	return b.headRaw(ctx, c, resource, subresource, opt)
}

func (b *backend) HeadIDRaw(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType) (*dict.Dict, string, error) {
	return b.headRaw(ctx, c, id, subresource, opt)
}

func (b *backend) del(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option, cond *cmn.Condition) (string, error) {
	r := newRequest(c, cmn.MethodDelete, resource, subresource)
	r.SetCondition(cond)
	headers, err := buildHeaders(r, opt, false)
	if err != nil {
		return "", err
	}
	_, err = c.DoRequest(ctx, r, headers, queryOf(opt), nil, opt, nil)
	return locationOf(err), err
}

func (b *backend) Delete(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (string, error) {
	return b.del(ctx, c, resource, subresource, opt, cond)
}

func (b *backend) DeleteID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (string, error) {
	return b.del(ctx, c, id, subresource, opt, cond)
}

func (b *backend) DeleteAllID(ctx context.Context, c *core.Ctx, bucket string, ids []string,
	opt *cmn.Option) ([]cmn.DeleteResult, error) {
	results := make([]cmn.DeleteResult, len(ids))
	for i, id := range ids {
		_, err := b.del(ctx, c, id, "", opt, nil)
		results[i] = cmn.DeleteResult{Name: id, Status: cmn.StatusOf(err)}
		if err != nil {
			results[i].Error = err.Error()
		}
	}
	return results, nil
}

// CopyID re-keys an object client-side: read the source, write the
// destination key with the merged metadata.
func (b *backend) CopyID(ctx context.Context, c *core.Ctx, srcBucket, srcID, srcSubresource,
	dstBucket, dstID, dstSubresource string, opt *cmn.Option, objectType cmn.FType,
	directive cmn.CopyDirective, md *dict.Dict, sysmd *cmn.SysMD,
	cond, copyCond *cmn.Condition) (string, error) {
	switch directive {
	case cmn.CopyDirectiveUndef, cmn.CopyDirectiveCopy, cmn.CopyDirectiveMetadataReplace:
	default:
		return "", cmn.Err(cmn.ENotSupp)
	}
	data, srcMD, _, loc, err := b.get(ctx, c, srcID, srcSubresource, opt, copyCond, nil)
	if err != nil {
		return loc, err
	}
	newMD := srcMD
	if directive == cmn.CopyDirectiveMetadataReplace {
		newMD = md
	} else if md != nil && md.Count() > 0 {
		newMD = srcMD.Copy()
		_ = md.Iterate(func(e *dict.Entry) error {
			newMD.AddValue(e.Key, e.Val.Copy(), false)
			return nil
		})
	}
	return b.putInternal(ctx, c, dstID, dstSubresource, opt, cond, newMD, data, false)
}
