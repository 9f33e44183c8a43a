// Package cdmi implements the CDMI backend: JSON object bodies in native
// mode, header-flattened metadata in HTTP-compat mode, CDMI object IDs, and
// ACE-based ACLs.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cdmi

import (
	"context"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
	"github.com/NVIDIA/droplet/req"
)

const Name = "cdmi"

// objectIDPath addresses objects by id instead of path.
const objectIDPath = "cdmi_objectid/"

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
	return cmn.CapFnames | cmn.CapIDs | cmn.CapHTTPCompat | cmn.CapRaw |
		cmn.CapCopy | cmn.CapConditions | cmn.CapPutRange, nil
}

func (*backend) GetIDScheme(*core.Ctx) (core.IDScheme, error) { return idScheme{}, nil }

// newRequest applies CDMI-specific request defaults: no bucket namespace,
// no virtual hosting, HTTP-compat mode per option.
func newRequest(c *core.Ctx, method cmn.Method, resource, subresource string,
	opt *cmn.Option) *req.Request {
	r := c.NewRequest(method, "", resource, subresource)
	r.RmBehavior(cmn.BehaviorVirtualHosting)
	if opt.Has(cmn.OptHTTPCompat) {
		r.AddBehavior(cmn.BehaviorHTTPCompat)
	}
	return r
}

func idResource(id string) string { return objectIDPath + id }

func locationOf(err error) string { return cmn.RedirectLocation(err) }

func (b *backend) put(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) (string, error) {
	r := newRequest(c, cmn.MethodPut, resource, subresource, opt)
	r.ObjectType = objectType
	r.SetCondition(cond)
	if rng != nil {
		if err := r.AddRange(*rng); err != nil {
			return "", err
		}
	}
	if data != nil || objectType == cmn.FTypeReg {
		r.SetData(data)
	}
	r.AddMetadata(md)
	if err := sysmdToMetadata(sysmd, r.Metadata); err != nil {
		return "", err
	}
	headers, body, err := buildRequest(r)
	if err != nil {
		return "", err
	}
	_, err = c.DoRequest(ctx, r, headers, nil, body, opt, nil)
	return locationOf(err), err
}

func (b *backend) Put(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) (string, error) {
	return b.put(ctx, c, resource, subresource, opt, objectType, cond, rng, md, sysmd, data)
}

func (b *backend) PutID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) (string, error) {
	return b.put(ctx, c, idResource(id), subresource, opt, objectType, cond, rng, md, sysmd, data)
}

func (b *backend) get(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, string, error) {
	r := newRequest(c, cmn.MethodGet, resource, subresource, opt)
	r.ObjectType = objectType
	r.SetCondition(cond)
	if rng != nil {
		if err := r.AddRange(*rng); err != nil {
			return nil, nil, nil, "", err
		}
	}
	headers, _, err := buildRequest(r)
	if err != nil {
		return nil, nil, nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, nil, nil, locationOf(err), err
	}
	if r.HasBehavior(cmn.BehaviorHTTPCompat) {
		md, sysmd := parseMetadataFromHeaders(reply.Headers)
		return reply.Body, md, sysmd, "", nil
	}
	md, sysmd, err := parseMetadataFromBody(reply.Body)
	if err != nil {
		return nil, nil, nil, "", err
	}
	data, err := parseValueFromBody(reply.Body)
	if err != nil {
		return nil, nil, nil, "", err
	}
	return data, md, sysmd, "", nil
}

func (b *backend) Get(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, string, error) {
	return b.get(ctx, c, resource, subresource, opt, objectType, cond, rng)
}

func (b *backend) GetID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, string, error) {
	return b.get(ctx, c, idResource(id), subresource, opt, objectType, cond, rng)
}

func (b *backend) head(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (
	*dict.Dict, *cmn.SysMD, string, error) {
	// native-mode metadata rides the JSON body, so HEAD becomes a GET of
	// the metadata representation
	r := newRequest(c, cmn.MethodGet, resource, subresource, opt)
	if r.HasBehavior(cmn.BehaviorHTTPCompat) {
		r.Method = cmn.MethodHead
	}
	r.ObjectType = objectType
	r.SetCondition(cond)
	headers, _, err := buildRequest(r)
	if err != nil {
		return nil, nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, nil, locationOf(err), err
	}
	if r.HasBehavior(cmn.BehaviorHTTPCompat) {
		md, sysmd := parseMetadataFromHeaders(reply.Headers)
		return md, sysmd, "", nil
	}
	md, sysmd, err := parseMetadataFromBody(reply.Body)
	return md, sysmd, "", err
}

func (b *backend) Head(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (
	*dict.Dict, *cmn.SysMD, string, error) {
	return b.head(ctx, c, resource, subresource, opt, objectType, cond)
}

func (b *backend) HeadID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (
	*dict.Dict, *cmn.SysMD, string, error) {
	return b.head(ctx, c, idResource(id), subresource, opt, objectType, cond)
}

func (b *backend) headRaw(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType) (*dict.Dict, string, error) {
	r := newRequest(c, cmn.MethodGet, resource, subresource, opt)
	r.ObjectType = objectType
	headers, _, err := buildRequest(r)
	if err != nil {
		return nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, locationOf(err), err
	}
	if r.HasBehavior(cmn.BehaviorHTTPCompat) {
		return reply.Headers.Copy(), "", nil
	}
	tree, err := dict.FromJSON(reply.Body)
	if err != nil {
		return nil, "", cmn.ErrWrap(cmn.Failure, err, "cdmi reply body")
	}
	if tree.Type != dict.TypeSubDict {
		return nil, "", cmn.Errf(cmn.Failure, "cdmi reply is not an object")
	}
	return tree.SubDict, "", nil
}

func (b *backend) HeadRaw(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType) (*dict.Dict, string, error) {
	return b.headRaw(ctx, c, resource, subresource, opt, objectType)
}

func (b *backend) HeadIDRaw(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType) (*dict.Dict, string, error) {
	return b.headRaw(ctx, c, idResource(id), subresource, opt, objectType)
}

func (b *backend) del(ctx context.Context, c *core.Ctx, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (string, error) {
	r := newRequest(c, cmn.MethodDelete, resource, subresource, opt)
	r.ObjectType = objectType
	r.SetCondition(cond)
	headers, _, err := buildRequest(r)
	if err != nil {
		return "", err
	}
	_, err = c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	return locationOf(err), err
}

func (b *backend) Delete(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (string, error) {
	return b.del(ctx, c, resource, subresource, opt, objectType, cond)
}

func (b *backend) DeleteID(ctx context.Context, c *core.Ctx, bucket, id, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (string, error) {
	return b.del(ctx, c, idResource(id), subresource, opt, objectType, cond)
}

func (b *backend) MakeBucket(ctx context.Context, c *core.Ctx, bucket string,
	opt *cmn.Option, sysmd *cmn.SysMD) error {
	// no bucket namespace; a "bucket" is a top-level container
	_, err := b.put(ctx, c, bucket+"/", "", opt, cmn.FTypeDir, nil, nil, nil, sysmd, nil)
	return err
}

func (b *backend) DeleteBucket(ctx context.Context, c *core.Ctx, bucket string, opt *cmn.Option) error {
	_, err := b.del(ctx, c, bucket+"/", "", opt, cmn.FTypeDir, nil)
	return err
}

func (b *backend) ListBucket(ctx context.Context, c *core.Ctx, bucket, prefix, delimiter string,
	maxKeys int, opt *cmn.Option) ([]*cmn.ObjectInfo, []string, error) {
	resource := prefix
	if resource == "" {
		resource = "/"
	}
	r := newRequest(c, cmn.MethodGet, resource, "", opt)
	r.RmBehavior(cmn.BehaviorHTTPCompat) // listings are native-mode only
	r.ObjectType = cmn.FTypeDir
	headers, _, err := buildRequest(r)
	if err != nil {
		return nil, nil, err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, nil, err
	}
	return parseChildren(reply.Body, prefix)
}

func (b *backend) copy(ctx context.Context, c *core.Ctx, srcResource, dstResource,
	dstSubresource string, opt *cmn.Option, objectType cmn.FType,
	directive cmn.CopyDirective, md *dict.Dict, sysmd *cmn.SysMD,
	cond, copyCond *cmn.Condition) (string, error) {
	if directive == cmn.CopyDirectiveUndef {
		return "", cmn.Err(cmn.EInval)
	}
	r := newRequest(c, cmn.MethodPut, dstResource, dstSubresource, opt)
	r.RmBehavior(cmn.BehaviorHTTPCompat) // directives require the JSON body
	r.ObjectType = objectType
	r.CopyDirective = directive
	r.SrcResource = c.MakeResource(srcResource)
	r.SetCondition(cond)
	r.SetCopySourceCondition(copyCond)
	r.AddMetadata(md)
	if err := sysmdToMetadata(sysmd, r.Metadata); err != nil {
		return "", err
	}
	headers, body, err := buildRequest(r)
	if err != nil {
		return "", err
	}
	_, err = c.DoRequest(ctx, r, headers, nil, body, opt, nil)
	return locationOf(err), err
}

func (b *backend) Copy(ctx context.Context, c *core.Ctx, srcBucket, srcResource, srcSubresource,
	dstBucket, dstResource, dstSubresource string, opt *cmn.Option, objectType cmn.FType,
	directive cmn.CopyDirective, md *dict.Dict, sysmd *cmn.SysMD,
	cond, copyCond *cmn.Condition) (string, error) {
	return b.copy(ctx, c, srcResource, dstResource, dstSubresource, opt, objectType,
		directive, md, sysmd, cond, copyCond)
}

func (b *backend) CopyID(ctx context.Context, c *core.Ctx, srcBucket, srcID, srcSubresource,
	dstBucket, dstID, dstSubresource string, opt *cmn.Option, objectType cmn.FType,
	directive cmn.CopyDirective, md *dict.Dict, sysmd *cmn.SysMD,
	cond, copyCond *cmn.Condition) (string, error) {
	return b.copy(ctx, c, idResource(srcID), idResource(dstID), dstSubresource, opt,
		objectType, directive, md, sysmd, cond, copyCond)
}
