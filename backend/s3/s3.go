// Package s3 implements the S3-compatible REST backend: AWS-style signed
// requests, virtual-hosted buckets, XML listings, and x-amz-* metadata.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package s3

import (
	"context"
	"strconv"
	"time"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
	"github.com/NVIDIA/droplet/req"
)

const Name = "s3"

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
	return cmn.CapBuckets | cmn.CapFnames | cmn.CapCopy | cmn.CapConditions | cmn.CapVersioning, nil
}

func (b *backend) ListAllMyBuckets(ctx context.Context, c *core.Ctx, opt *cmn.Option) (
	[]*cmn.BucketInfo, error) {
	r := c.NewRequest(cmn.MethodGet, "", "/", "")
	r.RmBehavior(cmn.BehaviorVirtualHosting)
	headers, err := buildHeaders(r)
	if err != nil {
		return nil, err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, err
	}
	return parseListAllMyBuckets(reply.Body)
}

func (b *backend) MakeBucket(ctx context.Context, c *core.Ctx, bucket string,
	opt *cmn.Option, sysmd *cmn.SysMD) error {
	r := c.NewRequest(cmn.MethodPut, bucket, "/", "")
	if sysmd.Has(cmn.SysMDMaskCannedACL) {
		r.CannedACL = sysmd.CannedACL
	}
	var body []byte
	if sysmd.Has(cmn.SysMDMaskLocationConstraint) &&
		sysmd.LocationConstraint != cmn.LocationConstraintUndef &&
		sysmd.LocationConstraint != cmn.LocationConstraintUSEast1 {
		body = makeBucketBody(sysmd.LocationConstraint)
		r.SetData(body)
	}
	// bucket creation never carries MD5 behavior
	r.RmBehavior(cmn.BehaviorMD5)
	headers, err := buildHeaders(r)
	if err != nil {
		return err
	}
	_, err = c.DoRequest(ctx, r, headers, nil, body, opt, nil)
	return err
}

func (b *backend) ListBucket(ctx context.Context, c *core.Ctx, bucket, prefix, delimiter string,
	maxKeys int, opt *cmn.Option) ([]*cmn.ObjectInfo, []string, error) {
	r := c.NewRequest(cmn.MethodGet, bucket, "/", "")
	query := dict.New(7)
	if prefix != "" {
		query.Add("prefix", prefix, false)
	}
	if delimiter != "" {
		query.Add("delimiter", delimiter, false)
	}
	if maxKeys >= 0 {
		query.Add("max-keys", strconv.Itoa(maxKeys), false)
	}
	headers, err := buildHeaders(r)
	if err != nil {
		return nil, nil, err
	}
	reply, err := c.DoRequest(ctx, r, headers, query, nil, opt, nil)
	if err != nil {
		return nil, nil, err
	}
	return parseListBucket(reply.Body)
}

func (b *backend) ListBucketAttrs(ctx context.Context, c *core.Ctx, bucket, prefix, delimiter string,
	maxKeys int, opt *cmn.Option) (*dict.Dict, *cmn.SysMD, []*cmn.ObjectInfo, []string, error) {
	md, sysmd, _, err := b.Head(ctx, c, bucket, "/", "", opt, cmn.FTypeDir, nil)
	if err != nil && cmn.StatusOf(err) != cmn.ENotSupp {
		return nil, nil, nil, nil, err
	}
	objects, prefixes, err := b.ListBucket(ctx, c, bucket, prefix, delimiter, maxKeys, opt)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return md, sysmd, objects, prefixes, nil
}

func (b *backend) DeleteBucket(ctx context.Context, c *core.Ctx, bucket string, opt *cmn.Option) error {
	r := c.NewRequest(cmn.MethodDelete, bucket, "/", "")
	headers, err := buildHeaders(r)
	if err != nil {
		return err
	}
	_, err = c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	return err
}

func (b *backend) Put(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) (string, error) {
	if rng != nil {
		// S3 has no ranged writes
		return "", cmn.Err(cmn.ENotSupp)
	}
	r := c.NewRequest(cmn.MethodPut, bucket, resource, subresource)
	r.ObjectType = objectType
	r.SetCondition(cond)
	r.SetData(data)
	r.AddMetadata(md)
	applySysMD(r, sysmd)
	headers, err := buildHeaders(r)
	if err != nil {
		return "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, data, opt, nil)
	return locationOf(reply, err), err
}

func (b *backend) Get(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, string, error) {
	r := c.NewRequest(cmn.MethodGet, bucket, resource, subresource)
	r.ObjectType = objectType
	r.SetCondition(cond)
	if rng != nil {
		if err := r.AddRange(*rng); err != nil {
			return nil, nil, nil, "", err
		}
	}
	headers, err := buildHeaders(r)
	if err != nil {
		return nil, nil, nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, nil, nil, locationOf(reply, err), err
	}
	md, sysmd := parseMetadata(reply.Headers)
	return reply.Body, md, sysmd, "", nil
}

func (b *backend) Head(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (
	*dict.Dict, *cmn.SysMD, string, error) {
	r := c.NewRequest(cmn.MethodHead, bucket, resource, subresource)
	r.ObjectType = objectType
	r.SetCondition(cond)
	headers, err := buildHeaders(r)
	if err != nil {
		return nil, nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, nil, locationOf(reply, err), err
	}
	md, sysmd := parseMetadata(reply.Headers)
	return md, sysmd, "", nil
}

func (b *backend) HeadRaw(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType) (*dict.Dict, string, error) {
	r := c.NewRequest(cmn.MethodHead, bucket, resource, subresource)
	r.ObjectType = objectType
	headers, err := buildHeaders(r)
	if err != nil {
		return nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, locationOf(reply, err), err
	}
	return reply.Headers.Copy(), "", nil
}

func (b *backend) Delete(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (string, error) {
	r := c.NewRequest(cmn.MethodDelete, bucket, resource, subresource)
	r.ObjectType = objectType
	r.SetCondition(cond)
	headers, err := buildHeaders(r)
	if err != nil {
		return "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	return locationOf(reply, err), err
}

func (b *backend) DeleteAll(ctx context.Context, c *core.Ctx, bucket string, resources []string,
	opt *cmn.Option) ([]cmn.DeleteResult, error) {
	body := makeDeleteAllBody(resources)
	r := c.NewRequest(cmn.MethodPost, bucket, "/", "delete")
	r.SetData(body)
	r.ContentType = "application/xml"
	// multi-object delete requires the payload digest
	r.AddBehavior(cmn.BehaviorMD5)
	headers, err := buildHeaders(r)
	if err != nil {
		return nil, err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, body, opt, nil)
	if err != nil {
		return nil, err
	}
	return parseDeleteAll(reply.Body)
}

func (b *backend) Copy(ctx context.Context, c *core.Ctx, srcBucket, srcResource, srcSubresource,
	dstBucket, dstResource, dstSubresource string, opt *cmn.Option, objectType cmn.FType,
	directive cmn.CopyDirective, md *dict.Dict, sysmd *cmn.SysMD,
	cond, copyCond *cmn.Condition) (string, error) {
	switch directive {
	case cmn.CopyDirectiveCopy, cmn.CopyDirectiveMetadataReplace:
	default:
		return "", cmn.Err(cmn.ENotSupp)
	}
	r := c.NewRequest(cmn.MethodPut, dstBucket, dstResource, dstSubresource)
	r.ObjectType = objectType
	r.AddBehavior(cmn.BehaviorCopy)
	r.SrcBucket = srcBucket
	r.SrcResource = srcResource
	r.SrcSubresource = srcSubresource
	if directive == cmn.CopyDirectiveMetadataReplace {
		r.MetadataDirective = cmn.MetadataDirectiveReplace
	} else {
		r.MetadataDirective = cmn.MetadataDirectiveCopy
	}
	r.SetCondition(cond)
	r.SetCopySourceCondition(copyCond)
	r.AddMetadata(md)
	applySysMD(r, sysmd)
	r.RmBehavior(cmn.BehaviorMD5) // no payload
	headers, err := buildHeaders(r)
	if err != nil {
		return "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	return locationOf(reply, err), err
}

func (b *backend) GenURL(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, expires time.Time) (string, error) {
	return genURL(c, bucket, resource, subresource, expires)
}

// applySysMD lowers the caller's system-metadata intent onto the request.
func applySysMD(r *req.Request, sysmd *cmn.SysMD) {
	if sysmd == nil {
		return
	}
	if sysmd.Has(cmn.SysMDMaskCannedACL) {
		r.CannedACL = sysmd.CannedACL
	}
	if sysmd.Has(cmn.SysMDMaskStorageClass) {
		r.StorageClass = sysmd.StorageClass
	}
	if sysmd.Has(cmn.SysMDMaskLocationConstraint) {
		r.LocationConstraint = sysmd.LocationConstraint
	}
}

func locationOf(_ *core.Reply, err error) string {
	return cmn.RedirectLocation(err)
}
