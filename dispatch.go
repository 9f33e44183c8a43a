// Package droplet is a client library for cloud and object storage systems:
// one object-storage API over S3-compatible REST, CDMI, Scality sproxyd and
// SRWS, OpenStack Swift, and the local POSIX filesystem.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package droplet

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
	"github.com/NVIDIA/droplet/stats"
)

// Every public verb follows one template: trace entry, invoke the backend,
// re-drive a single redirect against the relocated resource, record the
// event, trace exit. A second redirect is a hard failure.

// redirected reports whether the error is the redirect signal and, if so,
// splits its absolute URI relative to the context base path.
func (ctx *Ctx) redirected(err error) (resource, subresource string, ok bool) {
	if cmn.StatusOf(err) != cmn.ERedirect {
		return "", "", false
	}
	loc := cmn.RedirectLocation(err)
	if loc == "" {
		return "", "", false
	}
	resource, subresource = ctx.c.LocationToResource(loc)
	return resource, subresource, true
}

// Login authenticates against backends that require it.
func (ctx *Ctx) Login(gctx context.Context) error {
	ctx.c.Trace(cmn.TraceREST, "login")
	err := ctx.c.Backend().Login(gctx, ctx.c)
	ctx.c.Trace(cmn.TraceREST, "login ret=%v", cmn.StatusOf(err))
	return err
}

// GetCapabilities returns the backend capability mask.
func (ctx *Ctx) GetCapabilities() (cmn.Capability, error) {
	return ctx.c.Backend().Capabilities(ctx.c)
}

// GetIDScheme returns the backend object-identifier scheme.
func (ctx *Ctx) GetIDScheme() (core.IDScheme, error) {
	return ctx.c.Backend().GetIDScheme(ctx.c)
}

// ListAllMyBuckets lists every bucket of the account.
func (ctx *Ctx) ListAllMyBuckets(gctx context.Context, opt *cmn.Option) ([]*cmn.BucketInfo, error) {
	ctx.c.Trace(cmn.TraceREST, "list_all_my_buckets")
	buckets, err := ctx.c.Backend().ListAllMyBuckets(gctx, ctx.c, opt)
	ctx.c.Trace(cmn.TraceREST, "list_all_my_buckets ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryRequest, stats.OpList, 0)
	}
	return buckets, err
}

// MakeBucket creates a bucket with the given placement and canned ACL.
func (ctx *Ctx) MakeBucket(gctx context.Context, bucket string,
	location cmn.LocationConstraint, acl cmn.CannedACL) error {
	ctx.c.Trace(cmn.TraceREST, "make_bucket bucket=%s", bucket)
	sysmd := &cmn.SysMD{
		Mask:               cmn.SysMDMaskCannedACL | cmn.SysMDMaskLocationConstraint,
		CannedACL:          acl,
		LocationConstraint: location,
	}
	err := ctx.c.Backend().MakeBucket(gctx, ctx.c, bucket, nil, sysmd)
	ctx.c.Trace(cmn.TraceREST, "make_bucket ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpPut, 0)
	}
	return err
}

// ListBucket lists a bucket or directory.
func (ctx *Ctx) ListBucket(gctx context.Context, bucket, prefix, delimiter string) (
	[]*cmn.ObjectInfo, []string, error) {
	return ctx.ListBucketExt(gctx, bucket, prefix, delimiter, -1, nil)
}

// ListBucketExt is ListBucket with an explicit key bound and options.
func (ctx *Ctx) ListBucketExt(gctx context.Context, bucket, prefix, delimiter string,
	maxKeys int, opt *cmn.Option) ([]*cmn.ObjectInfo, []string, error) {
	ctx.c.Trace(cmn.TraceREST, "list_bucket bucket=%s prefix=%s delimiter=%s", bucket, prefix, delimiter)
	objects, prefixes, err := ctx.c.Backend().ListBucket(gctx, ctx.c, bucket, prefix, delimiter, maxKeys, opt)
	ctx.c.Trace(cmn.TraceREST, "list_bucket ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryRequest, stats.OpList, 0)
	}
	return objects, prefixes, err
}

// ListBucketAttrs lists a bucket together with its metadata and system
// metadata.
func (ctx *Ctx) ListBucketAttrs(gctx context.Context, bucket, prefix, delimiter string,
	maxKeys int, opt *cmn.Option) (*dict.Dict, *cmn.SysMD, []*cmn.ObjectInfo, []string, error) {
	ctx.c.Trace(cmn.TraceREST, "list_bucket_attrs bucket=%s prefix=%s", bucket, prefix)
	md, sysmd, objects, prefixes, err := ctx.c.Backend().ListBucketAttrs(
		gctx, ctx.c, bucket, prefix, delimiter, maxKeys, opt)
	ctx.c.Trace(cmn.TraceREST, "list_bucket_attrs ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryRequest, stats.OpList, 0)
	}
	return md, sysmd, objects, prefixes, err
}

// DeleteBucket removes an empty bucket.
func (ctx *Ctx) DeleteBucket(gctx context.Context, bucket string) error {
	ctx.c.Trace(cmn.TraceREST, "delete_bucket bucket=%s", bucket)
	err := ctx.c.Backend().DeleteBucket(gctx, ctx.c, bucket, nil)
	ctx.c.Trace(cmn.TraceREST, "delete_bucket ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpDelete, 0)
	}
	return err
}

// Put stores an object.
func (ctx *Ctx) Put(gctx context.Context, bucket, resource, subresource string, opt *cmn.Option,
	objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) error {
	ctx.c.Trace(cmn.TraceREST, "put bucket=%s resource=%s", bucket, resource)
	be := ctx.c.Backend()
	_, err := be.Put(gctx, ctx.c, bucket, resource, subresource, opt, objectType, cond, rng, md, sysmd, data)
	if res, sub, ok := ctx.redirected(err); ok {
		_, err = be.Put(gctx, ctx.c, bucket, res, sub, opt, objectType, cond, rng, md, sysmd, data)
		if cmn.StatusOf(err) == cmn.ERedirect {
			err = cmn.Err(cmn.ERedirect)
		}
	}
	ctx.c.Trace(cmn.TraceREST, "put ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpIn, int64(len(data)))
	}
	return err
}

// PutID stores an object by identifier.
func (ctx *Ctx) PutID(gctx context.Context, bucket, id, subresource string, opt *cmn.Option,
	objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) error {
	ctx.c.Trace(cmn.TraceID, "put_id bucket=%s id=%s", bucket, id)
	_, err := ctx.c.Backend().PutID(gctx, ctx.c, bucket, id, subresource, opt, objectType, cond, rng, md, sysmd, data)
	ctx.c.Trace(cmn.TraceID, "put_id ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpIn, int64(len(data)))
	}
	return err
}

// Post submits an object to a collection.
func (ctx *Ctx) Post(gctx context.Context, bucket, resource, subresource string, opt *cmn.Option,
	objectType cmn.FType, md *dict.Dict, sysmd *cmn.SysMD, data []byte,
	query *dict.Dict) (*cmn.SysMD, error) {
	ctx.c.Trace(cmn.TraceREST, "post bucket=%s resource=%s", bucket, resource)
	retSysmd, _, err := ctx.c.Backend().Post(gctx, ctx.c, bucket, resource, subresource, opt,
		objectType, md, sysmd, data, query)
	ctx.c.Trace(cmn.TraceREST, "post ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpIn, int64(len(data)))
	}
	return retSysmd, err
}

// Get fetches an object, optionally a byte range of it.
func (ctx *Ctx) Get(gctx context.Context, bucket, resource, subresource string, opt *cmn.Option,
	objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, error) {
	ctx.c.Trace(cmn.TraceREST, "get bucket=%s resource=%s", bucket, resource)
	be := ctx.c.Backend()
	data, md, sysmd, _, err := be.Get(gctx, ctx.c, bucket, resource, subresource, opt, objectType, cond, rng)
	if res, sub, ok := ctx.redirected(err); ok {
		data, md, sysmd, _, err = be.Get(gctx, ctx.c, bucket, res, sub, opt, objectType, cond, rng)
		if cmn.StatusOf(err) == cmn.ERedirect {
			err = cmn.Err(cmn.ERedirect)
		}
	}
	ctx.c.Trace(cmn.TraceREST, "get ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpOut, int64(len(data)))
	}
	return data, md, sysmd, err
}

// GetID fetches an object by identifier.
func (ctx *Ctx) GetID(gctx context.Context, bucket, id, subresource string, opt *cmn.Option,
	objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, error) {
	ctx.c.Trace(cmn.TraceID, "get_id bucket=%s id=%s", bucket, id)
	data, md, sysmd, _, err := ctx.c.Backend().GetID(gctx, ctx.c, bucket, id, subresource, opt, objectType, cond, rng)
	ctx.c.Trace(cmn.TraceID, "get_id ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpOut, int64(len(data)))
	}
	return data, md, sysmd, err
}

// Head fetches an object's metadata.
func (ctx *Ctx) Head(gctx context.Context, bucket, resource, subresource string, opt *cmn.Option,
	objectType cmn.FType, cond *cmn.Condition) (*dict.Dict, *cmn.SysMD, error) {
	ctx.c.Trace(cmn.TraceREST, "head bucket=%s resource=%s", bucket, resource)
	be := ctx.c.Backend()
	md, sysmd, _, err := be.Head(gctx, ctx.c, bucket, resource, subresource, opt, objectType, cond)
	if res, sub, ok := ctx.redirected(err); ok {
		md, sysmd, _, err = be.Head(gctx, ctx.c, bucket, res, sub, opt, objectType, cond)
		if cmn.StatusOf(err) == cmn.ERedirect {
			err = cmn.Err(cmn.ERedirect)
		}
	}
	ctx.c.Trace(cmn.TraceREST, "head ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpGet, 0)
	}
	return md, sysmd, err
}

// HeadID fetches metadata by identifier.
func (ctx *Ctx) HeadID(gctx context.Context, bucket, id, subresource string, opt *cmn.Option,
	objectType cmn.FType, cond *cmn.Condition) (*dict.Dict, *cmn.SysMD, error) {
	ctx.c.Trace(cmn.TraceID, "head_id bucket=%s id=%s", bucket, id)
	md, sysmd, _, err := ctx.c.Backend().HeadID(gctx, ctx.c, bucket, id, subresource, opt, objectType, cond)
	ctx.c.Trace(cmn.TraceID, "head_id ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpGet, 0)
	}
	return md, sysmd, err
}

// HeadRaw fetches the undigested metadata of an object.
func (ctx *Ctx) HeadRaw(gctx context.Context, bucket, resource, subresource string, opt *cmn.Option,
	objectType cmn.FType) (*dict.Dict, error) {
	ctx.c.Trace(cmn.TraceREST, "head_raw bucket=%s resource=%s", bucket, resource)
	all, _, err := ctx.c.Backend().HeadRaw(gctx, ctx.c, bucket, resource, subresource, opt, objectType)
	ctx.c.Trace(cmn.TraceREST, "head_raw ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpGet, 0)
	}
	return all, err
}

// HeadIDRaw fetches the undigested metadata of an object by identifier.
func (ctx *Ctx) HeadIDRaw(gctx context.Context, bucket, id, subresource string, opt *cmn.Option,
	objectType cmn.FType) (*dict.Dict, error) {
	ctx.c.Trace(cmn.TraceID, "head_id_raw bucket=%s id=%s", bucket, id)
	all, _, err := ctx.c.Backend().HeadIDRaw(gctx, ctx.c, bucket, id, subresource, opt, objectType)
	ctx.c.Trace(cmn.TraceID, "head_id_raw ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpGet, 0)
	}
	return all, err
}

// Delete removes an object.
func (ctx *Ctx) Delete(gctx context.Context, bucket, resource, subresource string, opt *cmn.Option,
	objectType cmn.FType, cond *cmn.Condition) error {
	ctx.c.Trace(cmn.TraceREST, "delete bucket=%s resource=%s", bucket, resource)
	be := ctx.c.Backend()
	_, err := be.Delete(gctx, ctx.c, bucket, resource, subresource, opt, objectType, cond)
	if res, sub, ok := ctx.redirected(err); ok {
		_, err = be.Delete(gctx, ctx.c, bucket, res, sub, opt, objectType, cond)
		if cmn.StatusOf(err) == cmn.ERedirect {
			err = cmn.Err(cmn.ERedirect)
		}
	}
	ctx.c.Trace(cmn.TraceREST, "delete ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpDelete, 0)
	}
	return err
}

// DeleteID removes an object by identifier.
func (ctx *Ctx) DeleteID(gctx context.Context, bucket, id, subresource string, opt *cmn.Option,
	objectType cmn.FType, cond *cmn.Condition) error {
	ctx.c.Trace(cmn.TraceID, "delete_id bucket=%s id=%s", bucket, id)
	_, err := ctx.c.Backend().DeleteID(gctx, ctx.c, bucket, id, subresource, opt, objectType, cond)
	ctx.c.Trace(cmn.TraceID, "delete_id ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpDelete, 0)
	}
	return err
}

// DeleteAll removes a set of objects, reporting per-object outcomes. When
// the backend has no native bulk delete the objects are deleted
// concurrently, one request each.
func (ctx *Ctx) DeleteAll(gctx context.Context, bucket string, resources []string, opt *cmn.Option) (
	[]cmn.DeleteResult, error) {
	ctx.c.Trace(cmn.TraceREST, "delete_all bucket=%s n=%d", bucket, len(resources))
	results, err := ctx.c.Backend().DeleteAll(gctx, ctx.c, bucket, resources, opt)
	if cmn.StatusOf(err) == cmn.ENotSupp {
		results, err = ctx.deleteAllFanout(gctx, bucket, resources, opt)
	}
	ctx.c.Trace(cmn.TraceREST, "delete_all ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpDelete, 0)
	}
	return results, err
}

func (ctx *Ctx) deleteAllFanout(gctx context.Context, bucket string, resources []string,
	opt *cmn.Option) ([]cmn.DeleteResult, error) {
	var (
		g, gc   = errgroup.WithContext(gctx)
		results = make([]cmn.DeleteResult, len(resources))
	)
	g.SetLimit(8)
	for i, res := range resources {
		i, res := i, res
		g.Go(func() error {
			_, err := ctx.c.Backend().Delete(gc, ctx.c, bucket, res, "", opt, cmn.FTypeUndef, nil)
			results[i] = cmn.DeleteResult{Name: res, Status: cmn.StatusOf(err)}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteAllID removes a set of objects by identifier.
func (ctx *Ctx) DeleteAllID(gctx context.Context, bucket string, ids []string, opt *cmn.Option) (
	[]cmn.DeleteResult, error) {
	ctx.c.Trace(cmn.TraceID, "delete_all_id bucket=%s n=%d", bucket, len(ids))
	results, err := ctx.c.Backend().DeleteAllID(gctx, ctx.c, bucket, ids, opt)
	ctx.c.Trace(cmn.TraceID, "delete_all_id ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpDelete, 0)
	}
	return results, err
}

// Copy copies, links or renames an object server-side.
func (ctx *Ctx) Copy(gctx context.Context, srcBucket, srcResource, srcSubresource,
	dstBucket, dstResource, dstSubresource string, opt *cmn.Option, objectType cmn.FType,
	directive cmn.CopyDirective, md *dict.Dict, sysmd *cmn.SysMD,
	cond, copyCond *cmn.Condition) error {
	ctx.c.Trace(cmn.TraceREST, "copy src=%s/%s dst=%s/%s directive=%s",
		srcBucket, srcResource, dstBucket, dstResource, directive)
	_, err := ctx.c.Backend().Copy(gctx, ctx.c, srcBucket, srcResource, srcSubresource,
		dstBucket, dstResource, dstSubresource, opt, objectType, directive, md, sysmd, cond, copyCond)
	ctx.c.Trace(cmn.TraceREST, "copy ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpPut, 0)
	}
	return err
}

// CopyID copies an object by identifier.
func (ctx *Ctx) CopyID(gctx context.Context, srcBucket, srcID, srcSubresource,
	dstBucket, dstID, dstSubresource string, opt *cmn.Option, objectType cmn.FType,
	directive cmn.CopyDirective, md *dict.Dict, sysmd *cmn.SysMD,
	cond, copyCond *cmn.Condition) error {
	ctx.c.Trace(cmn.TraceID, "copy_id src=%s dst=%s directive=%s", srcID, dstID, directive)
	_, err := ctx.c.Backend().CopyID(gctx, ctx.c, srcBucket, srcID, srcSubresource,
		dstBucket, dstID, dstSubresource, opt, objectType, directive, md, sysmd, cond, copyCond)
	ctx.c.Trace(cmn.TraceID, "copy_id ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryData, stats.OpPut, 0)
	}
	return err
}

// GenURL builds a pre-signed URL valid until expires.
func (ctx *Ctx) GenURL(gctx context.Context, bucket, resource, subresource string, opt *cmn.Option,
	expires time.Time) (string, error) {
	ctx.c.Trace(cmn.TraceREST, "genurl bucket=%s resource=%s", bucket, resource)
	url, err := ctx.c.Backend().GenURL(gctx, ctx.c, bucket, resource, subresource, opt, expires)
	ctx.c.Trace(cmn.TraceREST, "genurl ret=%v", cmn.StatusOf(err))
	if err == nil {
		ctx.c.Event(stats.CategoryLinkData, stats.OpOut, int64(len(url)))
	}
	return url, err
}
