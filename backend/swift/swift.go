// Package swift implements the OpenStack Swift backend: token login,
// container/object namespace, X-Object-Meta-* metadata, JSON listings.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package swift

import (
	"context"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
	"github.com/NVIDIA/droplet/req"
)

const Name = "swift"

const (
	authResource = "/auth/v1.0"

	headerAuthUser   = "X-Auth-User"
	headerAuthKey    = "X-Auth-Key"
	headerAuthToken  = "X-Auth-Token"
	headerStorageURL = "X-Storage-Url"
)

type (
	// session is the per-context login state.
	session struct {
		token      string
		storageURL string
	}

	backend struct {
		core.Unsupported
	}
)

// interface guard
var _ core.Backend = (*backend)(nil)

func init() {
	core.Register(&backend{})
}

func (*backend) Name() string { return Name }

func (*backend) Capabilities(*core.Ctx) (cmn.Capability, error) {
	return cmn.CapBuckets | cmn.CapFnames | cmn.CapConditions, nil
}

// Login exchanges the profile credentials for an auth token kept on the
// context; every subsequent request carries it.
func (b *backend) Login(ctx context.Context, c *core.Ctx) error {
	r := c.NewRequest(cmn.MethodGet, "", authResource, "")
	r.RmBehavior(cmn.BehaviorVirtualHosting)
	headers := dict.New(7)
	headers.Add(headerAuthUser, r.AccessKey, false)
	headers.Add(headerAuthKey, r.SecretKey, false)
	req.AddKeepAlive(r, headers)
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, nil, nil)
	if err != nil {
		return err
	}
	token := reply.Headers.GetLoweredValue(headerAuthToken)
	if token == "" {
		return cmn.Errf(cmn.EPerm, "login: no auth token returned")
	}
	c.SetBackendData(&session{
		token:      token,
		storageURL: reply.Headers.GetLoweredValue(headerStorageURL),
	})
	return nil
}

func (b *backend) sessionOf(c *core.Ctx) (*session, error) {
	if s, ok := c.BackendData().(*session); ok {
		return s, nil
	}
	return nil, cmn.Errf(cmn.EPerm, "not logged in")
}

// newRequest allocates a tokened request addressing "<container><resource>".
func (b *backend) newRequest(c *core.Ctx, method cmn.Method, bucket, resource,
	subresource string) (*req.Request, *dict.Dict, error) {
	sess, err := b.sessionOf(c)
	if err != nil {
		return nil, nil, err
	}
	if bucket != "" {
		if resource == "" || resource == "/" {
			resource = "/" + bucket
		} else {
			resource = "/" + bucket + "/" + trimSlash(resource)
		}
	}
	r := c.NewRequest(method, "", resource, subresource)
	r.RmBehavior(cmn.BehaviorVirtualHosting)
	headers := dict.New(13)
	headers.Add(headerAuthToken, sess.token, false)
	return r, headers, nil
}

func trimSlash(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}

func locationOf(err error) string { return cmn.RedirectLocation(err) }

func (b *backend) ListAllMyBuckets(ctx context.Context, c *core.Ctx, opt *cmn.Option) (
	[]*cmn.BucketInfo, error) {
	r, headers, err := b.newRequest(c, cmn.MethodGet, "", "/", "")
	if err != nil {
		return nil, err
	}
	if err := finishHeaders(r, headers, opt); err != nil {
		return nil, err
	}
	query := dict.New(3)
	query.Add("format", "json", false)
	reply, err := c.DoRequest(ctx, r, headers, query, nil, opt, nil)
	if err != nil {
		return nil, err
	}
	return parseContainerList(reply.Body)
}

func (b *backend) MakeBucket(ctx context.Context, c *core.Ctx, bucket string,
	opt *cmn.Option, sysmd *cmn.SysMD) error {
	r, headers, err := b.newRequest(c, cmn.MethodPut, bucket, "/", "")
	if err != nil {
		return err
	}
	if err := finishHeaders(r, headers, opt); err != nil {
		return err
	}
	_, err = c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	return err
}

func (b *backend) DeleteBucket(ctx context.Context, c *core.Ctx, bucket string, opt *cmn.Option) error {
	r, headers, err := b.newRequest(c, cmn.MethodDelete, bucket, "/", "")
	if err != nil {
		return err
	}
	if err := finishHeaders(r, headers, opt); err != nil {
		return err
	}
	_, err = c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	return err
}

func (b *backend) ListBucket(ctx context.Context, c *core.Ctx, bucket, prefix, delimiter string,
	maxKeys int, opt *cmn.Option) ([]*cmn.ObjectInfo, []string, error) {
	r, headers, err := b.newRequest(c, cmn.MethodGet, bucket, "/", "")
	if err != nil {
		return nil, nil, err
	}
	if err := finishHeaders(r, headers, opt); err != nil {
		return nil, nil, err
	}
	query := dict.New(7)
	query.Add("format", "json", false)
	if prefix != "" {
		query.Add("prefix", prefix, false)
	}
	if delimiter != "" {
		query.Add("delimiter", delimiter, false)
	}
	reply, err := c.DoRequest(ctx, r, headers, query, nil, opt, nil)
	if err != nil {
		return nil, nil, err
	}
	return parseObjectList(reply.Body)
}

func (b *backend) Put(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) (string, error) {
	if rng != nil {
		return "", cmn.Err(cmn.ENotSupp)
	}
	r, headers, err := b.newRequest(c, cmn.MethodPut, bucket, resource, subresource)
	if err != nil {
		return "", err
	}
	r.ObjectType = objectType
	r.SetCondition(cond)
	r.SetData(data)
	r.AddMetadata(md)
	if err := finishHeaders(r, headers, opt); err != nil {
		return "", err
	}
	_, err = c.DoRequest(ctx, r, headers, nil, data, opt, nil)
	return locationOf(err), err
}

func (b *backend) Get(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, string, error) {
	r, headers, err := b.newRequest(c, cmn.MethodGet, bucket, resource, subresource)
	if err != nil {
		return nil, nil, nil, "", err
	}
	r.ObjectType = objectType
	r.SetCondition(cond)
	if rng != nil {
		if err := r.AddRange(*rng); err != nil {
			return nil, nil, nil, "", err
		}
	}
	if err := finishHeaders(r, headers, opt); err != nil {
		return nil, nil, nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, nil, nil, locationOf(err), err
	}
	md, sysmd := parseMetadataFromHeaders(reply.Headers)
	return reply.Body, md, sysmd, "", nil
}

func (b *backend) Head(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (
	*dict.Dict, *cmn.SysMD, string, error) {
	r, headers, err := b.newRequest(c, cmn.MethodHead, bucket, resource, subresource)
	if err != nil {
		return nil, nil, "", err
	}
	r.ObjectType = objectType
	r.SetCondition(cond)
	if err := finishHeaders(r, headers, opt); err != nil {
		return nil, nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, nil, locationOf(err), err
	}
	md, sysmd := parseMetadataFromHeaders(reply.Headers)
	return md, sysmd, "", nil
}

func (b *backend) HeadRaw(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType) (*dict.Dict, string, error) {
	r, headers, err := b.newRequest(c, cmn.MethodHead, bucket, resource, subresource)
	if err != nil {
		return nil, "", err
	}
	r.ObjectType = objectType
	if err := finishHeaders(r, headers, opt); err != nil {
		return nil, "", err
	}
	reply, err := c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	if err != nil {
		return nil, locationOf(err), err
	}
	return reply.Headers.Copy(), "", nil
}

func (b *backend) Delete(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (string, error) {
	r, headers, err := b.newRequest(c, cmn.MethodDelete, bucket, resource, subresource)
	if err != nil {
		return "", err
	}
	r.ObjectType = objectType
	r.SetCondition(cond)
	if err := finishHeaders(r, headers, opt); err != nil {
		return "", err
	}
	_, err = c.DoRequest(ctx, r, headers, nil, nil, opt, nil)
	return locationOf(err), err
}
