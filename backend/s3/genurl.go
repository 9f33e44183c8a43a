// Package s3 implements the S3-compatible REST backend: AWS-style signed
// requests, virtual-hosted buckets, XML listings, and x-amz-* metadata.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package s3

import (
	"fmt"
	"strings"
	"time"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
	"github.com/NVIDIA/droplet/req"
)

// genURL builds a pre-signed URL: the signature and expiry travel as query
// parameters instead of headers.
func genURL(c *core.Ctx, bucket, resource, subresource string, expires time.Time) (string, error) {
	prof := c.Profile()
	r := c.NewRequest(cmn.MethodGet, bucket, resource, subresource)
	r.AddBehavior(cmn.BehaviorQueryString)
	r.Expires = expires

	headers := dict.New(7)
	expiresStr, signature := req.SignedURLParams(r, headers)

	scheme := "http"
	if prof.UseHTTPS {
		scheme = "https"
	}
	host := prof.Host
	if i := strings.IndexAny(host, ";, "); i >= 0 {
		host = host[:i]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s://%s", scheme, host)
	if bucket != "" {
		sb.WriteString("/" + bucket)
	}
	sb.WriteString(req.EncodeResource(r.Resource))
	sep := "?"
	if subresource != "" {
		sb.WriteString(sep + subresource)
		sep = "&"
	}
	fmt.Fprintf(&sb, "%sAWSAccessKeyId=%s", sep, req.URLEncode(r.AccessKey))
	fmt.Fprintf(&sb, "&Signature=%s", req.URLEncode(signature))
	fmt.Fprintf(&sb, "&Expires=%s", expiresStr)
	return sb.String(), nil
}
