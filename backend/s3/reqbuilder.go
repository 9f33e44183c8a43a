// Package s3 implements the S3-compatible REST backend: AWS-style signed
// requests, virtual-hosted buckets, XML listings, and x-amz-* metadata.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package s3

import (
	"strconv"
	"time"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/req"
)

const metaHeaderPrefix = "x-amz-meta-"

// buildHeaders lowers the request state into the S3 headers dictionary:
// per-method headers first, then the common ones, then the signed
// authorization. The Host header is synthesized at connect time.
func buildHeaders(r *req.Request) (*dict.Dict, error) {
	headers := dict.New(13)

	switch r.Method {
	case cmn.MethodGet, cmn.MethodHead:
		if err := req.AddRangeHeaders(r.Ranges, headers); err != nil {
			return nil, err
		}
		if err := req.AddConditionHeaders(&r.Condition, headers, false); err != nil {
			return nil, err
		}

	case cmn.MethodPut, cmn.MethodPost:
		if r.CacheControl != "" {
			headers.Add("Cache-Control", r.CacheControl, false)
		}
		if r.ContentDisposition != "" {
			headers.Add("Content-Disposition", r.ContentDisposition, false)
		}
		if r.ContentEncoding != "" {
			headers.Add("Content-Encoding", r.ContentEncoding, false)
		}
		if r.HasBehavior(cmn.BehaviorMD5) {
			if err := req.AddContentMD5(r, headers); err != nil {
				return nil, err
			}
		}
		if r.DataEnabled {
			headers.Add("Content-Length", strconv.Itoa(len(r.Data)), false)
		}
		if r.ContentType != "" {
			headers.Add("Content-Type", r.ContentType, false)
		}
		if r.HasBehavior(cmn.BehaviorExpect) {
			headers.Add("Expect", "100-continue", false)
		}
		if r.CannedACL != cmn.CannedACLUndef {
			headers.Add("x-amz-acl", r.CannedACL.String(), false)
		}
		addMetadataToHeaders(r.Metadata, headers)
		if r.StorageClass != cmn.StorageClassUndef {
			headers.Add("x-amz-storage-class", r.StorageClass.String(), false)
		}
		if r.HasBehavior(cmn.BehaviorCopy) {
			addSourceToHeaders(r, headers)
			if r.MetadataDirective != cmn.MetadataDirectiveUndef {
				headers.Add("x-amz-metadata-directive", r.MetadataDirective.String(), false)
			}
			if err := req.AddConditionHeaders(&r.CopySourceCondition, headers, true); err != nil {
				return nil, err
			}
		}

	case cmn.MethodDelete:
		// nothing method-specific

	default:
		return nil, cmn.Err(cmn.EInval)
	}

	req.AddKeepAlive(r, headers)

	if r.HasBehavior(cmn.BehaviorQueryString) {
		headers.Add("Expires", strconv.FormatInt(r.Expires.Unix(), 10), false)
	} else {
		req.AddDate(headers, time.Now())
	}

	req.AddAuthorization(r, headers)
	return headers, nil
}

func addMetadataToHeaders(md *dict.Dict, headers *dict.Dict) {
	_ = md.Iterate(func(e *dict.Entry) error {
		headers.Add(metaHeaderPrefix+e.Key, e.Val.String(), false)
		return nil
	})
}

// addSourceToHeaders renders "x-amz-copy-source: /<bucket><resource-ue>[?subres]".
func addSourceToHeaders(r *req.Request, headers *dict.Dict) {
	src := "/" + r.SrcBucket + req.EncodeResource(r.SrcResource)
	if r.SrcSubresource != "" {
		src += "?" + r.SrcSubresource
	}
	headers.Add("x-amz-copy-source", src, false)
}
