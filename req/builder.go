// Package req holds the per-call request state and the generic header
// composition and signing helpers that per-backend request builders lower it
// with.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package req

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
)

// URLEncode percent-encodes every byte outside the unreserved set.
func URLEncode(s string) string {
	const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.~"
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(unreserved, c) >= 0 {
			sb.WriteByte(c)
		} else {
			fmt.Fprintf(&sb, "%%%02X", c)
		}
	}
	return sb.String()
}

// EncodeResource url-encodes a resource path keeping the leading slash
// literal - some servers do not like an encoded slash there.
func EncodeResource(resource string) string {
	if strings.HasPrefix(resource, "/") {
		resource = resource[1:]
	}
	// keep path separators literal as well; only segment bytes are escaped
	segs := strings.Split(resource, "/")
	for i, seg := range segs {
		segs[i] = URLEncode(seg)
	}
	return "/" + strings.Join(segs, "/")
}

// AddDate stamps the request wall clock in RFC 1123 GMT.
func AddDate(headers *dict.Dict, now time.Time) {
	headers.Add("Date", cmn.FormatHTTPDate(now), false)
}

// AddHost synthesizes the Host header: "<bucket>.<host>" under virtual
// hosting, the bare endpoint host otherwise.
func AddHost(r *Request, headers *dict.Dict, host string) {
	if r.HasBehavior(cmn.BehaviorVirtualHosting) && r.Bucket != "" {
		headers.Add("Host", r.Bucket+"."+host, false)
	} else {
		headers.Add("Host", host, false)
	}
}

// AddKeepAlive emits Connection: keep-alive when the behavior is set.
func AddKeepAlive(r *Request, headers *dict.Dict) {
	if r.HasBehavior(cmn.BehaviorKeepAlive) {
		headers.Add("Connection", "keep-alive", false)
	}
}

// condition → header name, both for the primary resource and a copy source
func conditionHeader(ct cmn.ConditionType, copySource bool) string {
	switch ct {
	case cmn.CondIfModifiedSince:
		if copySource {
			return "x-amz-copy-source-if-modified-since"
		}
		return "If-Modified-Since"
	case cmn.CondIfUnmodifiedSince:
		if copySource {
			return "x-amz-copy-source-if-unmodified-since"
		}
		return "If-Unmodified-Since"
	case cmn.CondIfMatch:
		if copySource {
			return "x-amz-copy-source-if-match"
		}
		return "If-Match"
	case cmn.CondIfNoneMatch:
		if copySource {
			return "x-amz-copy-source-if-none-match"
		}
		return "If-None-Match"
	}
	return ""
}

// AddConditionHeaders lowers a conditional clause into If-* headers (or
// their x-amz-copy-source-if-* forms).
func AddConditionHeaders(cond *cmn.Condition, headers *dict.Dict, copySource bool) error {
	if cond.Empty() {
		return nil
	}
	for _, c := range cond.Conds {
		name := conditionHeader(c.Type, copySource)
		if name == "" {
			return cmn.Err(cmn.EInval)
		}
		switch c.Type {
		case cmn.CondIfModifiedSince, cmn.CondIfUnmodifiedSince:
			headers.Add(name, cmn.FormatHTTPDate(c.Time), false)
		default:
			headers.Add(name, c.ETag, false)
		}
	}
	return nil
}

// AddRangeHeaders renders the byte ranges as "Range: bytes=a-b[,a-b]*".
func AddRangeHeaders(ranges []cmn.Range, headers *dict.Dict) error {
	if len(ranges) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("bytes=")
	for i, rng := range ranges {
		if i > 0 {
			sb.WriteByte(',')
		}
		switch {
		case rng.Start == cmn.OffsetUndef && rng.End == cmn.OffsetUndef:
			return cmn.Err(cmn.EInval)
		case rng.Start == cmn.OffsetUndef:
			fmt.Fprintf(&sb, "-%d", rng.End)
		case rng.End == cmn.OffsetUndef:
			fmt.Fprintf(&sb, "%d-", rng.Start)
		default:
			fmt.Fprintf(&sb, "%d-%d", rng.Start, rng.End)
		}
	}
	headers.Add("Range", sb.String(), false)
	return nil
}

// AddContentRangeHeader renders a ranged write as Content-Range.
func AddContentRangeHeader(rng cmn.Range, size int64, headers *dict.Dict) error {
	if rng.Start == cmn.OffsetUndef || rng.End == cmn.OffsetUndef {
		return cmn.Err(cmn.EInval)
	}
	headers.Add("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.Start, rng.End, size), false)
	return nil
}

// AddContentMD5 computes and attaches the base64 MD5 of the payload.
func AddContentMD5(r *Request, headers *dict.Dict) error {
	if !r.DataEnabled {
		return cmn.Err(cmn.EInval)
	}
	digest := md5.Sum(r.Data)
	headers.Add("Content-MD5", base64.StdEncoding.EncodeToString(digest[:]), false)
	return nil
}

// AddBasicAuthorization attaches HTTP Basic credentials (CDMI).
func AddBasicAuthorization(r *Request, headers *dict.Dict) {
	raw := r.AccessKey + ":" + r.SecretKey
	headers.Add("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(raw)), false)
}

// MakeSignature builds the S3-style canonical string: method, Content-MD5,
// Content-Type, Expires-or-Date - each newline-terminated - then the
// lexicographically sorted x-amz-* headers as "key:value\n", then
// "/<bucket>", the url-encoded resource, and "?<subresource>".
func MakeSignature(method, bucket, resourceUE, subresource string, headers *dict.Dict) string {
	sbuf := dict.NewSbuf(256)

	sbuf.AddStr(method)
	sbuf.AddStr("\n")

	sbuf.AddStr(headers.GetValue("Content-MD5"))
	sbuf.AddStr("\n")

	sbuf.AddStr(headers.GetValue("Content-Type"))
	sbuf.AddStr("\n")

	if v := headers.GetValue("Expires"); v != "" {
		sbuf.AddStr(v)
	} else {
		sbuf.AddStr(headers.GetValue("Date"))
	}
	sbuf.AddStr("\n")

	var amz []*dict.Entry
	_ = headers.Iterate(func(e *dict.Entry) error {
		if strings.HasPrefix(strings.ToLower(e.Key), "x-amz-") {
			amz = append(amz, e)
		}
		return nil
	})
	sort.Slice(amz, func(i, j int) bool { return amz[i].Key < amz[j].Key })
	for _, e := range amz {
		sbuf.AddStr(e.Key)
		sbuf.AddStr(":")
		sbuf.AddStr(e.Val.String())
		sbuf.AddStr("\n")
	}

	if bucket != "" {
		sbuf.AddStr("/")
		sbuf.AddStr(bucket)
	}
	sbuf.AddStr(resourceUE)
	if subresource != "" {
		sbuf.AddStr("?")
		sbuf.AddStr(subresource)
	}
	return sbuf.String()
}

// Sign computes base64(HMAC-SHA1(secret, stringToSign)).
func Sign(secretKey, stringToSign string) string {
	mac := hmac.New(sha1.New, []byte(secretKey))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// AddAuthorization signs the request and attaches the AWS authorization
// header.
func AddAuthorization(r *Request, headers *dict.Dict) {
	resourceUE := EncodeResource(r.Resource)
	stringToSign := MakeSignature(r.Method.String(), r.Bucket, resourceUE, r.Subresource, headers)
	glog.V(4).Infof("[%s] stringtosign=%q", r.TraceID, stringToSign)
	sig := Sign(r.SecretKey, stringToSign)
	headers.Add("Authorization", fmt.Sprintf("AWS %s:%s", r.AccessKey, sig), false)
}

// SignedURLParams computes the query-string authorization of a pre-signed
// URL: the Expires epoch and the signature, to be appended as query
// parameters together with the access key.
func SignedURLParams(r *Request, headers *dict.Dict) (expires, signature string) {
	expires = strconv.FormatInt(r.Expires.Unix(), 10)
	headers.Add("Expires", expires, false)
	resourceUE := EncodeResource(r.Resource)
	stringToSign := MakeSignature(r.Method.String(), r.Bucket, resourceUE, r.Subresource, headers)
	return expires, Sign(r.SecretKey, stringToSign)
}

// GenHTTPRequest renders the start line plus headers:
// "<METHOD> <resource-ue>[?subresource[&k=v]*] HTTP/1.1\r\n" then each
// header, then the terminating CRLF added by the caller before the body.
func GenHTTPRequest(r *Request, headers, queryParams *dict.Dict) []byte {
	sbuf := dict.NewSbuf(512)

	sbuf.AddStr(r.Method.String())
	sbuf.AddStr(" ")
	sbuf.AddStr(EncodeResource(r.Resource))

	if r.Subresource != "" || queryParams.Count() > 0 {
		sbuf.AddStr("?")
	}
	if r.Subresource != "" {
		sbuf.AddStr(r.Subresource)
	}
	if queryParams.Count() > 0 {
		first := r.Subresource == ""
		_ = queryParams.Iterate(func(e *dict.Entry) error {
			if !first {
				sbuf.AddStr("&")
			}
			first = false
			sbuf.AddStr(URLEncode(e.Key))
			sbuf.AddStr("=")
			sbuf.AddStr(URLEncode(e.Val.String()))
			return nil
		})
	}
	sbuf.AddStr(" HTTP/1.1\r\n")

	_ = headers.Iterate(func(e *dict.Entry) error {
		sbuf.AddStr(e.Key)
		sbuf.AddStr(": ")
		sbuf.AddStr(e.Val.String())
		sbuf.AddStr("\r\n")
		return nil
	})
	return sbuf.Bytes()
}
