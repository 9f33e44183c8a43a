// Package s3 implements the S3-compatible REST backend: AWS-style signed
// requests, virtual-hosted buckets, XML listings, and x-amz-* metadata.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package s3

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
)

// parseMetadata demultiplexes reply headers into user metadata (the
// x-amz-meta- family, keyed by suffix) and typed system metadata.
func parseMetadata(headers *dict.Dict) (*dict.Dict, *cmn.SysMD) {
	md := dict.New(13)
	sysmd := &cmn.SysMD{}
	_ = headers.Iterate(func(e *dict.Entry) error {
		key := strings.ToLower(e.Key)
		value := e.Val.String()
		switch {
		case strings.HasPrefix(key, metaHeaderPrefix):
			md.Add(e.Key[len(metaHeaderPrefix):], value, false)
		case key == "content-length":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				sysmd.SetSize(n)
			}
		case key == "last-modified":
			if t, err := cmn.ParseHTTPDate(value); err == nil {
				sysmd.SetMTime(t)
			}
		case key == "etag":
			sysmd.SetETag(value)
		case key == "x-amz-version-id":
			sysmd.SetVersion(value)
		}
		return nil
	})
	return md, sysmd
}

//
// XML reply documents
//

type (
	xmlBucket struct {
		Name         string `xml:"Name"`
		CreationDate string `xml:"CreationDate"`
	}
	xmlListAllMyBucketsResult struct {
		Buckets []xmlBucket `xml:"Buckets>Bucket"`
	}

	xmlObject struct {
		Key          string `xml:"Key"`
		LastModified string `xml:"LastModified"`
		ETag         string `xml:"ETag"`
		Size         int64  `xml:"Size"`
	}
	xmlCommonPrefix struct {
		Prefix string `xml:"Prefix"`
	}
	xmlListBucketResult struct {
		Contents       []xmlObject       `xml:"Contents"`
		CommonPrefixes []xmlCommonPrefix `xml:"CommonPrefixes"`
		IsTruncated    bool              `xml:"IsTruncated"`
	}

	xmlDeleted struct {
		Key       string `xml:"Key"`
		VersionID string `xml:"VersionId"`
	}
	xmlDeleteError struct {
		Key     string `xml:"Key"`
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	}
	xmlDeleteResult struct {
		Deleted []xmlDeleted     `xml:"Deleted"`
		Errors  []xmlDeleteError `xml:"Error"`
	}
)

func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := cmn.ParseHTTPDate(s); err == nil {
		return t
	}
	return time.Time{}
}

func parseListAllMyBuckets(body []byte) ([]*cmn.BucketInfo, error) {
	var doc xmlListAllMyBucketsResult
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, cmn.ErrWrap(cmn.Failure, err, "parse bucket list")
	}
	out := make([]*cmn.BucketInfo, 0, len(doc.Buckets))
	for _, b := range doc.Buckets {
		out = append(out, &cmn.BucketInfo{Name: b.Name, CreationDate: parseTimestamp(b.CreationDate)})
	}
	return out, nil
}

func parseListBucket(body []byte) ([]*cmn.ObjectInfo, []string, error) {
	var doc xmlListBucketResult
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, nil, cmn.ErrWrap(cmn.Failure, err, "parse object list")
	}
	objects := make([]*cmn.ObjectInfo, 0, len(doc.Contents))
	for _, o := range doc.Contents {
		etag := strings.Trim(o.ETag, `"`)
		objects = append(objects, &cmn.ObjectInfo{
			Path:         o.Key,
			Type:         cmn.FTypeReg,
			LastModified: parseTimestamp(o.LastModified),
			Size:         o.Size,
			ETag:         etag,
		})
	}
	prefixes := make([]string, 0, len(doc.CommonPrefixes))
	for _, p := range doc.CommonPrefixes {
		prefixes = append(prefixes, p.Prefix)
	}
	return objects, prefixes, nil
}

func parseDeleteAll(body []byte) ([]cmn.DeleteResult, error) {
	var doc xmlDeleteResult
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, cmn.ErrWrap(cmn.Failure, err, "parse delete result")
	}
	out := make([]cmn.DeleteResult, 0, len(doc.Deleted)+len(doc.Errors))
	for _, d := range doc.Deleted {
		out = append(out, cmn.DeleteResult{Name: d.Key, VersionID: d.VersionID, Status: cmn.Success})
	}
	for _, e := range doc.Errors {
		out = append(out, cmn.DeleteResult{Name: e.Key, Status: cmn.Failure, Error: e.Code + ": " + e.Message})
	}
	return out, nil
}

//
// XML request documents
//

func makeBucketBody(loc cmn.LocationConstraint) []byte {
	var sb strings.Builder
	sb.WriteString(`<CreateBucketConfiguration xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	sb.WriteString("<LocationConstraint>")
	xml.EscapeText(&sb, []byte(loc.String()))
	sb.WriteString("</LocationConstraint>")
	sb.WriteString("</CreateBucketConfiguration>")
	return []byte(sb.String())
}

func makeDeleteAllBody(resources []string) []byte {
	var sb strings.Builder
	sb.WriteString("<Delete>")
	for _, res := range resources {
		sb.WriteString("<Object><Key>")
		xml.EscapeText(&sb, []byte(strings.TrimPrefix(res, "/")))
		sb.WriteString("</Key></Object>")
	}
	sb.WriteString("</Delete>")
	return []byte(sb.String())
}
