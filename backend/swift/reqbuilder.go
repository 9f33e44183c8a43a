// Package swift implements the OpenStack Swift backend: token login,
// container/object namespace, X-Object-Meta-* metadata, JSON listings.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package swift

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/req"
)

const (
	contentTypeAny  = "*/*"
	contentTypeJSON = "application/json"

	objectMetaPrefix    = "X-Object-Meta-"
	containerMetaPrefix = "X-Container-Meta-"
)

var js = jsoniter.ConfigCompatibleWithStandardLibrary

// finishHeaders lowers the per-method and common headers onto an already
// tokened dictionary.
func finishHeaders(r *req.Request, headers *dict.Dict, opt *cmn.Option) error {
	switch r.Method {
	case cmn.MethodGet:
		if r.RangeEnabled {
			if err := req.AddRangeHeaders(r.Ranges, headers); err != nil {
				return err
			}
		}
		if r.ObjectType == cmn.FTypeAny {
			headers.Add("Accept", contentTypeAny, false)
		} else {
			headers.Add("Accept", contentTypeJSON, false)
		}

	case cmn.MethodPut:
		if r.DataEnabled {
			headers.Add("Content-Length", strconv.Itoa(len(r.Data)), false)
		}
		addMetadataToHeaders(r.Metadata, headers, r.ObjectType)

	case cmn.MethodHead, cmn.MethodDelete:
		// nothing method-specific

	default:
		return cmn.Err(cmn.EInval)
	}

	if err := req.AddConditionHeaders(&r.Condition, headers, false); err != nil {
		return err
	}
	req.AddKeepAlive(r, headers)
	return nil
}

func addMetadataToHeaders(md *dict.Dict, headers *dict.Dict, objectType cmn.FType) {
	prefix := objectMetaPrefix
	if objectType == cmn.FTypeDir {
		prefix = containerMetaPrefix
	}
	_ = md.Iterate(func(e *dict.Entry) error {
		headers.Add(prefix+e.Key, e.Val.String(), false)
		return nil
	})
}

func parseMetadataFromHeaders(headers *dict.Dict) (*dict.Dict, *cmn.SysMD) {
	md := dict.New(13)
	sysmd := &cmn.SysMD{}
	_ = headers.Iterate(func(e *dict.Entry) error {
		key := strings.ToLower(e.Key)
		value := e.Val.String()
		switch {
		case strings.HasPrefix(key, strings.ToLower(objectMetaPrefix)):
			md.Add(e.Key[len(objectMetaPrefix):], value, false)
		case strings.HasPrefix(key, strings.ToLower(containerMetaPrefix)):
			md.Add(e.Key[len(containerMetaPrefix):], value, false)
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
		}
		return nil
	})
	return md, sysmd
}

type (
	jsonContainer struct {
		Name string `json:"name"`
	}
	jsonObject struct {
		Name         string `json:"name"`
		Bytes        int64  `json:"bytes"`
		Hash         string `json:"hash"`
		LastModified string `json:"last_modified"`
		Subdir       string `json:"subdir"`
	}
)

func parseContainerList(body []byte) ([]*cmn.BucketInfo, error) {
	var doc []jsonContainer
	if err := js.Unmarshal(body, &doc); err != nil {
		return nil, cmn.ErrWrap(cmn.Failure, err, "parse container list")
	}
	out := make([]*cmn.BucketInfo, 0, len(doc))
	for _, ct := range doc {
		out = append(out, &cmn.BucketInfo{Name: ct.Name})
	}
	return out, nil
}

func parseObjectList(body []byte) ([]*cmn.ObjectInfo, []string, error) {
	var doc []jsonObject
	if err := js.Unmarshal(body, &doc); err != nil {
		return nil, nil, cmn.ErrWrap(cmn.Failure, err, "parse object list")
	}
	var (
		objects  []*cmn.ObjectInfo
		prefixes []string
	)
	for _, o := range doc {
		if o.Subdir != "" {
			prefixes = append(prefixes, o.Subdir)
			continue
		}
		mtime, _ := cmn.ParseISO8601(o.LastModified)
		objects = append(objects, &cmn.ObjectInfo{
			Path:         o.Name,
			Type:         cmn.FTypeReg,
			LastModified: mtime,
			Size:         o.Bytes,
			ETag:         o.Hash,
		})
	}
	return objects, prefixes, nil
}
