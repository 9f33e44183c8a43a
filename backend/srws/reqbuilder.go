// Package srws implements the Scality RING web service backend: a
// simplified ntinydb-in-header metadata convention with a replica-policy
// switch for lazy versus immediate replication.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package srws

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/cmn/ntinydb"
	"github.com/NVIDIA/droplet/req"
)

const (
	headerUsermd        = "X-Biz-Usermd"
	headerCmd           = "X-Biz-Cmd"
	headerReplicaPolicy = "X-Biz-Replica-Policy"

	cmdUpdateUsermd = "update-usermd"

	policyLazy      = "lazy"
	policyImmediate = "immediate"
)

func addMetadataToHeaders(md *dict.Dict, headers *dict.Dict) error {
	if md.Count() == 0 {
		return nil
	}
	var blob []byte
	err := md.Iterate(func(e *dict.Entry) error {
		if e.Val.Type != dict.TypeString {
			return cmn.Err(cmn.EInval)
		}
		blob = ntinydb.Append(blob, e.Key, e.Val.Str)
		return nil
	})
	if err != nil {
		return err
	}
	headers.Add(headerUsermd, base64.StdEncoding.EncodeToString(blob), false)
	return nil
}

func buildHeaders(r *req.Request, opt *cmn.Option, mdonly bool) (*dict.Dict, error) {
	headers := dict.New(13)

	switch r.Method {
	case cmn.MethodGet, cmn.MethodHead:
		if r.RangeEnabled {
			if err := req.AddRangeHeaders(r.Ranges, headers); err != nil {
				return nil, err
			}
		}
		if opt.Has(cmn.OptLazy) {
			headers.Add(headerReplicaPolicy, policyLazy, false)
		}

	case cmn.MethodPut:
		if r.DataEnabled {
			headers.Add("Content-Length", strconv.Itoa(len(r.Data)), false)
		}
		if r.HasBehavior(cmn.BehaviorExpect) {
			headers.Add("Expect", "100-continue", false)
		}
		if err := addMetadataToHeaders(r.Metadata, headers); err != nil {
			return nil, err
		}
		if mdonly {
			headers.Add(headerCmd, cmdUpdateUsermd, false)
		}
		if opt.Has(cmn.OptLazy) {
			headers.Add(headerReplicaPolicy, policyLazy, false)
		} else {
			headers.Add(headerReplicaPolicy, policyImmediate, false)
		}

	case cmn.MethodDelete:
		// nothing method-specific

	default:
		return nil, cmn.Err(cmn.EInval)
	}

	req.AddKeepAlive(r, headers)
	return headers, nil
}

func parseMetadataFromHeaders(headers *dict.Dict) (*dict.Dict, *cmn.SysMD, error) {
	md := dict.New(13)
	sysmd := &cmn.SysMD{}
	err := headers.Iterate(func(e *dict.Entry) error {
		value := e.Val.String()
		switch {
		case strings.EqualFold(e.Key, headerUsermd):
			if value == "" {
				return nil
			}
			blob, err := base64.StdEncoding.DecodeString(value)
			if err != nil {
				return cmn.ErrWrap(cmn.EInval, err, "usermd header")
			}
			return ntinydb.Decode(blob, func(key string, v []byte) error {
				md.AddValue(key, dict.BytesValue(v), false)
				return nil
			})
		case strings.EqualFold(e.Key, "Content-Length"):
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				sysmd.SetSize(n)
			}
		case strings.EqualFold(e.Key, "Last-Modified"):
			if t, err := cmn.ParseHTTPDate(value); err == nil {
				sysmd.SetMTime(t)
			}
		case strings.EqualFold(e.Key, "ETag"):
			sysmd.SetETag(value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return md, sysmd, nil
}
