// Package sproxyd implements the Scality sproxyd backend: id-addressed
// objects under the proxy base path, user metadata as one base64-wrapped
// ntinydb header, and version/consistency control headers.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package sproxyd

import (
	"encoding/base64"
	"strconv"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/cmn/ntinydb"
	"github.com/NVIDIA/droplet/req"
)

const (
	headerUsermd        = "X-Scal-Usermd"
	headerCmd           = "X-Scal-Cmd"
	headerReplicaPolicy = "X-Scal-Replica-Policy"
	headerForceVersion  = "X-Scal-Version"
	headerSize          = "X-Scal-Size"
	headerATime         = "X-Scal-Atime"
	headerMTime         = "X-Scal-Mtime"
	headerCTime         = "X-Scal-Ctime"
	headerVersion       = "X-Scal-Version-Id"
	headerCRC32         = "X-Scal-Crc32"

	cmdUpdateUsermd = "update-usermd"
	cmdForceVersion = "force-version"

	policyConsistent = "consistent"
)

// queryOf renders the expect-version option as the ?version=N query.
func queryOf(opt *cmn.Option) *dict.Dict {
	if !opt.Has(cmn.OptExpectVersion) {
		return nil
	}
	q := dict.New(3)
	q.Add("version", opt.ExpectVersion, false)
	return q
}

// addMetadataToHeaders serializes user metadata into one ntinydb blob,
// base64-wrapped in a single header.
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

// buildHeaders lowers the request into sproxyd headers. Consistency rides the
// replica-policy header, metadata-only updates ride the cmd switch, and forced
// versions set the cmd switch plus a dedicated version header.
func buildHeaders(r *req.Request, opt *cmn.Option, mdonly bool) (*dict.Dict, error) {
	headers := dict.New(13)

	switch r.Method {
	case cmn.MethodGet, cmn.MethodHead:
		if r.RangeEnabled {
			if err := req.AddRangeHeaders(r.Ranges, headers); err != nil {
				return nil, err
			}
		}

	case cmn.MethodPut:
		if r.DataEnabled {
			headers.Add("Content-Length", strconv.Itoa(len(r.Data)), false)
		}
		if r.HasBehavior(cmn.BehaviorMD5) && r.DataEnabled {
			if err := req.AddContentMD5(r, headers); err != nil {
				return nil, err
			}
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

	case cmn.MethodDelete:
		// nothing method-specific

	default:
		return nil, cmn.Err(cmn.EInval)
	}

	if opt.Has(cmn.OptConsistent) {
		headers.Add(headerReplicaPolicy, policyConsistent, false)
	}
	if opt.Has(cmn.OptForceVersion) {
		headers.Add(headerCmd, cmdForceVersion, false)
		headers.Add(headerForceVersion, opt.ForceVersion, false)
	}

	req.AddKeepAlive(r, headers)
	return headers, nil
}
