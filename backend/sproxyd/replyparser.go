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
	"strings"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/cmn/ntinydb"
)

// parseMetadataFromHeaders decodes the usermd blob into user metadata and
// the X-Scal-* system headers into the typed record (crc32 doubles as the
// etag).
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
		case strings.EqualFold(e.Key, headerSize):
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				sysmd.SetSize(n)
			}
		case strings.EqualFold(e.Key, headerATime):
			if t, err := cmn.ParseHTTPDate(value); err == nil {
				sysmd.SetATime(t)
			}
		case strings.EqualFold(e.Key, headerMTime):
			if t, err := cmn.ParseHTTPDate(value); err == nil {
				sysmd.SetMTime(t)
			}
		case strings.EqualFold(e.Key, headerCTime):
			if t, err := cmn.ParseHTTPDate(value); err == nil {
				sysmd.SetCTime(t)
			}
		case strings.EqualFold(e.Key, headerVersion):
			sysmd.SetVersion(value)
		case strings.EqualFold(e.Key, headerCRC32):
			sysmd.SetETag(value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return md, sysmd, nil
}
