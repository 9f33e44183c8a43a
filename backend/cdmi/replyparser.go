// Package cdmi implements the CDMI backend: JSON object bodies in native
// mode, header-flattened metadata in HTTP-compat mode, CDMI object IDs, and
// ACE-based ACLs.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cdmi

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
)

// parseMetadataFromHeaders handles the HTTP-compat encoding: the
// X-Object-Meta-* / X-Container-Meta-* families become user metadata keyed
// by suffix, recognized system headers populate the typed record.
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
		case key == "content-type":
			if t := ftypeOfContentType(value); t != cmn.FTypeUndef {
				sysmd.SetFType(t)
			}
		}
		return nil
	})
	return md, sysmd
}

// parseMetadataFromBody walks a native-mode JSON reply once, extracting
// objectID, parentID, objectType, the metadata sub-dictionary, and the
// cdmi_* system fields stored inside it.
func parseMetadataFromBody(body []byte) (*dict.Dict, *cmn.SysMD, error) {
	tree, err := dict.FromJSON(body)
	if err != nil {
		return nil, nil, cmn.ErrWrap(cmn.Failure, err, "cdmi reply body")
	}
	if tree.Type != dict.TypeSubDict {
		return nil, nil, cmn.Errf(cmn.Failure, "cdmi reply is not an object")
	}
	root := tree.SubDict

	md := dict.New(13)
	sysmd := &cmn.SysMD{}

	if id := root.GetLoweredValue("objectID"); id != "" {
		sysmd.SetID(id)
		if en, _, err := (idScheme{}).StringToID(id); err == nil {
			sysmd.EnterpriseNumber = en
			sysmd.Mask |= cmn.SysMDMaskEnterpriseNumber
		}
	}
	if pid := root.GetLoweredValue("parentID"); pid != "" {
		sysmd.SetParentID(pid)
	}
	if ot := root.GetLoweredValue("objectType"); ot != "" {
		if t := ftypeOfContentType(ot); t != cmn.FTypeUndef {
			sysmd.SetFType(t)
		}
	}

	if e := root.GetLowered("metadata"); e != nil && e.Val.Type == dict.TypeSubDict {
		_ = e.Val.SubDict.Iterate(func(me *dict.Entry) error {
			value := me.Val.String()
			switch me.Key {
			case "cdmi_size":
				if n, err := strconv.ParseInt(value, 10, 64); err == nil {
					sysmd.SetSize(n)
				}
			case "cdmi_mtime":
				if t, err := cmn.ParseISO8601(value); err == nil {
					sysmd.SetMTime(t)
				}
			case "cdmi_atime":
				if t, err := cmn.ParseISO8601(value); err == nil {
					sysmd.SetATime(t)
				}
			default:
				md.AddValue(me.Key, me.Val.Copy(), false)
			}
			return nil
		})
	}
	return md, sysmd, nil
}

// parseValueFromBody extracts and decodes the payload of a native-mode GET.
func parseValueFromBody(body []byte) ([]byte, error) {
	tree, err := dict.FromJSON(body)
	if err != nil {
		return nil, cmn.ErrWrap(cmn.Failure, err, "cdmi reply body")
	}
	if tree.Type != dict.TypeSubDict {
		return nil, cmn.Errf(cmn.Failure, "cdmi reply is not an object")
	}
	root := tree.SubDict
	value := root.GetLoweredValue("value")
	if value == "" {
		return nil, nil
	}
	if enc := root.GetLoweredValue("valuetransferencoding"); enc == "" || enc == "base64" {
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, cmn.ErrWrap(cmn.Failure, err, "cdmi value")
		}
		return raw, nil
	}
	return []byte(value), nil
}

// parseChildren extracts a container listing from a native-mode GET. Child
// names ending in "/" are containers.
func parseChildren(body []byte, prefix string) ([]*cmn.ObjectInfo, []string, error) {
	tree, err := dict.FromJSON(body)
	if err != nil {
		return nil, nil, cmn.ErrWrap(cmn.Failure, err, "cdmi reply body")
	}
	if tree.Type != dict.TypeSubDict {
		return nil, nil, cmn.Errf(cmn.Failure, "cdmi reply is not an object")
	}
	e := tree.SubDict.GetLowered("children")
	if e == nil {
		return nil, nil, nil
	}
	if e.Val.Type != dict.TypeVector {
		return nil, nil, cmn.Errf(cmn.Failure, "cdmi children is not an array")
	}
	var (
		objects  []*cmn.ObjectInfo
		prefixes []string
	)
	base := prefix
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	for _, item := range e.Val.Vector.Items {
		name := item.String()
		if name == "" {
			continue
		}
		if strings.HasSuffix(name, "/") {
			prefixes = append(prefixes, base+name)
			continue
		}
		objects = append(objects, &cmn.ObjectInfo{Path: base + name, Type: cmn.FTypeReg})
	}
	return objects, prefixes, nil
}
