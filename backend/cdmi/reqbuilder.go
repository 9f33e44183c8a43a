// Package cdmi implements the CDMI backend: JSON object bodies in native
// mode, header-flattened metadata in HTTP-compat mode, CDMI object IDs, and
// ACE-based ACLs.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cdmi

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/req"
)

const (
	specVersionHeader = "X-CDMI-Specification-Version"
	specVersion       = "1.0.1"

	contentTypeAny        = "*/*"
	contentTypeObject     = "application/cdmi-object"
	contentTypeContainer  = "application/cdmi-container"
	contentTypeCapability = "application/cdmi-capability"
	contentTypeDomain     = "application/cdmi-domain"
	contentTypeChardevice = "application/cdmi-chardevice"
	contentTypeBlockdev   = "application/cdmi-blockdevice"
	contentTypeFifo       = "application/cdmi-fifo"
	contentTypeSocket     = "application/cdmi-socket"
	contentTypeSymlink    = "application/cdmi-symlink"

	objectMetaPrefix    = "X-Object-Meta-"
	containerMetaPrefix = "X-Container-Meta-"
)

func contentTypeOf(t cmn.FType) string {
	switch t {
	case cmn.FTypeAny:
		return contentTypeAny
	case cmn.FTypeReg:
		return contentTypeObject
	case cmn.FTypeDir:
		return contentTypeContainer
	case cmn.FTypeCap:
		return contentTypeCapability
	case cmn.FTypeDom:
		return contentTypeDomain
	case cmn.FTypeChrdev:
		return contentTypeChardevice
	case cmn.FTypeBlkdev:
		return contentTypeBlockdev
	case cmn.FTypeFifo:
		return contentTypeFifo
	case cmn.FTypeSocket:
		return contentTypeSocket
	case cmn.FTypeSymlink:
		return contentTypeSymlink
	}
	return ""
}

func ftypeOfContentType(ct string) cmn.FType {
	switch ct {
	case contentTypeObject:
		return cmn.FTypeReg
	case contentTypeContainer:
		return cmn.FTypeDir
	case contentTypeCapability:
		return cmn.FTypeCap
	case contentTypeDomain:
		return cmn.FTypeDom
	case contentTypeChardevice:
		return cmn.FTypeChrdev
	case contentTypeBlockdev:
		return cmn.FTypeBlkdev
	case contentTypeFifo:
		return cmn.FTypeFifo
	case contentTypeSocket:
		return cmn.FTypeSocket
	case contentTypeSymlink:
		return cmn.FTypeSymlink
	}
	return cmn.FTypeUndef
}

// sysmdToMetadata lowers the caller's system-metadata intent into cdmi_*
// metadata fields, canned ACLs included.
func sysmdToMetadata(sysmd *cmn.SysMD, md *dict.Dict) error {
	if sysmd == nil {
		return nil
	}
	if sysmd.Has(cmn.SysMDMaskSize) {
		md.Add("cdmi_size", strconv.FormatInt(sysmd.Size, 10), false)
	}
	if sysmd.Has(cmn.SysMDMaskATime) {
		md.Add("cdmi_atime", cmn.FormatISO8601(sysmd.ATime), false)
	}
	if sysmd.Has(cmn.SysMDMaskMTime) {
		md.Add("cdmi_mtime", cmn.FormatISO8601(sysmd.MTime), false)
	}
	if sysmd.Has(cmn.SysMDMaskCTime) {
		md.Add("cdmi_ctime", cmn.FormatISO8601(sysmd.CTime), false)
	}
	if sysmd.Has(cmn.SysMDMaskOwner) {
		md.Add("cdmi_owner", sysmd.Owner, false)
	}
	if sysmd.Has(cmn.SysMDMaskGroup) {
		md.Add("cdmi_group", sysmd.Group, false)
	}

	var aces []cmn.ACE
	if sysmd.Has(cmn.SysMDMaskCannedACL) {
		aces = cannedACLToACEs(sysmd.CannedACL)
	}
	if sysmd.Has(cmn.SysMDMaskACL) {
		aces = sysmd.ACEs
	}
	if len(aces) > 0 {
		vec := dict.NewVec()
		for _, ace := range aces {
			who := ace.Who.String()
			if who == "" {
				return cmn.Err(cmn.EInval)
			}
			row := dict.New(7)
			row.Add("identifier", who, false)
			row.Add("acetype", fmt.Sprintf("0x%08x", ace.Type), false)
			row.Add("aceflags", fmt.Sprintf("0x%08x", ace.Flags), false)
			row.Add("acemask", fmt.Sprintf("0x%08x", ace.Mask), false)
			vec.Add(dict.DictValue(row))
		}
		md.AddValue("cdmi_acl", dict.VecValue(vec), false)
	}
	return nil
}

// cannedACLToACEs expands the simplified ACL vocabulary into ACE rows.
func cannedACLToACEs(acl cmn.CannedACL) []cmn.ACE {
	switch acl {
	case cmn.CannedACLPrivate:
		return []cmn.ACE{
			{Who: cmn.ACEWhoOwner, Type: cmn.ACETypeAllow, Mask: cmn.ACEMaskRWAll},
		}
	case cmn.CannedACLPublicRead:
		return []cmn.ACE{
			{Who: cmn.ACEWhoOwner, Type: cmn.ACETypeAllow, Mask: cmn.ACEMaskRWAll},
			{Who: cmn.ACEWhoEveryone, Type: cmn.ACETypeAllow, Mask: cmn.ACEMaskReadAll},
		}
	case cmn.CannedACLPublicReadWrite:
		return []cmn.ACE{
			{Who: cmn.ACEWhoOwner, Type: cmn.ACETypeAllow, Mask: cmn.ACEMaskRWAll},
			{Who: cmn.ACEWhoEveryone, Type: cmn.ACETypeAllow, Mask: cmn.ACEMaskReadAll | cmn.ACEMaskWriteAll},
		}
	case cmn.CannedACLAuthenticatedRead:
		return []cmn.ACE{
			{Who: cmn.ACEWhoAuthenticated, Type: cmn.ACETypeAllow, Mask: cmn.ACEMaskReadAll},
		}
	}
	return nil
}

func copyDirectiveField(directive cmn.CopyDirective) (string, error) {
	switch directive {
	case cmn.CopyDirectiveUndef:
		return "", nil
	case cmn.CopyDirectiveCopy:
		return "copy", nil
	case cmn.CopyDirectiveLink:
		return "link", nil
	case cmn.CopyDirectiveSymlink:
		return "reference", nil
	case cmn.CopyDirectiveMove:
		return "move", nil
	case cmn.CopyDirectiveMkdent:
		return "mkdent", nil
	case cmn.CopyDirectiveRmdent:
		return "rmdent", nil
	case cmn.CopyDirectiveMvdent:
		return "mvdent", nil
	case cmn.CopyDirectiveMetadataReplace:
		return "", cmn.Err(cmn.EInval)
	}
	return "", cmn.Err(cmn.ENotSupp)
}

// buildRequest lowers the request state into CDMI headers and, in native
// mode, the JSON body: metadata, at most one copy-directive field, and the
// base64 payload with its valuetransferencoding marker.
func buildRequest(r *req.Request) (headers *dict.Dict, body []byte, err error) {
	headers = dict.New(13)
	httpCompat := r.HasBehavior(cmn.BehaviorHTTPCompat)

	switch r.Method {
	case cmn.MethodGet, cmn.MethodHead:
		if r.RangeEnabled && len(r.Ranges) > 0 {
			if err := req.AddRangeHeaders(r.Ranges, headers); err != nil {
				return nil, nil, err
			}
		}
		if ct := contentTypeOf(r.ObjectType); ct != "" {
			headers.Add("Accept", ct, false)
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
		if !httpCompat {
			bodyDict := dict.New(13)
			if r.Metadata.Count() > 0 {
				bodyDict.AddValue("metadata", dict.DictValue(r.Metadata.Copy()), false)
			}
			field, ferr := copyDirectiveField(r.CopyDirective)
			if ferr != nil {
				return nil, nil, ferr
			}
			if field != "" {
				if r.SrcResource == "" {
					return nil, nil, cmn.Err(cmn.EInval)
				}
				bodyDict.Add(field, r.SrcResource, false)
			}
			if r.DataEnabled && r.ObjectType != cmn.FTypeDir {
				bodyDict.Add("value", base64.StdEncoding.EncodeToString(r.Data), false)
				bodyDict.Add("valuetransferencoding", "base64", false)
			}
			body, err = dict.DictValue(bodyDict).JSON()
			if err != nil {
				return nil, nil, cmn.ErrWrap(cmn.Failure, err, "cdmi body")
			}
			headers.Add("Content-Length", strconv.Itoa(len(body)), false)
		} else {
			addMetadataToHeaders(r.Metadata, headers, r.ObjectType)
			if r.RangeEnabled && len(r.Ranges) > 0 {
				sz := int64(len(r.Data))
				if err := req.AddContentRangeHeader(r.Ranges[0], sz, headers); err != nil {
					return nil, nil, err
				}
			}
			if r.DataEnabled {
				body = r.Data
				headers.Add("Content-Length", strconv.Itoa(len(body)), false)
			}
		}
		if r.HasBehavior(cmn.BehaviorExpect) {
			headers.Add("Expect", "100-continue", false)
		}
		if ct := contentTypeOf(r.ObjectType); ct != "" && r.ObjectType != cmn.FTypeAny {
			headers.Add("Content-Type", ct, false)
		}

	case cmn.MethodDelete:
		// nothing method-specific

	default:
		return nil, nil, cmn.Err(cmn.EInval)
	}

	if err := req.AddConditionHeaders(&r.Condition, headers, false); err != nil {
		return nil, nil, err
	}
	if !httpCompat {
		headers.Add(specVersionHeader, specVersion, false)
	}
	req.AddKeepAlive(r, headers)
	req.AddBasicAuthorization(r, headers)
	return headers, body, nil
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
