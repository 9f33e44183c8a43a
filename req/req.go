// Package req holds the per-call request state and the generic header
// composition and signing helpers that per-backend request builders lower it
// with.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package req

import (
	"time"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
)

const (
	// MaxRanges bounds the byte ranges on one request.
	MaxRanges = 10
)

// Request accumulates every per-call parameter and is lowered, per backend,
// into a fully formed HTTP request. One request is built per verb invocation
// and never shared between goroutines.
type Request struct {
	Method      cmn.Method
	Bucket      string
	Resource    string
	Subresource string

	// connection target, snapshotted from the context
	Host string
	Port string

	CacheControl       string
	ContentDisposition string
	ContentEncoding    string
	ContentType        string

	Data        []byte
	DataEnabled bool

	Ranges       []cmn.Range
	RangeEnabled bool

	Condition           cmn.Condition
	CopySourceCondition cmn.Condition

	Metadata *dict.Dict

	ObjectType         cmn.FType
	LocationConstraint cmn.LocationConstraint
	CannedACL          cmn.CannedACL
	StorageClass       cmn.StorageClass
	SysMD              *cmn.SysMD

	Behavior cmn.Behavior
	Expires  time.Time

	CopyDirective     cmn.CopyDirective
	MetadataDirective cmn.MetadataDirective
	SrcBucket         string
	SrcResource       string
	SrcSubresource    string

	// credentials, snapshotted from the context
	AccessKey string
	SecretKey string

	TraceID string
}

// New creates a request with the default behaviors. Virtual hosting is
// preferred since it disperses connections.
func New(method cmn.Method) *Request {
	return &Request{
		Method:   method,
		Metadata: dict.New(13),
		Behavior: cmn.BehaviorKeepAlive | cmn.BehaviorVirtualHosting,
	}
}

// AddBehavior sets behavior flags.
func (r *Request) AddBehavior(flags cmn.Behavior) { r.Behavior |= flags }

// RmBehavior clears behavior flags.
func (r *Request) RmBehavior(flags cmn.Behavior) { r.Behavior &^= flags }

// HasBehavior reports whether all the given flags are set.
func (r *Request) HasBehavior(flags cmn.Behavior) bool { return r.Behavior&flags == flags }

// SetData attaches the payload buffer.
func (r *Request) SetData(data []byte) {
	r.Data = data
	r.DataEnabled = true
}

// AddRange appends a byte range.
func (r *Request) AddRange(rng cmn.Range) error {
	if len(r.Ranges) >= MaxRanges {
		return cmn.Err(cmn.EInval)
	}
	r.Ranges = append(r.Ranges, rng)
	r.RangeEnabled = true
	return nil
}

// SetCondition installs the conditional clause (copied).
func (r *Request) SetCondition(cond *cmn.Condition) {
	if cond != nil {
		r.Condition = cond.Copy()
	}
}

// SetCopySourceCondition installs the copy-source conditional clause.
func (r *Request) SetCopySourceCondition(cond *cmn.Condition) {
	if cond != nil {
		r.CopySourceCondition = cond.Copy()
	}
}

// AddMetadatum adds one user-metadata binding.
func (r *Request) AddMetadatum(key, value string) {
	r.Metadata.Add(key, value, false)
}

// AddMetadata merges a metadata dictionary into the request.
func (r *Request) AddMetadata(md *dict.Dict) {
	if md == nil {
		return
	}
	_ = md.Iterate(func(e *dict.Entry) error {
		r.Metadata.AddValue(e.Key, e.Val.Copy(), false)
		return nil
	})
}
