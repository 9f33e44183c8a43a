// Package cmn provides common low-level types and utilities shared by the
// droplet dispatch layer, transports, and backends.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import "time"

// Method is the HTTP verb of a request under construction.
type Method int

const (
	MethodGet Method = iota
	MethodPut
	MethodDelete
	MethodHead
	MethodPost
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPut:
		return "PUT"
	case MethodDelete:
		return "DELETE"
	case MethodHead:
		return "HEAD"
	case MethodPost:
		return "POST"
	}
	return "UNDEF"
}

// FType is the object type, following the POSIX file-type vocabulary that
// CDMI and the POSIX backend share.
type FType int

const (
	FTypeUndef FType = iota
	FTypeAny
	FTypeReg
	FTypeDir
	FTypeCap
	FTypeDom
	FTypeChrdev
	FTypeBlkdev
	FTypeFifo
	FTypeSocket
	FTypeSymlink
)

func (t FType) String() string {
	switch t {
	case FTypeAny:
		return "any"
	case FTypeReg:
		return "reg"
	case FTypeDir:
		return "dir"
	case FTypeCap:
		return "cap"
	case FTypeDom:
		return "dom"
	case FTypeChrdev:
		return "chrdev"
	case FTypeBlkdev:
		return "blkdev"
	case FTypeFifo:
		return "fifo"
	case FTypeSocket:
		return "socket"
	case FTypeSymlink:
		return "symlink"
	}
	return "undef"
}

// CannedACL is the simplified ACL vocabulary; backends lower it to their
// native representation (header value for S3, ACE array for CDMI).
type CannedACL int

const (
	CannedACLUndef CannedACL = iota
	CannedACLPrivate
	CannedACLPublicRead
	CannedACLPublicReadWrite
	CannedACLAuthenticatedRead
	CannedACLBucketOwnerRead
	CannedACLBucketOwnerFullControl
)

func (a CannedACL) String() string {
	switch a {
	case CannedACLPrivate:
		return "private"
	case CannedACLPublicRead:
		return "public-read"
	case CannedACLPublicReadWrite:
		return "public-read-write"
	case CannedACLAuthenticatedRead:
		return "authenticated-read"
	case CannedACLBucketOwnerRead:
		return "bucket-owner-read"
	case CannedACLBucketOwnerFullControl:
		return "bucket-owner-full-control"
	}
	return "undef"
}

// StorageClass selects the server-side storage tier.
type StorageClass int

const (
	StorageClassUndef StorageClass = iota
	StorageClassStandard
	StorageClassStandardIA
	StorageClassReducedRedundancy
	StorageClassCustom
)

func (c StorageClass) String() string {
	switch c {
	case StorageClassStandard:
		return "STANDARD"
	case StorageClassStandardIA:
		return "STANDARD_IA"
	case StorageClassReducedRedundancy:
		return "REDUCED_REDUNDANCY"
	case StorageClassCustom:
		return "CUSTOM"
	}
	return "undef"
}

// LocationConstraint is the geographic placement of a bucket.
type LocationConstraint int

const (
	LocationConstraintUndef LocationConstraint = iota
	LocationConstraintUSEast1
	LocationConstraintUSWest1
	LocationConstraintUSWest2
	LocationConstraintEUWest1
	LocationConstraintEUCentral1
	LocationConstraintAPSoutheast1
	LocationConstraintAPSoutheast2
	LocationConstraintAPNortheast1
	LocationConstraintSAEast1
)

func (l LocationConstraint) String() string {
	switch l {
	case LocationConstraintUSEast1:
		return "us-east-1"
	case LocationConstraintUSWest1:
		return "us-west-1"
	case LocationConstraintUSWest2:
		return "us-west-2"
	case LocationConstraintEUWest1:
		return "eu-west-1"
	case LocationConstraintEUCentral1:
		return "eu-central-1"
	case LocationConstraintAPSoutheast1:
		return "ap-southeast-1"
	case LocationConstraintAPSoutheast2:
		return "ap-southeast-2"
	case LocationConstraintAPNortheast1:
		return "ap-northeast-1"
	case LocationConstraintSAEast1:
		return "sa-east-1"
	}
	return ""
}

// MakeLocationConstraint parses the wire form back into the enum.
func MakeLocationConstraint(s string) LocationConstraint {
	for l := LocationConstraintUSEast1; l <= LocationConstraintSAEast1; l++ {
		if l.String() == s {
			return l
		}
	}
	return LocationConstraintUndef
}

// CopyDirective selects the server-side copy semantics. MKDENT, RMDENT and
// MVDENT are backend-specific (CDMI dirent manipulation); other backends
// decline them.
type CopyDirective int

const (
	CopyDirectiveUndef CopyDirective = iota
	CopyDirectiveCopy
	CopyDirectiveMetadataReplace
	CopyDirectiveLink
	CopyDirectiveSymlink
	CopyDirectiveMove
	CopyDirectiveMkdent
	CopyDirectiveRmdent
	CopyDirectiveMvdent
)

// case is important
func (d CopyDirective) String() string {
	switch d {
	case CopyDirectiveCopy:
		return "COPY"
	case CopyDirectiveMetadataReplace:
		return "METADATA_REPLACE"
	case CopyDirectiveLink:
		return "LINK"
	case CopyDirectiveSymlink:
		return "SYMLINK"
	case CopyDirectiveMove:
		return "MOVE"
	case CopyDirectiveMkdent:
		return "MKDENT"
	case CopyDirectiveRmdent:
		return "RMDENT"
	case CopyDirectiveMvdent:
		return "MVDENT"
	}
	return "UNDEF"
}

// MetadataDirective tells a copy whether to carry or replace user metadata.
type MetadataDirective int

const (
	MetadataDirectiveUndef MetadataDirective = iota
	MetadataDirectiveCopy
	MetadataDirectiveReplace
)

func (d MetadataDirective) String() string {
	switch d {
	case MetadataDirectiveCopy:
		return "COPY"
	case MetadataDirectiveReplace:
		return "REPLACE"
	}
	return "UNDEF"
}

// Capability flags advertised by a backend.
type Capability uint32

const (
	CapBuckets Capability = 1 << iota // bucket namespace
	CapFnames                         // path-addressed objects
	CapIDs                            // id-addressed objects
	CapHTTPCompat                     // header-flattened metadata mode
	CapRaw                            // raw metadata access (head_raw)
	CapCopy                           // server-side copy
	CapVersioning                     // object versions
	CapConditions                     // conditional requests
	CapPutRange                       // ranged writes
	CapLazy                           // relaxed-consistency reads
)

// Behavior flags accumulated on a request.
type Behavior uint32

const (
	BehaviorKeepAlive Behavior = 1 << iota
	BehaviorVirtualHosting
	BehaviorExpect
	BehaviorMD5
	BehaviorQueryString
	BehaviorCopy
	BehaviorHTTPCompat
)

// TraceFlag gates per-subsystem trace logging on a context.
type TraceFlag uint32

const (
	TraceREQ TraceFlag = 1 << iota
	TraceREST
	TraceID
	TraceBackend
	TraceIO
	TraceHTTP
	TraceConn
	TraceSSL
	TraceBuf
	TraceAll TraceFlag = 0xffffffff
)

// BucketInfo describes one bucket in a listing.
type BucketInfo struct {
	Name         string
	CreationDate time.Time
}

// ObjectInfo describes one object in a bucket listing.
type ObjectInfo struct {
	Path         string
	Type         FType
	LastModified time.Time
	Size         int64
	ETag         string
}

// DeleteResult is the per-object outcome of a bulk delete.
type DeleteResult struct {
	Name      string
	VersionID string
	Status    Status
	Error     string
}
