// Package cmn provides common low-level types and utilities shared by the
// droplet dispatch layer, transports, and backends.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import "time"

const (
	// MaxConds bounds the number of sub-conditions on one request.
	MaxConds = 8

	// OffsetUndef marks an open end of a byte range.
	OffsetUndef int64 = -1
)

type (
	// ConditionType discriminates one sub-condition.
	ConditionType int

	// Cond is a single sub-condition: a time bound or an etag match.
	Cond struct {
		Type ConditionType
		Time time.Time
		ETag string
	}

	// Condition is the conditional-request clause of a call, applied either
	// to the primary resource or, separately, to a copy source.
	Condition struct {
		Conds []Cond
	}

	// Range is a byte range; either bound may be OffsetUndef but not both.
	Range struct {
		Start int64
		End   int64
	}

	// OptionFlag is a per-call behavior toggle.
	OptionFlag uint32

	// Option carries optional per-call modifiers.
	Option struct {
		Mask          OptionFlag
		ExpectVersion string
		ForceVersion  string
	}
)

const (
	CondIfModifiedSince ConditionType = iota
	CondIfUnmodifiedSince
	CondIfMatch
	CondIfNoneMatch
)

const (
	OptNoAlloc OptionFlag = 1 << iota // reply body written into caller buffer
	OptConsistent
	OptExpectVersion
	OptForceVersion
	OptLazy
	OptHTTPCompat
	OptMDOnly
)

// Add appends a sub-condition; more than MaxConds of them is an error.
func (c *Condition) Add(cond Cond) error {
	if len(c.Conds) >= MaxConds {
		return Err(ENameTooLong)
	}
	c.Conds = append(c.Conds, cond)
	return nil
}

// Empty reports whether no sub-conditions are set.
func (c *Condition) Empty() bool { return c == nil || len(c.Conds) == 0 }

// Copy returns a detached snapshot.
func (c *Condition) Copy() Condition {
	if c == nil {
		return Condition{}
	}
	out := Condition{Conds: make([]Cond, len(c.Conds))}
	copy(out.Conds, c.Conds)
	return out
}

// Has reports whether the option mask contains flag.
func (o *Option) Has(flag OptionFlag) bool { return o != nil && o.Mask&flag != 0 }
