// Package dict implements the tagged value tree and the insertion-ordered,
// bucketed string dictionary used for headers, user metadata, and CDMI value
// materialization.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package dict

import (
	"strings"
)

type (
	// Entry is one key/value binding. Keys are preserved as given; an entry
	// added with lowered=true additionally lowercases its key so that
	// header-style case-insensitive lookups hit.
	Entry struct {
		Key     string
		Lowered string // lowercase form, "" unless added with lowered=true
		Val     *Value
	}

	// Dict is a bucketed string-keyed dictionary. Iteration order is stable
	// for the lifetime of the dictionary: bucket-major, insertion order
	// within a bucket. The S3 signer sorts its own x-amz- subset and is the
	// only order-sensitive consumer.
	Dict struct {
		buckets [][]*Entry
		count   int
	}
)

// New allocates a dictionary with n hash buckets.
func New(nBuckets int) *Dict {
	if nBuckets <= 0 {
		nBuckets = 13
	}
	return &Dict{buckets: make([][]*Entry, nBuckets)}
}

// classic multiplicative string hash, as in the original dictionary
func hashcode(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}

func (d *Dict) bucketOf(key string) int {
	return int(hashcode(key) % uint32(len(d.buckets)))
}

// Get returns the entry whose key matches exactly, or nil.
func (d *Dict) Get(key string) *Entry {
	if d == nil {
		return nil
	}
	for _, e := range d.buckets[d.bucketOf(key)] {
		if e.Key == key {
			return e
		}
	}
	return nil
}

// GetLowered returns the entry matching key case-insensitively. Entries
// added with lowered=true are found under any casing of their key.
func (d *Dict) GetLowered(key string) *Entry {
	if d == nil {
		return nil
	}
	lk := strings.ToLower(key)
	for _, e := range d.buckets[d.bucketOf(lk)] {
		if e.Lowered == lk {
			return e
		}
	}
	return d.Get(key)
}

// GetValue returns the string value bound to key, or "".
func (d *Dict) GetValue(key string) string {
	if e := d.Get(key); e != nil {
		return e.Val.String()
	}
	return ""
}

// GetLoweredValue returns the string value bound to key (case-insensitive),
// or "".
func (d *Dict) GetLoweredValue(key string) string {
	if e := d.GetLowered(key); e != nil {
		return e.Val.String()
	}
	return ""
}

// AddValue inserts or updates the binding for key; the dictionary takes
// ownership of val. Updating an existing key keeps its position.
func (d *Dict) AddValue(key string, val *Value, lowered bool) {
	lk := ""
	b := d.bucketOf(key)
	if lowered {
		lk = strings.ToLower(key)
		b = d.bucketOf(lk)
		for _, e := range d.buckets[b] {
			if e.Lowered == lk {
				e.Key = key
				e.Val = val
				return
			}
		}
	} else {
		for _, e := range d.buckets[b] {
			if e.Key == key {
				e.Val = val
				return
			}
		}
	}
	d.buckets[b] = append(d.buckets[b], &Entry{Key: key, Lowered: lk, Val: val})
	d.count++
}

// Add is the workhorse: inserts or updates a string binding.
func (d *Dict) Add(key, value string, lowered bool) {
	d.AddValue(key, StringValue(value), lowered)
}

// Remove unlinks the entry from the dictionary.
func (d *Dict) Remove(target *Entry) {
	for b, chain := range d.buckets {
		for i, e := range chain {
			if e == target {
				d.buckets[b] = append(chain[:i], chain[i+1:]...)
				d.count--
				return
			}
		}
	}
}

// Count returns the number of bindings.
func (d *Dict) Count() int {
	if d == nil {
		return 0
	}
	return d.count
}

// Iterate visits every entry in the dictionary's stable order; a non-nil
// error from fn aborts the walk.
func (d *Dict) Iterate(fn func(*Entry) error) error {
	if d == nil {
		return nil
	}
	for _, chain := range d.buckets {
		for _, e := range chain {
			if err := fn(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// Copy deep-copies the dictionary, values included.
func (d *Dict) Copy() *Dict {
	if d == nil {
		return nil
	}
	out := New(len(d.buckets))
	_ = d.Iterate(func(e *Entry) error {
		out.AddValue(e.Key, e.Val.Copy(), e.Lowered != "")
		return nil
	})
	return out
}

// FilterPrefix returns a new dictionary holding only the entries whose key
// starts with prefix; when strip is set, the prefix is removed from the keys.
// Matching is case-insensitive, as header families demand.
func (d *Dict) FilterPrefix(prefix string, strip bool) *Dict {
	out := New(len(d.buckets))
	lp := strings.ToLower(prefix)
	_ = d.Iterate(func(e *Entry) error {
		if len(e.Key) < len(prefix) || strings.ToLower(e.Key[:len(prefix)]) != lp {
			return nil
		}
		key := e.Key
		if strip {
			key = key[len(prefix):]
		}
		out.AddValue(key, e.Val.Copy(), e.Lowered != "")
		return nil
	})
	return out
}
