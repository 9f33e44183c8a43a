// Package dict implements the tagged value tree and the insertion-ordered,
// bucketed string dictionary used for headers, user metadata, and CDMI value
// materialization.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package dict_test

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/cmn/dict"
)

func TestAddGet(t *testing.T) {
	d := dict.New(13)
	d.Add("Key", "value", false)

	assert.Equal(t, "value", d.GetValue("Key"))
	assert.Equal(t, "", d.GetValue("key"), "case is preserved without lowered")
	assert.Equal(t, 1, d.Count())
}

func TestAddLowered(t *testing.T) {
	d := dict.New(13)
	d.Add("Content-Length", "42", true)

	assert.Equal(t, "42", d.GetLoweredValue("content-length"))
	assert.Equal(t, "42", d.GetLoweredValue("CONTENT-LENGTH"))
	assert.Equal(t, "42", d.GetLoweredValue("Content-Length"))
}

func TestUpdateKeepsCount(t *testing.T) {
	d := dict.New(13)
	d.Add("k", "v1", false)
	d.Add("k", "v2", false)

	assert.Equal(t, 1, d.Count())
	assert.Equal(t, "v2", d.GetValue("k"))
}

func TestRemove(t *testing.T) {
	d := dict.New(3)
	d.Add("a", "1", false)
	d.Add("b", "2", false)
	e := d.Get("a")
	require.NotNil(t, e)
	d.Remove(e)

	assert.Equal(t, 1, d.Count())
	assert.Nil(t, d.Get("a"))
	assert.Equal(t, "2", d.GetValue("b"))
}

func TestIterationStable(t *testing.T) {
	d := dict.New(7)
	keys := []string{"zeta", "alpha", "mid", "last", "first"}
	for _, k := range keys {
		d.Add(k, k, false)
	}
	collect := func() []string {
		var out []string
		_ = d.Iterate(func(e *dict.Entry) error {
			out = append(out, e.Key)
			return nil
		})
		return out
	}
	first := collect()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, collect())
	}
	assert.Len(t, first, len(keys))
}

func TestDeepCopy(t *testing.T) {
	d := dict.New(13)
	sub := dict.New(3)
	sub.Add("inner", "1", false)
	d.AddValue("sub", dict.DictValue(sub), false)
	d.Add("top", "x", false)

	cp := d.Copy()
	sub.Add("inner", "mutated", false)
	d.Add("top", "mutated", false)

	assert.Equal(t, "x", cp.GetValue("top"))
	assert.Equal(t, "1", cp.Get("sub").Val.SubDict.GetValue("inner"))
}

func TestEmbeddedZeros(t *testing.T) {
	d := dict.New(13)
	raw := []byte{'a', 0, 'b'}
	d.AddValue("bin", dict.BytesValue(raw), false)

	got := d.Get("bin").Val.Str
	assert.Equal(t, raw, got)

	sbuf := dict.NewSbuf(4)
	sbuf.AddStr("x")
	sbuf.AddByte(0)
	sbuf.AddStr("y")
	assert.Equal(t, 3, sbuf.Len())
	assert.Equal(t, []byte{'x', 0, 'y'}, sbuf.Bytes())
}

func TestFilterPrefix(t *testing.T) {
	d := dict.New(13)
	d.Add("X-Object-Meta-color", "blue", true)
	d.Add("X-Object-Meta-shape", "round", true)
	d.Add("Content-Length", "3", true)

	md := d.FilterPrefix("x-object-meta-", true)
	assert.Equal(t, 2, md.Count())
	assert.Equal(t, "blue", md.GetValue("color"))
	assert.Equal(t, "round", md.GetValue("shape"))
}

func TestJSONRoundTrip(t *testing.T) {
	d := dict.New(13)
	d.Add("name", "object-1", false)
	sub := dict.New(3)
	sub.Add("k1", "v1", false)
	d.AddValue("metadata", dict.DictValue(sub), false)
	vec := dict.NewVec()
	vec.Add(dict.StringValue("a"))
	vec.Add(dict.StringValue("b"))
	d.AddValue("tags", dict.VecValue(vec), false)

	body, err := dict.DictValue(d).JSON()
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(body, &parsed))
	assert.Equal(t, "object-1", parsed["name"])
	assert.Equal(t, map[string]interface{}{"k1": "v1"}, parsed["metadata"])
	assert.Equal(t, []interface{}{"a", "b"}, parsed["tags"])

	tree, err := dict.FromJSON(body)
	require.NoError(t, err)
	require.Equal(t, dict.TypeSubDict, tree.Type)
	assert.Equal(t, "object-1", tree.SubDict.GetValue("name"))
	assert.Equal(t, "v1", tree.SubDict.Get("metadata").Val.SubDict.GetValue("k1"))
}

func TestValueCopy(t *testing.T) {
	v := dict.BytesValue([]byte("abc"))
	cp := v.Copy()
	v.Str[0] = 'z'
	assert.Equal(t, "abc", cp.String())
}
