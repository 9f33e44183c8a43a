// Package dict implements the tagged value tree and the insertion-ordered,
// bucketed string dictionary used for headers, user metadata, and CDMI value
// materialization.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package dict

import (
	jsoniter "github.com/json-iterator/go"
)

// ValueType discriminates the four value variants.
type ValueType int

const (
	TypeString ValueType = iota
	TypeSubDict
	TypeVector
	TypeOpaque
)

type (
	// Value is a sum over {string, sub-dict, vector, opaque}. Strings carry
	// an explicit length and may contain embedded zeros. A value is owned by
	// exactly one container; Copy produces a deep, detached clone.
	Value struct {
		Type    ValueType
		Str     []byte
		SubDict *Dict
		Vector  *Vec
		Opaque  interface{}
	}

	// Vec is an ordered sequence of values.
	Vec struct {
		Items []*Value
	}
)

// StringValue wraps a string into a value.
func StringValue(s string) *Value {
	return &Value{Type: TypeString, Str: []byte(s)}
}

// BytesValue wraps raw bytes (embedded zeros preserved) into a value.
func BytesValue(b []byte) *Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Value{Type: TypeString, Str: cp}
}

// DictValue wraps a sub-dictionary into a value.
func DictValue(d *Dict) *Value { return &Value{Type: TypeSubDict, SubDict: d} }

// VecValue wraps a vector into a value.
func VecValue(v *Vec) *Value { return &Value{Type: TypeVector, Vector: v} }

// OpaqueValue wraps an arbitrary pointer into a value.
func OpaqueValue(p interface{}) *Value { return &Value{Type: TypeOpaque, Opaque: p} }

// String renders the string variant; other variants render empty.
func (v *Value) String() string {
	if v == nil || v.Type != TypeString {
		return ""
	}
	return string(v.Str)
}

// Copy deep-copies the value; opaque pointers are shared, everything else
// is duplicated.
func (v *Value) Copy() *Value {
	if v == nil {
		return nil
	}
	out := &Value{Type: v.Type}
	switch v.Type {
	case TypeString:
		out.Str = make([]byte, len(v.Str))
		copy(out.Str, v.Str)
	case TypeSubDict:
		out.SubDict = v.SubDict.Copy()
	case TypeVector:
		out.Vector = v.Vector.Copy()
	case TypeOpaque:
		out.Opaque = v.Opaque
	}
	return out
}

// NewVec allocates an empty vector.
func NewVec() *Vec { return &Vec{} }

// Add appends a value; the vector takes ownership.
func (v *Vec) Add(val *Value) { v.Items = append(v.Items, val) }

// Len returns the element count.
func (v *Vec) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Items)
}

// Copy deep-copies the vector.
func (v *Vec) Copy() *Vec {
	if v == nil {
		return nil
	}
	out := &Vec{Items: make([]*Value, 0, len(v.Items))}
	for _, item := range v.Items {
		out.Items = append(out.Items, item.Copy())
	}
	return out
}

//
// JSON materialization (CDMI bodies). Emission walks the tree directly so
// dictionary insertion order is preserved on the wire.
//

// JSON renders the value tree as a JSON document.
func (v *Value) JSON() ([]byte, error) {
	stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(nil)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)
	if err := v.writeJSON(stream); err != nil {
		return nil, err
	}
	if err := stream.Error; err != nil {
		return nil, err
	}
	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

func (v *Value) writeJSON(stream *jsoniter.Stream) error {
	switch v.Type {
	case TypeString:
		stream.WriteString(string(v.Str))
	case TypeSubDict:
		stream.WriteObjectStart()
		first := true
		err := v.SubDict.Iterate(func(e *Entry) error {
			if !first {
				stream.WriteMore()
			}
			first = false
			stream.WriteObjectField(e.Key)
			return e.Val.writeJSON(stream)
		})
		if err != nil {
			return err
		}
		stream.WriteObjectEnd()
	case TypeVector:
		stream.WriteArrayStart()
		for i, item := range v.Vector.Items {
			if i > 0 {
				stream.WriteMore()
			}
			if err := item.writeJSON(stream); err != nil {
				return err
			}
		}
		stream.WriteArrayEnd()
	case TypeOpaque:
		stream.WriteNil()
	}
	return nil
}

// FromJSON parses a JSON document into a value tree. Object key order is not
// preserved (hashed in the source document model as well); consumers walk by
// key, never by position.
func FromJSON(data []byte) (*Value, error) {
	var raw interface{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return fromInterface(raw), nil
}

func fromInterface(raw interface{}) *Value {
	switch x := raw.(type) {
	case string:
		return StringValue(x)
	case float64:
		num := jsoniter.ConfigCompatibleWithStandardLibrary
		b, _ := num.Marshal(x)
		return &Value{Type: TypeString, Str: b}
	case bool:
		if x {
			return StringValue("true")
		}
		return StringValue("false")
	case map[string]interface{}:
		d := New(13)
		for k, v := range x {
			d.AddValue(k, fromInterface(v), false)
		}
		return DictValue(d)
	case []interface{}:
		vec := NewVec()
		for _, item := range x {
			vec.Add(fromInterface(item))
		}
		return VecValue(vec)
	default:
		return StringValue("")
	}
}
