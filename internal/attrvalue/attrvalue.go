// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

// Package attrvalue defines the dynamic value representation used for block
// attributes throughout the graph core.
//
// Attribute data arriving from a parsed document is irregular: a value may be
// a primitive, a sequence, or a mapping, nested to arbitrary depth. We
// represent all of it as cty.Value, which gives us a closed set of shapes to
// match over and immutability, so no internal value can alias caller state.
// This package holds the conversions at the boundary: native Go values in and
// out, plus the lossy-safe encode transform applied when an exported mapping
// must cross a boundary that cannot carry arbitrary value types.
package attrvalue

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// FromNative converts a native Go value, as produced by a document parser
// working in map[string]any terms, into a cty.Value. Sequences become tuples
// and mappings become objects so that heterogeneous element types are
// preserved exactly as declared.
func FromNative(raw any) cty.Value {
	switch v := raw.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType)
	case cty.Value:
		return v
	case bool:
		return cty.BoolVal(v)
	case string:
		return cty.StringVal(v)
	case int:
		return cty.NumberIntVal(int64(v))
	case int64:
		return cty.NumberIntVal(v)
	case float64:
		return cty.NumberFloatVal(v)
	case []any:
		if len(v) == 0 {
			return cty.EmptyTupleVal
		}
		elems := make([]cty.Value, len(v))
		for i, ev := range v {
			elems[i] = FromNative(ev)
		}
		return cty.TupleVal(elems)
	case map[string]any:
		if len(v) == 0 {
			return cty.EmptyObjectVal
		}
		attrs := make(map[string]cty.Value, len(v))
		for k, ev := range v {
			attrs[k] = FromNative(ev)
		}
		return cty.ObjectVal(attrs)
	default:
		// Anything we don't recognize is carried as its string rendering,
		// which keeps the conversion total for exotic parser output.
		return cty.StringVal(fmt.Sprintf("%v", raw))
	}
}

// FromNativeMap converts a native attribute mapping wholesale.
func FromNativeMap(raw map[string]any) map[string]cty.Value {
	ret := make(map[string]cty.Value, len(raw))
	for k, v := range raw {
		ret[k] = FromNative(v)
	}
	return ret
}

// ToNative converts a cty.Value back into plain Go values: nil, bool, string,
// int64 or float64, []any, and map[string]any. Unknown values decay to nil
// since callers of the decoded export only ever see resolved data.
func ToNative(v cty.Value) any {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return v.True()
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return i
		}
		f, _ := bf.Float64()
		return f
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		ret := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			ret = append(ret, ToNative(ev))
		}
		return ret
	case ty.IsObjectType() || ty.IsMapType():
		ret := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			ret[kv.AsString()] = ToNative(ev)
		}
		return ret
	default:
		return nil
	}
}

// CanonicalJSON returns the canonical serialization of a value with its
// dynamic type embedded, so that values differing only in type (the string
// "1" versus the number 1) serialize differently. This is the form hashed by
// the content fingerprint and encoded by Encode.
func CanonicalJSON(v cty.Value) ([]byte, error) {
	if v == cty.NilVal {
		v = cty.NullVal(cty.DynamicPseudoType)
	}
	return ctyjson.Marshal(v, cty.DynamicPseudoType)
}

// Encode transforms a value into a string value carrying the base64 of its
// canonical serialization. The result is safe to hand to consumers that can
// only carry flat string properties.
func Encode(v cty.Value) (cty.Value, error) {
	src, err := CanonicalJSON(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("encoding attribute value: %w", err)
	}
	return cty.StringVal(base64.StdEncoding.EncodeToString(src)), nil
}

// Decode reverses Encode. It is an error to decode a value that did not come
// from Encode.
func Decode(v cty.Value) (cty.Value, error) {
	if v.IsNull() || v.Type() != cty.String {
		return cty.NilVal, fmt.Errorf("encoded attribute value must be a string, not %s", v.Type().FriendlyName())
	}
	src, err := base64.StdEncoding.DecodeString(v.AsString())
	if err != nil {
		return cty.NilVal, fmt.Errorf("decoding attribute value: %w", err)
	}
	ret, err := ctyjson.Unmarshal(src, cty.DynamicPseudoType)
	if err != nil {
		return cty.NilVal, fmt.Errorf("decoding attribute value: %w", err)
	}
	return ret, nil
}

// SortedKeys returns the keys of a flat attribute mapping in lexical order,
// for deterministic iteration.
func SortedKeys(m map[string]cty.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
