// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

// Package attrtree implements the transform between a block's nested
// attribute tree and its flattened dotted-path projection, along with the
// deep-path rewrite used during reference resolution.
package attrtree

import (
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// IsSequence reports whether a value is an ordered sequence for the purposes
// of path traversal and flattening.
func IsSequence(v cty.Value) bool {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return false
	}
	ty := v.Type()
	return ty.IsTupleType() || ty.IsListType()
}

// IsMapping reports whether a value is a string-keyed mapping.
func IsMapping(v cty.Value) bool {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return false
	}
	ty := v.Type()
	return ty.IsObjectType() || ty.IsMapType()
}

// UnwrapSingleton collapses a one-element sequence to its sole element.
// Declaration syntax commonly wraps single nested blocks in a list; the
// flattened projection observes them unwrapped at every level.
func UnwrapSingleton(v cty.Value) cty.Value {
	if IsSequence(v) && v.LengthInt() == 1 {
		it := v.ElementIterator()
		it.Next()
		_, ev := it.Element()
		return ev
	}
	return v
}

// elementsSlice returns a sequence value's elements in order.
func elementsSlice(v cty.Value) []cty.Value {
	ret := make([]cty.Value, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		ret = append(ret, ev)
	}
	return ret
}

// elementsMap returns a mapping value's entries keyed by string.
func elementsMap(v cty.Value) map[string]cty.Value {
	ret := make(map[string]cty.Value, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		kv, ev := it.Element()
		ret[kv.AsString()] = ev
	}
	return ret
}

// sequenceVal rebuilds a sequence value. Tuples keep heterogeneous element
// types intact, which is all the flattening and rewrite logic needs.
func sequenceVal(elems []cty.Value) cty.Value {
	if len(elems) == 0 {
		return cty.EmptyTupleVal
	}
	return cty.TupleVal(elems)
}

// mappingVal rebuilds a mapping value.
func mappingVal(attrs map[string]cty.Value) cty.Value {
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}

// Flatten produces the flat projection of a nested value rooted at the given
// dotted key. The result holds one entry for the root key itself, rebuilt
// from its (singleton-unwrapped) children, plus one entry per reachable
// descendant path. Flatten is total: every leaf terminates recursion with a
// single entry, and re-applying it to its own output's root entries yields
// the same mapping.
func Flatten(rootKey string, v cty.Value) map[string]cty.Value {
	flat := make(map[string]cty.Value)
	flattenInto(flat, rootKey, v)
	return flat
}

func flattenInto(flat map[string]cty.Value, key string, v cty.Value) cty.Value {
	v = UnwrapSingleton(v)
	switch {
	case IsSequence(v):
		elems := elementsSlice(v)
		newElems := make([]cty.Value, len(elems))
		for i, ev := range elems {
			childKey := ChildPath(key, strconv.Itoa(i))
			newElems[i] = flattenInto(flat, childKey, ev)
		}
		rebuilt := sequenceVal(newElems)
		flat[key] = rebuilt
		return rebuilt
	case IsMapping(v):
		attrs := elementsMap(v)
		newAttrs := make(map[string]cty.Value, len(attrs))
		for k, ev := range attrs {
			childKey := ChildPath(key, k)
			newAttrs[k] = flattenInto(flat, childKey, ev)
		}
		rebuilt := mappingVal(newAttrs)
		flat[key] = rebuilt
		return rebuilt
	default:
		flat[key] = v
		return v
	}
}

// FlattenMap flattens every top-level attribute of a block into one combined
// projection.
func FlattenMap(attrs map[string]cty.Value) map[string]cty.Value {
	flat := make(map[string]cty.Value)
	for k, v := range attrs {
		flattenInto(flat, k, v)
	}
	return flat
}

// Roots reconstructs the nested form from a flat projection by selecting the
// top-level entries, which Flatten maintains as rebuilt subtrees.
func Roots(flat map[string]cty.Value) map[string]cty.Value {
	ret := make(map[string]cty.Value)
	for k, v := range flat {
		if !strings.Contains(k, ".") {
			ret[k] = v
		}
	}
	return ret
}
