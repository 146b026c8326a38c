// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package attrtree

import (
	"strconv"

	"github.com/zclconf/go-cty/cty"
)

// SetAtPath rewrites the nested value at the given path components and
// returns the new root. Values are immutable, so "rewrite" means rebuilding
// the spine from the leaf back up; the original value is untouched, which
// gives callers all-or-nothing semantics for free.
//
// Traversal policy:
//   - Numeric components index into sequences, other components key into
//     mappings.
//   - If the current container is a sequence and the next component is not
//     numeric, the rewrite is broadcast to every element, modelling "set this
//     field on every block of this repeated type". Elements the remaining
//     path does not fit are left as they are.
//   - A single remaining component assigns directly; assignment into a
//     mapping may introduce a new key.
//
// The second return value is false when the path cannot be resolved: a
// missing intermediate key, an out-of-range index, or a component that does
// not fit the shape of the container it reached. On false the returned value
// is the original root, unmodified.
func SetAtPath(root cty.Value, parts []string, newVal cty.Value) (cty.Value, bool) {
	if len(parts) == 0 {
		return root, false
	}
	cur := parts[0]

	if IsSequence(root) && !IsIndex(cur) {
		// Broadcast across the repeated blocks. A no-op on an empty
		// sequence still counts as applied.
		elems := elementsSlice(root)
		applied := len(elems) == 0
		for i, ev := range elems {
			if updated, ok := SetAtPath(ev, parts, newVal); ok {
				elems[i] = updated
				applied = true
			}
		}
		if !applied {
			return root, false
		}
		return sequenceVal(elems), true
	}

	if len(parts) == 1 {
		return assignComponent(root, cur, newVal)
	}

	child, ok := childAt(root, cur)
	if !ok {
		return root, false
	}
	updated, ok := SetAtPath(child, parts[1:], newVal)
	if !ok {
		return root, false
	}
	return replaceChild(root, cur, updated)
}

// assignComponent sets one component on a container, adding mapping keys that
// do not exist yet.
func assignComponent(root cty.Value, component string, newVal cty.Value) (cty.Value, bool) {
	switch {
	case IsMapping(root):
		attrs := elementsMap(root)
		attrs[component] = newVal
		return mappingVal(attrs), true
	case IsSequence(root):
		idx, err := strconv.Atoi(component)
		if err != nil {
			return root, false
		}
		elems := elementsSlice(root)
		if idx < 0 || idx >= len(elems) {
			return root, false
		}
		elems[idx] = newVal
		return sequenceVal(elems), true
	default:
		return root, false
	}
}

// childAt resolves one path component against a container.
func childAt(root cty.Value, component string) (cty.Value, bool) {
	switch {
	case IsMapping(root):
		attrs := elementsMap(root)
		child, ok := attrs[component]
		return child, ok
	case IsSequence(root):
		idx, err := strconv.Atoi(component)
		if err != nil {
			return cty.NilVal, false
		}
		elems := elementsSlice(root)
		if idx < 0 || idx >= len(elems) {
			return cty.NilVal, false
		}
		return elems[idx], true
	default:
		return cty.NilVal, false
	}
}

// replaceChild rebuilds a container with one child swapped. The shapes were
// already validated by childAt.
func replaceChild(root cty.Value, component string, child cty.Value) (cty.Value, bool) {
	switch {
	case IsMapping(root):
		attrs := elementsMap(root)
		attrs[component] = child
		return mappingVal(attrs), true
	case IsSequence(root):
		idx, err := strconv.Atoi(component)
		if err != nil {
			return root, false
		}
		elems := elementsSlice(root)
		if idx < 0 || idx >= len(elems) {
			return root, false
		}
		elems[idx] = child
		return sequenceVal(elems), true
	default:
		return root, false
	}
}
