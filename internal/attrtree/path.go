// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package attrtree

import (
	"strconv"
	"strings"
)

// Attribute paths use "." as the separator. Numeric components index into
// sequences and all other components key into mappings. The same syntax is
// shared by UpdateAttribute, the flattened export keys, and predicate
// operator attribute paths, so it must parse identically everywhere; these
// helpers are the single implementation.

// SplitPath breaks a dotted attribute path into its components.
func SplitPath(path string) []string {
	return strings.Split(path, ".")
}

// JoinPath is the inverse of SplitPath.
func JoinPath(parts []string) string {
	return strings.Join(parts, ".")
}

// PrefixPath joins all but the last trim components of a path, so
// PrefixPath(["a","b","c"], 1) is "a.b". trim of zero returns the full path.
func PrefixPath(parts []string, trim int) string {
	return strings.Join(parts[:len(parts)-trim], ".")
}

// ChildPath extends a dotted path by one component.
func ChildPath(path, component string) string {
	if path == "" {
		return component
	}
	return path + "." + component
}

// IsIndex reports whether a path component denotes a sequence index.
func IsIndex(component string) bool {
	_, err := strconv.Atoi(component)
	return err == nil
}
