// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package graph

import "fmt"

// BlockKind is the declared role of a vertex within a configuration.
type BlockKind string

const (
	KindResource BlockKind = "resource"
	KindData     BlockKind = "data"
	KindModule   BlockKind = "module"
	KindVariable BlockKind = "variable"
	KindOutput   BlockKind = "output"
	KindProvider BlockKind = "provider"
	KindLocals   BlockKind = "locals"
)

// ParseBlockKind maps a kind name from a check document or declaration onto
// the closed kind set.
func ParseBlockKind(s string) (BlockKind, error) {
	switch k := BlockKind(s); k {
	case KindResource, KindData, KindModule, KindVariable, KindOutput, KindProvider, KindLocals:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported block kind %q", s)
	}
}

func (k BlockKind) String() string {
	return string(k)
}
