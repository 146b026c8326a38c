// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package graph

import "sort"

// Ledger records which attribute paths of a vertex have been rewritten during
// reference resolution, and for each path the ordered chain of
// originating-vertex identifiers responsible ("breadcrumbs"). Paths are
// remembered in first-mutation order; a later rewrite of the same path
// replaces its chain without changing its position.
type Ledger struct {
	chains map[string][]string
	order  []string
}

// ExtendChain appends origin to a breadcrumb chain unless it is already the
// last entry, so one logical rewrite touching several paths never produces
// duplicate consecutive entries from the same immediate cause. The input
// slice is not modified.
func ExtendChain(chain []string, origin string) []string {
	if len(chain) > 0 && chain[len(chain)-1] == origin {
		return append([]string(nil), chain...)
	}
	ret := make([]string, 0, len(chain)+1)
	ret = append(ret, chain...)
	return append(ret, origin)
}

// Record stores the breadcrumb chain for one rewritten path.
func (l *Ledger) Record(path string, chain []string) {
	if l.chains == nil {
		l.chains = make(map[string][]string)
	}
	if _, seen := l.chains[path]; !seen {
		l.order = append(l.order, path)
	}
	l.chains[path] = chain
}

// Chain returns the breadcrumb chain recorded for a path.
func (l *Ledger) Chain(path string) ([]string, bool) {
	chain, ok := l.chains[path]
	return chain, ok
}

// Paths returns the recorded paths in mutation order.
func (l *Ledger) Paths() []string {
	return append([]string(nil), l.order...)
}

// SortedPaths returns the recorded paths in lexical order, the form included
// in the exported mapping during fingerprint computation.
func (l *Ledger) SortedPaths() []string {
	paths := l.Paths()
	sort.Strings(paths)
	return paths
}

func (l *Ledger) Len() int {
	return len(l.order)
}
