// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtendChain(t *testing.T) {
	tests := map[string]struct {
		chain  []string
		origin string
		want   []string
	}{
		"empty chain":           {nil, "v1", []string{"v1"}},
		"new origin appends":    {[]string{"v1"}, "v2", []string{"v1", "v2"}},
		"repeat origin dropped": {[]string{"v1", "v2"}, "v2", []string{"v1", "v2"}},
		"earlier origin repeats": {
			[]string{"v1", "v2"}, "v1", []string{"v1", "v2", "v1"},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := ExtendChain(test.chain, test.origin)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("wrong result\n%s", diff)
			}
		})
	}
}

func TestExtendChain_doesNotMutateInput(t *testing.T) {
	chain := make([]string, 1, 4)
	chain[0] = "v1"
	_ = ExtendChain(chain, "v2")
	if got, want := chain[0], "v1"; got != want {
		t.Fatalf("input chain mutated: got %q, want %q", got, want)
	}
	if got, want := len(chain), 1; got != want {
		t.Fatalf("input chain grew: got len %d, want %d", got, want)
	}
}

func TestLedger(t *testing.T) {
	var l Ledger
	l.Record("b.path", []string{"v1"})
	l.Record("a.path", []string{"v1", "v2"})
	l.Record("b.path", []string{"v1", "v3"})

	if got, want := l.Len(), 2; got != want {
		t.Fatalf("wrong length: got %d, want %d", got, want)
	}
	if diff := cmp.Diff([]string{"b.path", "a.path"}, l.Paths()); diff != "" {
		t.Errorf("wrong mutation order\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.path", "b.path"}, l.SortedPaths()); diff != "" {
		t.Errorf("wrong sorted paths\n%s", diff)
	}

	chain, ok := l.Chain("b.path")
	if !ok {
		t.Fatalf("chain for b.path missing")
	}
	if diff := cmp.Diff([]string{"v1", "v3"}, chain); diff != "" {
		t.Errorf("re-recording did not replace the chain\n%s", diff)
	}
	if _, ok := l.Chain("absent"); ok {
		t.Errorf("chain reported for a path never recorded")
	}
}
