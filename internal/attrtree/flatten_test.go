// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package attrtree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zclconf/go-cty-debug/ctydebug"
	"github.com/zclconf/go-cty/cty"
)

func TestFlatten(t *testing.T) {
	tests := map[string]struct {
		rootKey string
		value   cty.Value
		want    map[string]cty.Value
	}{
		"primitive leaf": {
			rootKey: "cidr_block",
			value:   cty.StringVal("10.0.0.0/16"),
			want: map[string]cty.Value{
				"cidr_block": cty.StringVal("10.0.0.0/16"),
			},
		},
		"sequence of mappings": {
			rootKey: "ingress",
			value: cty.TupleVal([]cty.Value{
				cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(80)}),
				cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(443)}),
			}),
			want: map[string]cty.Value{
				"ingress": cty.TupleVal([]cty.Value{
					cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(80)}),
					cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(443)}),
				}),
				"ingress.0":      cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(80)}),
				"ingress.0.port": cty.NumberIntVal(80),
				"ingress.1":      cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(443)}),
				"ingress.1.port": cty.NumberIntVal(443),
			},
		},
		"singleton sequence unwraps at every level": {
			rootKey: "tags",
			value: cty.TupleVal([]cty.Value{
				cty.ObjectVal(map[string]cty.Value{
					"values": cty.TupleVal([]cty.Value{
						cty.ObjectVal(map[string]cty.Value{"key": cty.StringVal("env")}),
					}),
				}),
			}),
			want: map[string]cty.Value{
				"tags": cty.ObjectVal(map[string]cty.Value{
					"values": cty.ObjectVal(map[string]cty.Value{"key": cty.StringVal("env")}),
				}),
				"tags.values": cty.ObjectVal(map[string]cty.Value{
					"key": cty.StringVal("env"),
				}),
				"tags.values.key": cty.StringVal("env"),
			},
		},
		"empty mapping": {
			rootKey: "lifecycle",
			value:   cty.EmptyObjectVal,
			want: map[string]cty.Value{
				"lifecycle": cty.EmptyObjectVal,
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := Flatten(test.rootKey, test.value)
			if diff := cmp.Diff(test.want, got, ctydebug.CmpOptions); diff != "" {
				t.Errorf("wrong result\n%s", diff)
			}
		})
	}
}

// Flattening, reconstructing the nested form from the top-level entries, and
// flattening again must be a fixed point.
func TestFlattenMap_idempotent(t *testing.T) {
	attrs := map[string]cty.Value{
		"name": cty.StringVal("example"),
		"ingress": cty.TupleVal([]cty.Value{
			cty.ObjectVal(map[string]cty.Value{
				"port": cty.NumberIntVal(80),
				"cidr_blocks": cty.TupleVal([]cty.Value{
					cty.StringVal("0.0.0.0/0"),
					cty.StringVal("10.0.0.0/8"),
				}),
			}),
			cty.ObjectVal(map[string]cty.Value{
				"port": cty.NumberIntVal(443),
				"rules": cty.TupleVal([]cty.Value{
					cty.ObjectVal(map[string]cty.Value{
						"action": cty.TupleVal([]cty.Value{
							cty.ObjectVal(map[string]cty.Value{"verb": cty.StringVal("allow")}),
						}),
					}),
				}),
			}),
		}),
		"tags": cty.TupleVal([]cty.Value{
			cty.ObjectVal(map[string]cty.Value{"env": cty.StringVal("prod")}),
		}),
	}

	first := FlattenMap(attrs)
	second := FlattenMap(Roots(first))
	if diff := cmp.Diff(first, second, ctydebug.CmpOptions); diff != "" {
		t.Errorf("re-flattening the reconstructed form changed the projection\n%s", diff)
	}

	// The singleton tags wrapper must be observed unwrapped.
	want := cty.ObjectVal(map[string]cty.Value{"env": cty.StringVal("prod")})
	if got := first["tags"]; !got.RawEquals(want) {
		t.Errorf("wrong tags value: got %#v, want %#v", got, want)
	}
	if _, exists := first["tags.0"]; exists {
		t.Errorf("unwrapped singleton still produced an indexed path")
	}
}

func TestSetAtPath(t *testing.T) {
	base := cty.ObjectVal(map[string]cty.Value{
		"ingress": cty.TupleVal([]cty.Value{
			cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(80)}),
			cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(443)}),
		}),
		"tags": cty.ObjectVal(map[string]cty.Value{"env": cty.StringVal("dev")}),
	})

	tests := map[string]struct {
		parts  []string
		newVal cty.Value
		want   cty.Value
		wantOK bool
	}{
		"mapping key": {
			parts:  []string{"tags", "env"},
			newVal: cty.StringVal("prod"),
			want: cty.ObjectVal(map[string]cty.Value{
				"ingress": cty.TupleVal([]cty.Value{
					cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(80)}),
					cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(443)}),
				}),
				"tags": cty.ObjectVal(map[string]cty.Value{"env": cty.StringVal("prod")}),
			}),
			wantOK: true,
		},
		"new mapping key": {
			parts:  []string{"tags", "team"},
			newVal: cty.StringVal("infra"),
			want: cty.ObjectVal(map[string]cty.Value{
				"ingress": cty.TupleVal([]cty.Value{
					cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(80)}),
					cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(443)}),
				}),
				"tags": cty.ObjectVal(map[string]cty.Value{
					"env":  cty.StringVal("dev"),
					"team": cty.StringVal("infra"),
				}),
			}),
			wantOK: true,
		},
		"numeric index": {
			parts:  []string{"ingress", "1", "port"},
			newVal: cty.NumberIntVal(8443),
			want: cty.ObjectVal(map[string]cty.Value{
				"ingress": cty.TupleVal([]cty.Value{
					cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(80)}),
					cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(8443)}),
				}),
				"tags": cty.ObjectVal(map[string]cty.Value{"env": cty.StringVal("dev")}),
			}),
			wantOK: true,
		},
		"broadcast over sequence": {
			parts:  []string{"ingress", "port"},
			newVal: cty.NumberIntVal(8080),
			want: cty.ObjectVal(map[string]cty.Value{
				"ingress": cty.TupleVal([]cty.Value{
					cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(8080)}),
					cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(8080)}),
				}),
				"tags": cty.ObjectVal(map[string]cty.Value{"env": cty.StringVal("dev")}),
			}),
			wantOK: true,
		},
		"missing intermediate key": {
			parts:  []string{"egress", "port"},
			newVal: cty.NumberIntVal(53),
			want:   base,
			wantOK: false,
		},
		"index out of range": {
			parts:  []string{"ingress", "5", "port"},
			newVal: cty.NumberIntVal(53),
			want:   base,
			wantOK: false,
		},
		"descend into primitive": {
			parts:  []string{"tags", "env", "deep"},
			newVal: cty.StringVal("x"),
			want:   base,
			wantOK: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := SetAtPath(base, test.parts, test.newVal)
			if ok != test.wantOK {
				t.Fatalf("wrong ok result: got %v, want %v", ok, test.wantOK)
			}
			if diff := cmp.Diff(test.want, got, ctydebug.CmpOptions); diff != "" {
				t.Errorf("wrong result\n%s", diff)
			}
		})
	}
}

func TestPathHelpers(t *testing.T) {
	parts := SplitPath("ingress.0.port")
	if got, want := len(parts), 3; got != want {
		t.Fatalf("wrong component count: got %d, want %d", got, want)
	}
	if got, want := JoinPath(parts), "ingress.0.port"; got != want {
		t.Errorf("wrong joined path: got %q, want %q", got, want)
	}
	if got, want := PrefixPath(parts, 1), "ingress.0"; got != want {
		t.Errorf("wrong prefix: got %q, want %q", got, want)
	}
	if got, want := PrefixPath(parts, 0), "ingress.0.port"; got != want {
		t.Errorf("wrong zero-trim prefix: got %q, want %q", got, want)
	}
	if !IsIndex("0") || IsIndex("port") {
		t.Errorf("IsIndex misclassified a component")
	}
}
