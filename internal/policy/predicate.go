// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package policy

import (
	"fmt"
	"regexp"

	"github.com/zclconf/go-cty/cty"

	"github.com/tofuguard/tofuguard/internal/attrtree"
	"github.com/tofuguard/tofuguard/internal/graph"
)

// Predicate evaluates one named condition against one attribute of a
// vertex's exported mapping. Predicates are pure: evaluation never mutates
// anything and never fails, and absence of the tested attribute is a defined
// verdict per operator rather than an error.
type Predicate struct {
	op        Operator
	kinds     map[graph.BlockKind]struct{}
	attribute string
	compare   cty.Value
	pattern   *regexp.Regexp
}

// NewPredicate builds a predicate for the given operator, applicable block
// kinds, attribute path, and comparison value. A comparison value
// incompatible with the operator's semantics is a caller contract violation
// and fails here, never at evaluation time.
func NewPredicate(op Operator, kinds []graph.BlockKind, attribute string, compare cty.Value) (*Predicate, error) {
	if attribute == "" {
		return nil, fmt.Errorf("predicate %q: attribute path must not be empty", op)
	}
	p := &Predicate{
		op:        op,
		kinds:     make(map[graph.BlockKind]struct{}, len(kinds)),
		attribute: attribute,
		compare:   compare,
	}
	for _, k := range kinds {
		p.kinds[k] = struct{}{}
	}

	switch op {
	case OpWithin:
		if !attrtree.IsSequence(compare) {
			return nil, fmt.Errorf("predicate %q on %q: comparison value must be a sequence", op, attribute)
		}
	case OpEquals, OpNotEquals:
		if compare == cty.NilVal {
			return nil, fmt.Errorf("predicate %q on %q: comparison value is required", op, attribute)
		}
	case OpRegexMatch, OpNotRegexMatch:
		if compare == cty.NilVal || compare.IsNull() || compare.Type() != cty.String {
			return nil, fmt.Errorf("predicate %q on %q: comparison value must be a pattern string", op, attribute)
		}
		pattern, err := regexp.Compile(compare.AsString())
		if err != nil {
			return nil, fmt.Errorf("predicate %q on %q: %w", op, attribute, err)
		}
		p.pattern = pattern
	case OpGreaterThan, OpLessThan:
		if compare == cty.NilVal || compare.IsNull() || compare.Type() != cty.Number {
			return nil, fmt.Errorf("predicate %q on %q: comparison value must be a number", op, attribute)
		}
	case OpExists, OpNotExists, OpEmpty, OpNotEmpty:
		// No comparison value.
	default:
		return nil, fmt.Errorf("unknown operator %q", op)
	}
	return p, nil
}

// Attribute returns the dotted path the predicate tests.
func (p *Predicate) Attribute() string {
	return p.attribute
}

// AppliesTo reports whether the predicate was configured for the given block
// kind. A predicate configured with no kinds applies to all of them.
func (p *Predicate) AppliesTo(kind graph.BlockKind) bool {
	if len(p.kinds) == 0 {
		return true
	}
	_, ok := p.kinds[kind]
	return ok
}

// Evaluate returns the predicate's verdict against an exported attribute
// mapping.
//
// Absence semantics: within, equals, regex_match, greater_than, less_than,
// exists and not_empty treat a missing attribute as false; their negations
// treat it as true; empty treats nothing-there as empty, so true.
func (p *Predicate) Evaluate(exported map[string]cty.Value) bool {
	val, ok := exported[p.attribute]

	switch p.op {
	case OpWithin:
		if !ok {
			return false
		}
		for it := p.compare.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			if val.RawEquals(ev) {
				return true
			}
		}
		return false
	case OpEquals:
		return ok && val.RawEquals(p.compare)
	case OpNotEquals:
		return !ok || !val.RawEquals(p.compare)
	case OpRegexMatch:
		return ok && p.matches(val)
	case OpNotRegexMatch:
		return !ok || !p.matches(val)
	case OpGreaterThan:
		return ok && compareNumbers(val, p.compare) > 0
	case OpLessThan:
		return ok && compareNumbers(val, p.compare) < 0
	case OpExists:
		return ok && !val.IsNull()
	case OpNotExists:
		return !ok || val.IsNull()
	case OpEmpty:
		return !ok || isEmpty(val)
	case OpNotEmpty:
		return ok && !isEmpty(val)
	default:
		// NewPredicate is the only constructor, so this is unreachable.
		return false
	}
}

func (p *Predicate) matches(val cty.Value) bool {
	if val.IsNull() || val.Type() != cty.String {
		return false
	}
	return p.pattern.MatchString(val.AsString())
}

// compareNumbers returns the sign of a - b, or 0 when either side is not a
// number, which makes both range operators evaluate false on a type
// mismatch.
func compareNumbers(a, b cty.Value) int {
	if a.IsNull() || a.Type() != cty.Number || b.IsNull() || b.Type() != cty.Number {
		return 0
	}
	return a.AsBigFloat().Cmp(b.AsBigFloat())
}

func isEmpty(val cty.Value) bool {
	if val.IsNull() {
		return true
	}
	switch {
	case val.Type() == cty.String:
		return val.AsString() == ""
	case attrtree.IsSequence(val) || attrtree.IsMapping(val):
		return val.LengthInt() == 0
	default:
		return false
	}
}
