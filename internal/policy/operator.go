// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

// Package policy implements the predicate layer of the scanner: the closed
// family of comparison operators a check may apply to one resolved attribute
// of a vertex's exported mapping, and the loader that builds checks from
// YAML documents.
package policy

import (
	"fmt"

	"github.com/agext/levenshtein"
)

// Operator names one comparison semantics. The set is closed and known at
// build time; check documents referring to anything else fail at load, not
// at evaluation.
type Operator string

const (
	OpWithin        Operator = "within"
	OpEquals        Operator = "equals"
	OpNotEquals     Operator = "not_equals"
	OpRegexMatch    Operator = "regex_match"
	OpNotRegexMatch Operator = "not_regex_match"
	OpGreaterThan   Operator = "greater_than"
	OpLessThan      Operator = "less_than"
	OpExists        Operator = "exists"
	OpNotExists     Operator = "not_exists"
	OpEmpty         Operator = "empty"
	OpNotEmpty      Operator = "not_empty"
)

var allOperators = []Operator{
	OpWithin,
	OpEquals,
	OpNotEquals,
	OpRegexMatch,
	OpNotRegexMatch,
	OpGreaterThan,
	OpLessThan,
	OpExists,
	OpNotExists,
	OpEmpty,
	OpNotEmpty,
}

// ParseOperator maps an operator name from a check document onto the closed
// operator set, suggesting a near miss when one is close enough.
func ParseOperator(name string) (Operator, error) {
	for _, op := range allOperators {
		if name == string(op) {
			return op, nil
		}
	}
	if suggestion := operatorSuggestion(name); suggestion != "" {
		return "", fmt.Errorf("unknown operator %q; did you mean %q?", name, suggestion)
	}
	return "", fmt.Errorf("unknown operator %q", name)
}

func operatorSuggestion(name string) string {
	for _, op := range allOperators {
		if levenshtein.Distance(name, string(op), nil) < 3 {
			return string(op)
		}
	}
	return ""
}
