// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package policy

import (
	"fmt"

	"github.com/tofuguard/tofuguard/internal/graph"
)

// Status is the verdict of running one check against one vertex.
type Status rune

const (
	StatusPassed  Status = 'P'
	StatusFailed  Status = 'F'
	StatusSkipped Status = 'S'
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("unknown status %q", rune(s))
	}
}

// Check is one policy check: an identity plus the predicate it applies.
type Check struct {
	ID        string
	Name      string
	Predicate *Predicate
}

// Run evaluates the check against a vertex. Vertices outside the check's
// applicable kinds are skipped; a true predicate verdict passes. Run reads
// the vertex through its export surface only.
func (c *Check) Run(v *graph.Vertex) (Status, error) {
	if !c.Predicate.AppliesTo(v.Kind) {
		return StatusSkipped, nil
	}
	exported, err := v.Export()
	if err != nil {
		return StatusSkipped, fmt.Errorf("check %s against %s: %w", c.ID, v, err)
	}
	if c.Predicate.Evaluate(exported) {
		return StatusPassed, nil
	}
	return StatusFailed, nil
}
