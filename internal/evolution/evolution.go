// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package evolution resolves evolution chains into ordered, display-ready stages.
//
// The package is pure: it performs no I/O and keeps no state between calls.
// Data arriving from the upstream API is validated and converted into Node
// values by the pokeapi package before it reaches Resolve.
package evolution

// Detail is one trigger record describing how a stage is entered.
type Detail struct {
	// MinLevel is the minimum level required, nil when there is no level requirement.
	MinLevel *int
	// Trigger names the evolution trigger ("level-up", "trade", "use-item"), nil when unknown.
	Trigger *string
}

// Node is one stage of an evolution chain as delivered by the data source.
type Node struct {
	SpeciesName string
	Details     []Detail
	Next        []*Node
}

// Stage is one resolved, display-ready point in an evolution chain.
type Stage struct {
	Name     string  `json:"name"`
	MinLevel *int    `json:"minLevel,omitempty"`
	Trigger  *string `json:"trigger,omitempty"`
}

// Resolve walks the chain from root along the first branch at every node and
// returns one Stage per visited node, root first.
//
// A nil root yields an empty slice. Resolve never fails: missing details are
// reported as absent fields, and a node visited twice ends the walk.
func Resolve(root *Node) []Stage {
	stages := make([]Stage, 0, 3)
	seen := make(map[*Node]struct{})

	for current := root; current != nil; {
		if _, dup := seen[current]; dup {
			break
		}
		seen[current] = struct{}{}

		stages = append(stages, stageOf(current))

		if len(current.Next) == 0 {
			break
		}
		current = current.Next[0]
	}

	return stages
}

// stageOf derives the Stage for a single node from its first detail record.
func stageOf(n *Node) Stage {
	st := Stage{Name: n.SpeciesName}
	if len(n.Details) == 0 {
		return st
	}

	d := n.Details[0]
	if d.MinLevel != nil && *d.MinLevel > 0 {
		lvl := *d.MinLevel
		st.MinLevel = &lvl
	}
	if d.Trigger != nil && *d.Trigger != "" {
		trig := *d.Trigger
		st.Trigger = &trig
	}
	return st
}

// Level returns the minimum level or 0 when absent.
func (s Stage) Level() int {
	if s.MinLevel == nil {
		return 0
	}
	return *s.MinLevel
}

// TriggerName returns the trigger or "" when absent.
func (s Stage) TriggerName() string {
	if s.Trigger == nil {
		return ""
	}
	return *s.Trigger
}
