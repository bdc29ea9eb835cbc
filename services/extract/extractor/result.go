// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extractor selects one candidate node per e-class so that the
// chosen subgraph is acyclic, covers the requested roots, and has low
// cost. It provides the Result type with validation and tree/DAG cost
// accounting, and a greedy cost-sharing-aware extractor.
package extractor

import (
	"fmt"

	"github.com/AleutianAI/esolve/services/extract/egraph"
)

// =============================================================================
// Result
// =============================================================================

// Result maps each e-class to its chosen candidate node.
//
// Description: The choice table is insertion-ordered so that
//   re-serialization and directive generation are deterministic for a
//   given extraction run. NodeCosts carries the per-node candidate
//   totals the extractor observed; the exclusion pass consumes it.
//
// Thread Safety: Not safe for concurrent mutation.
type Result struct {
	choices map[egraph.ClassID]egraph.NodeID
	order   []egraph.ClassID

	// NodeCosts records, for every candidate node that ever produced a
	// finite total during extraction, the best such total.
	NodeCosts map[egraph.NodeID]float64
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{
		choices:   make(map[egraph.ClassID]egraph.NodeID),
		NodeCosts: make(map[egraph.NodeID]float64),
	}
}

// Choose records id as the selection for its owning class, replacing
// any earlier choice for that class.
func (r *Result) Choose(id egraph.NodeID) {
	if _, ok := r.choices[id.Class]; !ok {
		r.order = append(r.order, id.Class)
	}
	r.choices[id.Class] = id
}

// Choice returns the chosen node for class, and whether one exists.
func (r *Result) Choice(class egraph.ClassID) (egraph.NodeID, bool) {
	id, ok := r.choices[class]
	return id, ok
}

// Classes returns the classes with a choice, in the order the first
// choice for each was recorded.
func (r *Result) Classes() []egraph.ClassID {
	return r.order
}

// Len returns the number of classes with a choice.
func (r *Result) Len() int {
	return len(r.choices)
}

// Description re-serializes the chosen subgraph: the nodes reachable
// from g's roots under the result's choices, with a compacted operator
// table. The result must have passed Check for the output to be a
// valid description.
func (r *Result) Description(g *egraph.Graph) (*egraph.Description, error) {
	out := egraph.NewDescription()
	visited := make(map[egraph.ClassID]bool)
	stack := append([]egraph.ClassID(nil), g.Roots()...)
	for len(stack) > 0 {
		class := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[class] {
			continue
		}
		visited[class] = true
		id, ok := r.choices[class]
		if !ok {
			return nil, fmt.Errorf("class %s: %w", class, ErrMissingChoice)
		}
		node, err := g.Node(id)
		if err != nil {
			return nil, err
		}
		name, err := g.OpName(node.Op)
		if err != nil {
			return nil, err
		}
		if err := out.AddNode(id, &egraph.Node{
			Op:       out.OpIndex(name),
			Cost:     node.Cost,
			Class:    node.Class,
			Children: append([]egraph.ClassID(nil), node.Children...),
		}); err != nil {
			return nil, err
		}
		for _, child := range node.Children {
			if !visited[child] {
				stack = append(stack, child)
			}
		}
	}
	out.Roots = append([]egraph.ClassID(nil), g.Roots()...)
	return out, nil
}

// =============================================================================
// Extractor
// =============================================================================

// Extractor selects one node per reachable class for the given roots.
type Extractor interface {
	Extract(g *egraph.Graph, roots []egraph.ClassID) *Result
}
