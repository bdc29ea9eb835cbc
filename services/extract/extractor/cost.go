// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extractor

import (
	"fmt"

	"github.com/AleutianAI/esolve/services/extract/egraph"
)

// =============================================================================
// Cost Accounting
// =============================================================================

// TreeCost returns the cost of the chosen subgraph when sharing is
// ignored: each class's cost is its chosen node's cost plus the full
// tree cost of every child, counted once per use. Memoized per class,
// so shared subtrees are computed once but still charged per use site.
// Requires an acyclic, fully chosen result (see Check).
func TreeCost(g *egraph.Graph, r *Result, roots []egraph.ClassID) (float64, error) {
	memo := make(map[egraph.ClassID]float64)

	var classCost func(class egraph.ClassID) (float64, error)
	classCost = func(class egraph.ClassID) (float64, error) {
		if c, ok := memo[class]; ok {
			return c, nil
		}
		id, ok := r.Choice(class)
		if !ok {
			return 0, fmt.Errorf("class %s: %w", class, ErrMissingChoice)
		}
		node, err := g.Node(id)
		if err != nil {
			return 0, err
		}
		total := node.Cost
		for _, child := range node.Children {
			c, err := classCost(child)
			if err != nil {
				return 0, err
			}
			total += c
		}
		memo[class] = total
		return total, nil
	}

	var sum float64
	for _, root := range roots {
		c, err := classCost(root)
		if err != nil {
			return 0, err
		}
		sum += c
	}
	return sum, nil
}

// DagCost returns the cost of the chosen subgraph with sharing: each
// reachable class contributes its chosen node's cost exactly once no
// matter how many nodes reference it. Requires a fully chosen result
// for the reachable set.
func DagCost(g *egraph.Graph, r *Result, roots []egraph.ClassID) (float64, error) {
	visited := make(map[egraph.ClassID]bool)
	stack := append([]egraph.ClassID(nil), roots...)
	var sum float64
	for len(stack) > 0 {
		class := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[class] {
			continue
		}
		visited[class] = true
		id, ok := r.Choice(class)
		if !ok {
			return 0, fmt.Errorf("class %s: %w", class, ErrMissingChoice)
		}
		node, err := g.Node(id)
		if err != nil {
			return 0, err
		}
		sum += node.Cost
		stack = append(stack, node.Children...)
	}
	return sum, nil
}
