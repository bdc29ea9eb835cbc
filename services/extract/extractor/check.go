// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extractor

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/esolve/services/extract/egraph"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrNoRoots indicates a graph with an empty root list.
	ErrNoRoots = errors.New("no root classes")

	// ErrMissingChoice indicates a root or reachable class for which
	// the result records no chosen node.
	ErrMissingChoice = errors.New("class has no chosen node")

	// ErrCycleDetected indicates the chosen subgraph contains a cycle.
	ErrCycleDetected = errors.New("cycle in chosen subgraph")

	// ErrClassMismatch indicates a choice table entry whose node does
	// not belong to the class it was recorded under.
	ErrClassMismatch = errors.New("chosen node belongs to a different class")
)

// =============================================================================
// Validation
// =============================================================================

// Check verifies that r is a valid extraction for g: roots exist and
// are chosen, every entry in the choice table belongs to the class it
// is recorded under, the dependency closure of the roots is fully
// chosen, and the chosen subgraph is acyclic. The first violation
// found is returned, wrapping the matching sentinel.
func Check(g *egraph.Graph, r *Result) error {
	roots := g.Roots()
	if len(roots) == 0 {
		return ErrNoRoots
	}
	for _, root := range roots {
		if _, ok := r.Choice(root); !ok {
			return fmt.Errorf("root %s: %w", root, ErrMissingChoice)
		}
	}
	for _, class := range r.Classes() {
		id, _ := r.Choice(class)
		if id.Class != class {
			return fmt.Errorf("class %s chose %s: %w", class, id, ErrClassMismatch)
		}
	}

	// Closure walk: every class reachable through chosen nodes must
	// itself have a choice.
	visited := make(map[egraph.ClassID]bool)
	stack := append([]egraph.ClassID(nil), roots...)
	for len(stack) > 0 {
		class := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[class] {
			continue
		}
		visited[class] = true
		id, ok := r.Choice(class)
		if !ok {
			return fmt.Errorf("reachable class %s: %w", class, ErrMissingChoice)
		}
		node, err := g.Node(id)
		if err != nil {
			return err
		}
		stack = append(stack, node.Children...)
	}

	if cycles := FindCycles(g, r, roots); len(cycles) > 0 {
		return fmt.Errorf("classes %v: %w", cycles, ErrCycleDetected)
	}
	return nil
}

// dfsColor is the visitation state of a class during cycle detection.
type dfsColor uint8

const (
	colorWhite dfsColor = iota // unvisited
	colorGray                  // on the current DFS path
	colorBlack                 // fully explored
)

// FindCycles returns the classes sitting on a cycle of the chosen
// subgraph, discovered by a three-color depth-first search from the
// given roots. Classes without a choice terminate their branch rather
// than failing; Check reports those separately. An empty return means
// the chosen subgraph is acyclic.
func FindCycles(g *egraph.Graph, r *Result, roots []egraph.ClassID) []egraph.ClassID {
	colors := make(map[egraph.ClassID]dfsColor)
	var cycles []egraph.ClassID

	var visit func(class egraph.ClassID)
	visit = func(class egraph.ClassID) {
		switch colors[class] {
		case colorGray:
			cycles = append(cycles, class)
			return
		case colorBlack:
			return
		}
		id, ok := r.Choice(class)
		if !ok {
			colors[class] = colorBlack
			return
		}
		node, err := g.Node(id)
		if err != nil {
			colors[class] = colorBlack
			return
		}
		colors[class] = colorGray
		for _, child := range node.Children {
			visit(child)
		}
		colors[class] = colorBlack
	}

	for _, root := range roots {
		visit(root)
	}
	return cycles
}
