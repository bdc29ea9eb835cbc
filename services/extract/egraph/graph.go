// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package egraph

import "fmt"

// =============================================================================
// Graph
// =============================================================================

// Graph is the frozen, validated model the extractors consume.
//
// Description: NewGraph deep-copies a Description, re-checks its
//   invariants, and freezes the result. The class grouping is computed
//   lazily on first use and cached; because the graph never mutates,
//   the cache is never invalidated.
//
// Thread Safety: Safe for concurrent reads after Classes has been
//   called once. The lazy class cache itself is not synchronized, so
//   either call Classes before sharing the graph or confine it to one
//   goroutine. The extraction pipeline is single-threaded.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID
	roots []ClassID
	ops   []string

	classes    map[ClassID]*EClass
	classOrder []ClassID
}

// NewGraph validates d and returns a frozen graph over a deep copy of
// its contents. The checks mirror DecodeDescription so graphs built
// from programmatically assembled descriptions get the same
// guarantees as decoded ones.
func NewGraph(d *Description) (*Graph, error) {
	c := d.Clone()
	if err := validateDescription(c); err != nil {
		return nil, err
	}
	return &Graph{
		nodes: c.nodes,
		order: c.order,
		roots: c.Roots,
		ops:   c.Ops,
	}, nil
}

// Node returns the node stored under id, or ErrNodeNotFound.
func (g *Graph) Node(id NodeID) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, ErrNodeNotFound)
	}
	return n, nil
}

// NodeIDs returns all node ids in insertion order.
func (g *Graph) NodeIDs() []NodeID {
	return g.order
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Roots returns the root classes in declaration order.
func (g *Graph) Roots() []ClassID {
	return g.roots
}

// OpName resolves an operator index to its name, or ErrUnknownOp.
func (g *Graph) OpName(op uint32) (string, error) {
	if int(op) >= len(g.ops) {
		return "", fmt.Errorf("op %d (table size %d): %w", op, len(g.ops), ErrUnknownOp)
	}
	return g.ops[op], nil
}

// Ops returns the operator name table.
func (g *Graph) Ops() []string {
	return g.ops
}

// Classes returns the e-classes in order of first appearance. The
// grouping is computed once and cached.
func (g *Graph) Classes() []*EClass {
	g.buildClasses()
	out := make([]*EClass, len(g.classOrder))
	for i, id := range g.classOrder {
		out[i] = g.classes[id]
	}
	return out
}

// ClassOf returns the e-class with the given id, or ErrClassNotFound.
func (g *Graph) ClassOf(id ClassID) (*EClass, error) {
	g.buildClasses()
	c, ok := g.classes[id]
	if !ok {
		return nil, fmt.Errorf("class %s: %w", id, ErrClassNotFound)
	}
	return c, nil
}

// ClassCount returns the number of e-classes.
func (g *Graph) ClassCount() int {
	g.buildClasses()
	return len(g.classes)
}

func (g *Graph) buildClasses() {
	if g.classes != nil {
		return
	}
	g.classes = make(map[ClassID]*EClass)
	for _, id := range g.order {
		c, ok := g.classes[id.Class]
		if !ok {
			c = &EClass{ID: id.Class}
			g.classes[id.Class] = c
			g.classOrder = append(g.classOrder, id.Class)
		}
		c.Nodes = append(c.Nodes, id)
	}
}

// Parents computes, for every class, the nodes that reference it as a
// child. A node referencing the same class through several child slots
// appears once per slot; callers that need distinct parents dedupe via
// the worklist.
func (g *Graph) Parents() map[ClassID][]NodeID {
	parents := make(map[ClassID][]NodeID)
	for _, id := range g.order {
		for _, child := range g.nodes[id].Children {
			parents[child] = append(parents[child], id)
		}
	}
	return parents
}

// Leaves returns the ids of all childless nodes in insertion order.
func (g *Graph) Leaves() []NodeID {
	var leaves []NodeID
	for _, id := range g.order {
		if g.nodes[id].IsLeaf() {
			leaves = append(leaves, id)
		}
	}
	return leaves
}
