// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package egraph

import (
	"fmt"
	"math"
)

// =============================================================================
// Node
// =============================================================================

// Node is one candidate implementation of its e-class.
//
// Op indexes into the description's operator name table. Children
// reference e-classes, not nodes: a class stands for every candidate
// inside it, and child resolution happens at extraction time. Cost is
// the node's own cost, excluding children.
type Node struct {
	Op       uint32
	Cost     float64
	Class    ClassID
	Children []ClassID
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// validCost reports whether c is usable as a node cost: finite and
// non-negative. Zero is allowed.
func validCost(c float64) bool {
	return c >= 0 && !math.IsInf(c, 1) && !math.IsNaN(c)
}

// =============================================================================
// EClass
// =============================================================================

// EClass groups the candidate nodes of one e-class in insertion order.
type EClass struct {
	ID    ClassID
	Nodes []NodeID
}

// =============================================================================
// Description
// =============================================================================

// Description is the mutable serialized form of an e-graph.
//
// Description: Holds nodes keyed by NodeID in insertion order, the
//   root class list, and the operator name table. It is the unit the
//   pre-passes (redundant-node removal, partitioning) edit before a
//   frozen Graph is built with NewGraph.
//
// Thread Safety: Not safe for concurrent mutation. Build or edit a
//   Description on one goroutine, then freeze it into a Graph.
type Description struct {
	nodes map[NodeID]*Node
	order []NodeID
	dead  int

	// Roots lists the classes whose extraction is requested.
	Roots []ClassID

	// Ops is the operator name table; Node.Op indexes into it.
	Ops []string
}

// NewDescription returns an empty description.
func NewDescription() *Description {
	return &Description{nodes: make(map[NodeID]*Node)}
}

// AddNode inserts a node under the given id.
//
// Inputs:
//   - id: the node's identity; id.Class must equal node.Class.
//   - node: the candidate node. The description takes ownership.
//
// Returns ErrDuplicateNode if the id is taken, ErrOwnerMismatch if the
// id and node disagree on the owning class, and ErrInvalidCost for a
// negative, NaN, or infinite cost.
func (d *Description) AddNode(id NodeID, node *Node) error {
	if _, ok := d.nodes[id]; ok {
		return fmt.Errorf("node %s: %w", id, ErrDuplicateNode)
	}
	if id.Class != node.Class {
		return fmt.Errorf("node %s declares class %s: %w", id, node.Class, ErrOwnerMismatch)
	}
	if !validCost(node.Cost) {
		return fmt.Errorf("node %s cost %v: %w", id, node.Cost, ErrInvalidCost)
	}
	d.nodes[id] = node
	d.order = append(d.order, id)
	return nil
}

// Node returns the node stored under id, or ErrNodeNotFound.
func (d *Description) Node(id NodeID) (*Node, error) {
	n, ok := d.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, ErrNodeNotFound)
	}
	return n, nil
}

// Remove deletes the node stored under id. Removing an absent id is a
// no-op. The insertion order of the remaining nodes is preserved; the
// order index is compacted once dead entries outnumber live ones, so
// repeated removal passes do not accumulate dead slots.
func (d *Description) Remove(id NodeID) {
	if _, ok := d.nodes[id]; !ok {
		return
	}
	delete(d.nodes, id)
	d.dead++
	if d.dead > len(d.nodes) {
		d.compact()
	}
}

func (d *Description) compact() {
	live := d.order[:0]
	for _, id := range d.order {
		if _, ok := d.nodes[id]; ok {
			live = append(live, id)
		}
	}
	d.order = live
	d.dead = 0
}

// NodeIDs returns the live node ids in insertion order.
func (d *Description) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(d.nodes))
	for _, id := range d.order {
		if _, ok := d.nodes[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// NodeCount returns the number of live nodes.
func (d *Description) NodeCount() int {
	return len(d.nodes)
}

// OpIndex returns the index of name in the operator table, appending
// it if absent. The table is expected to stay small; lookups scan it.
func (d *Description) OpIndex(name string) uint32 {
	for i, op := range d.Ops {
		if op == name {
			return uint32(i)
		}
	}
	d.Ops = append(d.Ops, name)
	return uint32(len(d.Ops) - 1)
}

// Clone returns a deep copy: nodes, insertion order, roots, and the
// operator table are all independent of the receiver.
func (d *Description) Clone() *Description {
	c := &Description{
		nodes: make(map[NodeID]*Node, len(d.nodes)),
		Roots: append([]ClassID(nil), d.Roots...),
		Ops:   append([]string(nil), d.Ops...),
	}
	for _, id := range d.NodeIDs() {
		n := d.nodes[id]
		c.nodes[id] = &Node{
			Op:       n.Op,
			Cost:     n.Cost,
			Class:    n.Class,
			Children: append([]ClassID(nil), n.Children...),
		}
		c.order = append(c.order, id)
	}
	return c
}
