// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package prepass

import (
	"fmt"
	"math"

	"github.com/AleutianAI/esolve/services/extract/egraph"
)

// pseudoRootOp names the zero-cost node synthesized to unify multiple
// parentless classes under a single entry point.
const pseudoRootOp = "pseudo_root"

// =============================================================================
// Partitioner
// =============================================================================

// Partition splits a description into k = round(1/factor) buckets of
// roughly equal node count whose class sets partition the input class
// set exactly.
//
// Description: The input is cloned, never mutated. If more than one
//   class is parentless, a zero-cost pseudo-root node is synthesized
//   so breadth-first traversal has one entry point. Classes are
//   bucketed in BFS order; a bucket seals once its node count reaches
//   total/k, except the final bucket, which absorbs the remainder so
//   no class is ever dropped. Cross-bucket child references are cut
//   from each sub-description; each bucket then gets its own root
//   recomputation, synthesizing a per-partition pseudo-root (with a
//   partition-distinct class id) when several in-bucket classes end
//   up parentless.
//
// Inputs:
//   - d: the deduplicated description to split.
//   - factor: target bucket share in (0, 1]; factor 1 yields one
//     bucket containing the whole graph.
//
// Returns ErrInvalidFactor, ErrTooFewClasses when k exceeds the class
// count, ErrNoRoot for a graph with no parentless class or a bucket
// whose classes all keep an in-bucket parent, and ErrCoverageMismatch
// if the set-equality check over the produced buckets fails.
func Partition(d *egraph.Description, factor float64) ([]*egraph.Description, error) {
	if !(factor > 0 && factor <= 1) {
		return nil, fmt.Errorf("factor %v: %w", factor, ErrInvalidFactor)
	}
	work := d.Clone()

	classNodes, classOrder := groupByClass(work)
	parents := parentClasses(work)

	var roots []egraph.ClassID
	for _, class := range classOrder {
		if len(parents[class]) == 0 {
			roots = append(roots, class)
		}
	}
	if len(roots) == 0 {
		return nil, ErrNoRoot
	}
	if len(roots) > 1 {
		pseudo := egraph.NodeID{Class: egraph.PseudoRoot()}
		node := &egraph.Node{
			Op:       work.OpIndex(pseudoRootOp),
			Cost:     0,
			Class:    egraph.PseudoRoot(),
			Children: roots,
		}
		if err := work.AddNode(pseudo, node); err != nil {
			return nil, err
		}
		classNodes[egraph.PseudoRoot()] = []egraph.NodeID{pseudo}
		classOrder = append(classOrder, egraph.PseudoRoot())
		roots = []egraph.ClassID{egraph.PseudoRoot()}
	}

	k := int(math.Round(1 / factor))
	if k < 1 {
		k = 1
	}
	if k > len(classOrder) {
		return nil, fmt.Errorf("%d partitions over %d classes: %w", k, len(classOrder), ErrTooFewClasses)
	}
	target := float64(work.NodeCount()) / float64(k)

	buckets := bucketClasses(work, classNodes, roots[0], k, target)

	if err := checkCoverage(buckets, classOrder); err != nil {
		return nil, err
	}

	out := make([]*egraph.Description, 0, len(buckets))
	for idx, bucket := range buckets {
		sub, err := buildSubDescription(work, classNodes, bucket, idx)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// bucketClasses walks the graph breadth-first from root, accumulating
// classes into buckets of roughly target nodes each. Only the first
// k-1 buckets seal on reaching the target; the last one takes
// whatever remains, so the union over buckets is the full class set.
func bucketClasses(
	d *egraph.Description,
	classNodes map[egraph.ClassID][]egraph.NodeID,
	root egraph.ClassID,
	k int,
	target float64,
) [][]egraph.ClassID {
	var buckets [][]egraph.ClassID
	var current []egraph.ClassID
	count := 0

	enqueued := map[egraph.ClassID]bool{root: true}
	queue := []egraph.ClassID{root}
	for len(queue) > 0 {
		class := queue[0]
		queue = queue[1:]
		current = append(current, class)

		if float64(count) >= target && len(buckets) < k-1 {
			// Seal before expanding: the class that tipped the count
			// starts the next bucket's fill.
			buckets = append(buckets, current[:len(current)-1])
			current = []egraph.ClassID{class}
			count = 0
		}

		for _, id := range classNodes[class] {
			count++
			node, err := d.Node(id)
			if err != nil {
				continue
			}
			for _, child := range node.Children {
				if !enqueued[child] {
					enqueued[child] = true
					queue = append(queue, child)
				}
			}
		}
	}
	if len(current) > 0 {
		buckets = append(buckets, current)
	}
	return buckets
}

// buildSubDescription projects one bucket out of the parent
// description: in-bucket nodes keep their ids, cross-bucket child
// references are pruned, and the bucket's own parentless classes are
// unified under a partition-distinct pseudo-root when needed.
func buildSubDescription(
	d *egraph.Description,
	classNodes map[egraph.ClassID][]egraph.NodeID,
	bucket []egraph.ClassID,
	idx int,
) (*egraph.Description, error) {
	inBucket := make(map[egraph.ClassID]bool, len(bucket))
	for _, class := range bucket {
		inBucket[class] = true
	}

	sub := egraph.NewDescription()
	hasParent := make(map[egraph.ClassID]bool)
	for _, class := range bucket {
		for _, id := range classNodes[class] {
			node, err := d.Node(id)
			if err != nil {
				return nil, err
			}
			var children []egraph.ClassID
			for _, child := range node.Children {
				if inBucket[child] {
					children = append(children, child)
					hasParent[child] = true
				}
			}
			name, err := opName(d, node.Op)
			if err != nil {
				return nil, err
			}
			if err := sub.AddNode(id, &egraph.Node{
				Op:       sub.OpIndex(name),
				Cost:     node.Cost,
				Class:    node.Class,
				Children: children,
			}); err != nil {
				return nil, err
			}
		}
	}

	var roots []egraph.ClassID
	for _, class := range bucket {
		if !hasParent[class] {
			roots = append(roots, class)
		}
	}
	if len(roots) == 0 {
		// A bucket isolating a pure cycle has no entry point; emitting
		// it with an empty root list would poison downstream passes.
		return nil, fmt.Errorf("partition %d: every class has an in-bucket parent: %w", idx, ErrNoRoot)
	}
	if len(roots) > 1 {
		pseudo := egraph.NodeID{Class: egraph.PartitionRoot(idx)}
		if err := sub.AddNode(pseudo, &egraph.Node{
			Op:       sub.OpIndex(fmt.Sprintf("%s_%d", pseudoRootOp, idx)),
			Cost:     0,
			Class:    egraph.PartitionRoot(idx),
			Children: roots,
		}); err != nil {
			return nil, err
		}
		roots = []egraph.ClassID{egraph.PartitionRoot(idx)}
	}
	sub.Roots = roots
	return sub, nil
}

func checkCoverage(buckets [][]egraph.ClassID, classOrder []egraph.ClassID) error {
	seen := make(map[egraph.ClassID]int)
	total := 0
	for _, bucket := range buckets {
		for _, class := range bucket {
			seen[class]++
			total++
		}
	}
	if total != len(classOrder) || len(seen) != len(classOrder) {
		return fmt.Errorf("%d classes across buckets, %d in input: %w", total, len(classOrder), ErrCoverageMismatch)
	}
	for _, class := range classOrder {
		if seen[class] != 1 {
			return fmt.Errorf("class %s appears %d times: %w", class, seen[class], ErrCoverageMismatch)
		}
	}
	return nil
}

// groupByClass buckets node ids by owning class, both in insertion
// order.
func groupByClass(d *egraph.Description) (map[egraph.ClassID][]egraph.NodeID, []egraph.ClassID) {
	nodes := make(map[egraph.ClassID][]egraph.NodeID)
	var order []egraph.ClassID
	for _, id := range d.NodeIDs() {
		if _, ok := nodes[id.Class]; !ok {
			order = append(order, id.Class)
		}
		nodes[id.Class] = append(nodes[id.Class], id)
	}
	return nodes, order
}

// parentClasses maps each class to the ids of nodes referencing it.
func parentClasses(d *egraph.Description) map[egraph.ClassID][]egraph.NodeID {
	parents := make(map[egraph.ClassID][]egraph.NodeID)
	for _, id := range d.NodeIDs() {
		node, err := d.Node(id)
		if err != nil {
			continue
		}
		for _, child := range node.Children {
			parents[child] = append(parents[child], id)
		}
	}
	return parents
}

func opName(d *egraph.Description, op uint32) (string, error) {
	if int(op) >= len(d.Ops) {
		return "", fmt.Errorf("op %d: %w", op, egraph.ErrUnknownOp)
	}
	return d.Ops[op], nil
}
