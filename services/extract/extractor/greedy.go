// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extractor

import (
	"math"
	"sort"

	"github.com/AleutianAI/esolve/services/extract/egraph"
)

// =============================================================================
// Greedy DAG Extractor
// =============================================================================

// CostSet is the running best answer for one e-class: the chosen node,
// the per-class cost contributions of everything beneath it, and their
// sum. Tracking contributions per class (rather than a scalar) is what
// lets the extractor account for sharing: a class pulled in through
// two different children is charged once.
type CostSet struct {
	// Costs maps each class in the chosen sub-DAG to its single
	// counted contribution.
	Costs map[egraph.ClassID]float64

	// Total is the sum over Costs. Positive infinity marks a candidate
	// that cannot beat the incumbent or would close a cycle.
	Total float64

	// Choice is the candidate node this cost set describes.
	Choice egraph.NodeID
}

// GreedyDagExtractor selects nodes by a worklist fixpoint over
// sharing-aware cost sets.
//
// Description: Leaves are seeded first; whenever a class's best cost
//   set strictly improves, every node referencing that class is
//   re-enqueued. A candidate is only evaluated once all of its child
//   classes have a cost set. The FIFO worklist holds each node at most
//   once, so runs are deterministic for a given description and the
//   fixpoint terminates: totals only decrease and are bounded below
//   by zero.
//
// Example:
//
//	result := extractor.GreedyDagExtractor{}.Extract(g, g.Roots())
//	if err := extractor.Check(g, result); err != nil { ... }
type GreedyDagExtractor struct{}

var _ Extractor = GreedyDagExtractor{}

// Extract computes choices for every class that admits a finite,
// acyclic cost set — a superset of the classes reachable from roots.
// Per-candidate totals observed along the way are recorded in the
// result's NodeCosts table.
func (GreedyDagExtractor) Extract(g *egraph.Graph, _ []egraph.ClassID) *Result {
	parents := g.Parents()
	costSets := make(map[egraph.ClassID]*CostSet, g.ClassCount())
	result := NewResult()

	queue := newUniqueQueue()
	queue.extend(g.Leaves())

	for !queue.empty() {
		id, _ := queue.pop()
		node, err := g.Node(id)
		if err != nil {
			continue
		}

		// Not ready until every child class has an incumbent.
		ready := true
		for _, child := range node.Children {
			if _, ok := costSets[child]; !ok {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}

		best := math.Inf(1)
		if incumbent, ok := costSets[id.Class]; ok {
			best = incumbent.Total
		}
		cs := calculateCostSet(id, node, costSets, best, result.NodeCosts)
		recordCost(result.NodeCosts, id, cs.Total)
		if cs.Total < best {
			costSets[id.Class] = cs
			queue.extend(parents[id.Class])
		}
	}

	for _, class := range g.Classes() {
		if cs, ok := costSets[class.ID]; ok {
			result.Choose(cs.Choice)
		}
	}
	return result
}

// calculateCostSet evaluates one candidate node against the current
// per-class incumbents. It returns an infinite cost set when the
// candidate depends on its own class (directly or through a child's
// cost set) or provably cannot beat best; totals known at rejection
// time still land in observed so the exclusion pass can use them.
func calculateCostSet(id egraph.NodeID, node *egraph.Node, costSets map[egraph.ClassID]*CostSet, best float64, observed map[egraph.NodeID]float64) *CostSet {
	if node.IsLeaf() {
		return &CostSet{
			Costs:  map[egraph.ClassID]float64{id.Class: node.Cost},
			Total:  node.Cost,
			Choice: id,
		}
	}

	childClasses := distinctClasses(node.Children)
	for _, c := range childClasses {
		if c == id.Class {
			return infiniteCostSet(id)
		}
	}

	// Cheap bound before any map work: with a single child class the
	// candidate's total is exactly node cost plus the child's total.
	if len(childClasses) == 1 {
		if total := node.Cost + costSets[childClasses[0]].Total; total >= best {
			recordCost(observed, id, total)
			return infiniteCostSet(id)
		}
	}

	// Merge child contributions starting from the biggest map so the
	// dominant allocation is a single clone.
	biggest := 0
	for i, c := range childClasses {
		if len(costSets[c].Costs) > len(costSets[childClasses[biggest]].Costs) {
			biggest = i
		}
	}
	merged := make(map[egraph.ClassID]float64, len(costSets[childClasses[biggest]].Costs)+1)
	for class, cost := range costSets[childClasses[biggest]].Costs {
		merged[class] = cost
	}
	for i, c := range childClasses {
		if i == biggest {
			continue
		}
		for class, cost := range costSets[c].Costs {
			merged[class] = cost
		}
	}

	// A child's sub-DAG already containing this class means choosing
	// the candidate would close a cycle.
	if _, ok := merged[id.Class]; ok {
		return infiniteCostSet(id)
	}
	merged[id.Class] = node.Cost

	var total float64
	for _, cost := range merged {
		total += cost
	}
	return &CostSet{Costs: merged, Total: total, Choice: id}
}

func infiniteCostSet(id egraph.NodeID) *CostSet {
	return &CostSet{Total: math.Inf(1), Choice: id}
}

// recordCost keeps the best finite total observed for a candidate.
func recordCost(observed map[egraph.NodeID]float64, id egraph.NodeID, total float64) {
	if math.IsInf(total, 1) {
		return
	}
	if prev, ok := observed[id]; !ok || total < prev {
		observed[id] = total
	}
}

// distinctClasses returns the distinct entries of children in a
// deterministic order.
func distinctClasses(children []egraph.ClassID) []egraph.ClassID {
	out := append([]egraph.ClassID(nil), children...)
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	dedup := out[:0]
	for i, c := range out {
		if i == 0 || out[i-1] != c {
			dedup = append(dedup, c)
		}
	}
	return dedup
}
