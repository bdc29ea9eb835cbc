// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package prepass

import (
	"sort"
	"strconv"
	"strings"

	"github.com/AleutianAI/esolve/services/extract/egraph"
)

// RemoveRedundant drops, within each class, every node whose child
// signature duplicates an earlier member's. Two nodes with the same
// multiset of child classes are interchangeable for every cost and
// reachability purpose the extractor has, so only the first (in
// insertion order) is kept. Returns the number of nodes removed.
//
// The signature deliberately ignores the operator: nodes that agree on
// edges are twins regardless of what they compute, since extraction
// only reasons about cost and reachability.
func RemoveRedundant(d *egraph.Description) int {
	seen := make(map[egraph.ClassID]map[string]bool)
	removed := 0
	for _, id := range d.NodeIDs() {
		node, err := d.Node(id)
		if err != nil {
			continue
		}
		sig := childSignature(node.Children)
		group := seen[id.Class]
		if group == nil {
			group = make(map[string]bool)
			seen[id.Class] = group
		}
		if group[sig] {
			d.Remove(id)
			removed++
			continue
		}
		group[sig] = true
	}
	return removed
}

// childSignature renders the multiset of child classes as a sorted
// list of (child, multiplicity) pairs.
func childSignature(children []egraph.ClassID) string {
	if len(children) == 0 {
		return ""
	}
	counts := make(map[egraph.ClassID]int, len(children))
	for _, c := range children {
		counts[c]++
	}
	distinct := make([]egraph.ClassID, 0, len(counts))
	for c := range counts {
		distinct = append(distinct, c)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i].Compare(distinct[j]) < 0 })

	var b strings.Builder
	for _, c := range distinct {
		b.WriteString(c.String())
		b.WriteByte('x')
		b.WriteString(strconv.Itoa(counts[c]))
		b.WriteByte(';')
	}
	return b.String()
}
