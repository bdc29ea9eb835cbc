// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extractor

import "github.com/AleutianAI/esolve/services/extract/egraph"

// uniqueQueue is a FIFO worklist that holds each node id at most once.
// Insertion order is preserved, which keeps extraction deterministic
// for a given description.
type uniqueQueue struct {
	set   map[egraph.NodeID]struct{}
	items []egraph.NodeID
}

func newUniqueQueue() *uniqueQueue {
	return &uniqueQueue{set: make(map[egraph.NodeID]struct{})}
}

// insert enqueues id unless it is already pending.
func (q *uniqueQueue) insert(id egraph.NodeID) {
	if _, ok := q.set[id]; ok {
		return
	}
	q.set[id] = struct{}{}
	q.items = append(q.items, id)
}

// extend enqueues each id in order, skipping ones already pending.
func (q *uniqueQueue) extend(ids []egraph.NodeID) {
	for _, id := range ids {
		q.insert(id)
	}
}

// pop dequeues the oldest pending id. The second return is false when
// the queue is empty.
func (q *uniqueQueue) pop() (egraph.NodeID, bool) {
	if len(q.items) == 0 {
		return egraph.NodeID{}, false
	}
	id := q.items[0]
	q.items = q.items[1:]
	delete(q.set, id)
	return id, true
}

func (q *uniqueQueue) empty() bool {
	return len(q.items) == 0
}
