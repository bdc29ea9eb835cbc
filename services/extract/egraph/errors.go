// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package egraph models serialized e-graphs: e-classes holding
// candidate nodes, node costs, root classes, and an operator name
// table. A Description is the mutable serialized form; a Graph is the
// validated, frozen model the extractors and pre-passes consume.
package egraph

import "errors"

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrMalformed indicates a serialized description that cannot be
	// decoded: bad JSON shape, unparseable ids, or fields out of range.
	ErrMalformed = errors.New("malformed description")

	// ErrDuplicateNode indicates an attempt to add a node under an id
	// that is already present.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrNodeNotFound indicates a lookup for a node id with no entry.
	ErrNodeNotFound = errors.New("node not found")

	// ErrClassNotFound indicates a lookup for a class with no member
	// nodes.
	ErrClassNotFound = errors.New("class not found")

	// ErrInvalidCost indicates a node cost that is negative, NaN, or
	// infinite.
	ErrInvalidCost = errors.New("invalid cost")

	// ErrUnknownOp indicates a node whose operator index is outside the
	// description's operator table.
	ErrUnknownOp = errors.New("unknown operator")

	// ErrOwnerMismatch indicates a node whose declared owning class
	// disagrees with the class component of its id.
	ErrOwnerMismatch = errors.New("node id does not match owning class")

	// ErrEmptyClass indicates a class referenced as a child or root that
	// has no member nodes.
	ErrEmptyClass = errors.New("referenced class has no nodes")
)
