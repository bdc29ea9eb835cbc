// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package prepass holds the description-level passes that run before
// extraction: redundant-node removal and partitioning into
// independently solvable sub-descriptions.
package prepass

import "errors"

var (
	// ErrInvalidFactor indicates a partition factor outside (0, 1].
	ErrInvalidFactor = errors.New("partition factor must be in (0, 1]")

	// ErrTooFewClasses indicates a graph with fewer distinct classes
	// than requested partitions.
	ErrTooFewClasses = errors.New("fewer classes than requested partitions")

	// ErrCoverageMismatch indicates the partition buckets do not
	// exactly cover the input class set.
	ErrCoverageMismatch = errors.New("partition buckets do not cover the class set")

	// ErrNoRoot indicates a description in which no class is free of
	// parents, leaving the traversal with no entry point.
	ErrNoRoot = errors.New("no parentless class to start from")
)
