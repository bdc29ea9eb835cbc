// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package egraph

import (
	"fmt"
	"strconv"
	"strings"
)

// pseudoRootPrefix is the textual form of synthetic class identifiers.
// It matches the operator naming the partitioner uses for the nodes it
// synthesizes, so serialized sub-descriptions stay self-describing.
const pseudoRootPrefix = "pseudo_root"

// ClassID identifies an e-class.
//
// A ClassID is either a real class (an index into the description's
// class space) or a synthetic pseudo-root introduced to give a graph a
// single entry point. Synthetic ids live in their own tagged namespace
// rather than borrowing a reserved integer, so they can never collide
// with a genuine class index no matter how large the input grows.
//
// The zero value is the real class 0.
type ClassID struct {
	// index is the class index for real classes. For synthetic classes
	// it is the pseudo-root slot: 0 for the whole-graph unifier,
	// k+1 for the pseudo-root of partition k.
	index     uint32
	synthetic bool
}

// Class returns the ClassID for the real class with the given index.
func Class(index uint32) ClassID {
	return ClassID{index: index}
}

// PseudoRoot returns the synthetic ClassID used to unify multiple
// independent roots of a whole graph into one entry point.
func PseudoRoot() ClassID {
	return ClassID{synthetic: true}
}

// PartitionRoot returns the synthetic ClassID reserved for the
// pseudo-root of the partition with the given index. Each partition
// index maps to a distinct ClassID, and none of them equals the
// whole-graph PseudoRoot.
func PartitionRoot(partition int) ClassID {
	return ClassID{index: uint32(partition) + 1, synthetic: true}
}

// IsSynthetic reports whether the class is a synthesized pseudo-root
// rather than a class present in the original description.
func (c ClassID) IsSynthetic() bool {
	return c.synthetic
}

// Index returns the class index for real classes. For synthetic
// classes the value is the internal pseudo-root slot and is only
// meaningful for ordering.
func (c ClassID) Index() uint32 {
	return c.index
}

// String returns the textual form used in serialized descriptions:
// the decimal index for real classes, "pseudo_root" for the
// whole-graph unifier, and "pseudo_root_<k>" for partition k.
func (c ClassID) String() string {
	if !c.synthetic {
		return strconv.FormatUint(uint64(c.index), 10)
	}
	if c.index == 0 {
		return pseudoRootPrefix
	}
	return fmt.Sprintf("%s_%d", pseudoRootPrefix, c.index-1)
}

// Compare orders ClassIDs: real classes by index, then synthetic
// classes by slot. It returns -1, 0, or 1.
func (c ClassID) Compare(o ClassID) int {
	if c.synthetic != o.synthetic {
		if o.synthetic {
			return -1
		}
		return 1
	}
	switch {
	case c.index < o.index:
		return -1
	case c.index > o.index:
		return 1
	default:
		return 0
	}
}

// ParseClassID parses the textual form produced by String.
func ParseClassID(s string) (ClassID, error) {
	if s == pseudoRootPrefix {
		return PseudoRoot(), nil
	}
	if rest, ok := strings.CutPrefix(s, pseudoRootPrefix+"_"); ok {
		k, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			return ClassID{}, fmt.Errorf("class id %q: %w", s, ErrMalformed)
		}
		return PartitionRoot(int(k)), nil
	}
	index, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return ClassID{}, fmt.Errorf("class id %q: %w", s, ErrMalformed)
	}
	return Class(uint32(index)), nil
}

// MarshalJSON encodes real classes as JSON numbers (the format the
// external solver front ends consume) and synthetic classes as quoted
// strings.
func (c ClassID) MarshalJSON() ([]byte, error) {
	if !c.synthetic {
		return strconv.AppendUint(nil, uint64(c.index), 10), nil
	}
	return []byte(strconv.Quote(c.String())), nil
}

// UnmarshalJSON accepts either encoding produced by MarshalJSON.
func (c *ClassID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty class id: %w", ErrMalformed)
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("class id %s: %w", data, ErrMalformed)
		}
		id, err := ParseClassID(s)
		if err != nil {
			return err
		}
		*c = id
		return nil
	}
	index, err := strconv.ParseUint(string(data), 10, 32)
	if err != nil {
		return fmt.Errorf("class id %s: %w", data, ErrMalformed)
	}
	*c = Class(uint32(index))
	return nil
}

// NodeID identifies a node as (owning class, intra-class index).
//
// The class component always equals the node's declared owning class;
// Description.AddNode enforces the invariant at insertion time.
type NodeID struct {
	Class ClassID
	Index uint32
}

// String returns the "class.index" form used as the node key in
// serialized descriptions.
func (n NodeID) String() string {
	return n.Class.String() + "." + strconv.FormatUint(uint64(n.Index), 10)
}

// Compare orders NodeIDs by class, then intra-class index.
func (n NodeID) Compare(o NodeID) int {
	if c := n.Class.Compare(o.Class); c != 0 {
		return c
	}
	switch {
	case n.Index < o.Index:
		return -1
	case n.Index > o.Index:
		return 1
	default:
		return 0
	}
}

// ParseNodeID parses the "class.index" form produced by String.
func ParseNodeID(s string) (NodeID, error) {
	dot := strings.LastIndexByte(s, '.')
	if dot <= 0 || dot == len(s)-1 {
		return NodeID{}, fmt.Errorf("node id %q: %w", s, ErrMalformed)
	}
	class, err := ParseClassID(s[:dot])
	if err != nil {
		return NodeID{}, fmt.Errorf("node id %q: %w", s, ErrMalformed)
	}
	index, err := strconv.ParseUint(s[dot+1:], 10, 32)
	if err != nil {
		return NodeID{}, fmt.Errorf("node id %q: %w", s, ErrMalformed)
	}
	return NodeID{Class: class, Index: uint32(index)}, nil
}
