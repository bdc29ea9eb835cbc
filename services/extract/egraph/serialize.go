// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package egraph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Wire Format
// =============================================================================
//
// {
//   "nodes": {
//     "0.0": {"op": 1, "children": [2, 3], "eclass": 0, "cost": 3}
//   },
//   "root_eclasses": [0],
//   "op": ["x", "mul"]
// }
//
// Node keys are "class.index". "cost" defaults to 1 when absent.
// Node key order is meaningful: it fixes the insertion order every
// downstream pass iterates in, so decoding goes through a token
// stream instead of an unordered map.

type wireNode struct {
	Op       uint32    `json:"op"`
	Children []ClassID `json:"children"`
	Class    *ClassID  `json:"eclass"`
	Cost     *float64  `json:"cost"`
}

// DecodeDescription reads a serialized description from r, preserving
// node order, and validates it: node keys must parse, every node's
// eclass must match its key, operator indices must fall inside the op
// table, costs must be finite and non-negative, and every child or
// root class must have at least one member node. All failures wrap
// ErrMalformed or a more specific sentinel.
func DecodeDescription(r io.Reader) (*Description, error) {
	dec := json.NewDecoder(r)
	d := NewDescription()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case "nodes":
			if err := decodeNodes(dec, d); err != nil {
				return nil, err
			}
		case "root_eclasses":
			if err := dec.Decode(&d.Roots); err != nil {
				return nil, fmt.Errorf("root_eclasses: %w: %v", ErrMalformed, err)
			}
		case "op":
			if err := dec.Decode(&d.Ops); err != nil {
				return nil, fmt.Errorf("op table: %w: %v", ErrMalformed, err)
			}
		default:
			// Unknown top-level fields are skipped for forward
			// compatibility with the producing serializers.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("field %q: %w: %v", key, ErrMalformed, err)
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if err := validateDescription(d); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadDescription decodes the description stored in the file at path.
func LoadDescription(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open description: %w", err)
	}
	defer f.Close()
	d, err := DecodeDescription(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func decodeNodes(dec *json.Decoder, d *Description) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return err
		}
		id, err := ParseNodeID(key)
		if err != nil {
			return err
		}
		var wn wireNode
		if err := dec.Decode(&wn); err != nil {
			return fmt.Errorf("node %s: %w: %v", id, ErrMalformed, err)
		}
		if wn.Class == nil {
			return fmt.Errorf("node %s: missing eclass: %w", id, ErrMalformed)
		}
		cost := 1.0
		if wn.Cost != nil {
			cost = *wn.Cost
		}
		node := &Node{Op: wn.Op, Cost: cost, Class: *wn.Class, Children: wn.Children}
		if err := d.AddNode(id, node); err != nil {
			return err
		}
	}
	return expectDelim(dec, '}')
}

// validateDescription performs the post-parse checks that need the
// whole document: operator range and class population.
func validateDescription(d *Description) error {
	members := make(map[ClassID]bool, len(d.nodes))
	for _, id := range d.order {
		members[id.Class] = true
	}
	for _, id := range d.order {
		n := d.nodes[id]
		if int(n.Op) >= len(d.Ops) {
			return fmt.Errorf("node %s op %d (table size %d): %w", id, n.Op, len(d.Ops), ErrUnknownOp)
		}
		for _, child := range n.Children {
			if !members[child] {
				return fmt.Errorf("node %s child %s: %w", id, child, ErrEmptyClass)
			}
		}
	}
	for _, root := range d.Roots {
		if !members[root] {
			return fmt.Errorf("root %s: %w", root, ErrEmptyClass)
		}
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v: %w", want, tok, ErrMalformed)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v: %w", tok, ErrMalformed)
	}
	return s, nil
}

// =============================================================================
// Encoding
// =============================================================================

type wireNodeOut struct {
	Op       uint32    `json:"op"`
	Children []ClassID `json:"children"`
	Class    ClassID   `json:"eclass"`
	Cost     float64   `json:"cost"`
}

// Encode writes the description to w in the wire format, emitting
// nodes in insertion order so a decode/encode round trip is stable.
func (d *Description) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, `{"nodes":{`); err != nil {
		return err
	}
	first := true
	for _, id := range d.NodeIDs() {
		n := d.nodes[id]
		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		first = false
		key, err := json.Marshal(id.String())
		if err != nil {
			return err
		}
		children := n.Children
		if children == nil {
			children = []ClassID{}
		}
		body, err := json.Marshal(wireNodeOut{Op: n.Op, Children: children, Class: n.Class, Cost: n.Cost})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s:%s", key, body); err != nil {
			return err
		}
	}
	roots := d.Roots
	if roots == nil {
		roots = []ClassID{}
	}
	rootsJSON, err := json.Marshal(roots)
	if err != nil {
		return err
	}
	ops := d.Ops
	if ops == nil {
		ops = []string{}
	}
	opsJSON, err := json.Marshal(ops)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, `},"root_eclasses":%s,"op":%s}`, rootsJSON, opsJSON)
	return err
}

// SaveDescription encodes d into the file at path.
func SaveDescription(d *Description, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create description: %w", err)
	}
	if err := d.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
