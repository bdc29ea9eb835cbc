// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package directive implements the line-oriented pin/hint protocol
// collaborator solvers consume, plus generation of warm-start hints
// and bound-based exclusions from a greedy extraction result.
package directive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/AleutianAI/esolve/services/extract/egraph"
	"github.com/AleutianAI/esolve/services/extract/extractor"
)

// =============================================================================
// Line Protocol
// =============================================================================
//
//	node <class> <index> <0|1>   fix the node's selection variable
//	hint <class> <index> <0|1>   warm-start hint, solver may ignore
//
// Blank lines and lines starting with '#' are skipped.

// Kind discriminates fixes from hints.
type Kind string

const (
	// KindFix pins a node's selection variable to Value.
	KindFix Kind = "node"

	// KindHint suggests a starting value without constraining the
	// solver.
	KindHint Kind = "hint"
)

// Directive is one parsed line of the protocol.
type Directive struct {
	Kind  Kind
	Node  egraph.NodeID
	Value bool
}

var (
	// ErrMalformedDirective indicates a line that does not follow the
	// protocol.
	ErrMalformedDirective = errors.New("malformed directive")

	// ErrInvalidBound indicates an exclusion bound below 1.
	ErrInvalidBound = errors.New("exclusion bound must be >= 1")
)

// Parse reads directives from r, one per line. Errors carry the
// 1-based line number of the offending line.
func Parse(r io.Reader) ([]Directive, error) {
	var out []Directive
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: expected 4 fields, got %d: %w", lineNo, len(fields), ErrMalformedDirective)
		}
		var kind Kind
		switch fields[0] {
		case string(KindFix):
			kind = KindFix
		case string(KindHint):
			kind = KindHint
		default:
			return nil, fmt.Errorf("line %d: unknown directive %q: %w", lineNo, fields[0], ErrMalformedDirective)
		}
		class, err := egraph.ParseClassID(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		index, err := parseIndex(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		var value bool
		switch fields[3] {
		case "0":
			value = false
		case "1":
			value = true
		default:
			return nil, fmt.Errorf("line %d: value %q is not 0 or 1: %w", lineNo, fields[3], ErrMalformedDirective)
		}
		out = append(out, Directive{
			Kind:  kind,
			Node:  egraph.NodeID{Class: class, Index: index},
			Value: value,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading directives: %w", err)
	}
	return out, nil
}

func parseIndex(s string) (uint32, error) {
	index, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("index %q: %w", s, ErrMalformedDirective)
	}
	return uint32(index), nil
}

// Write emits directives to w in the protocol's line format.
func Write(w io.Writer, directives []Directive) error {
	for _, d := range directives {
		value := 0
		if d.Value {
			value = 1
		}
		if _, err := fmt.Fprintf(w, "%s %s %d %d\n", d.Kind, d.Node.Class, d.Node.Index, value); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Generation
// =============================================================================

// WarmStart produces value-1 hints for every node reachable from g's
// roots under the result's choices, in deterministic traversal order.
// A collaborator solver can seed its search from the greedy solution.
func WarmStart(g *egraph.Graph, r *extractor.Result) ([]Directive, error) {
	var out []Directive
	visited := make(map[egraph.ClassID]bool)
	stack := append([]egraph.ClassID(nil), g.Roots()...)
	for len(stack) > 0 {
		class := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[class] {
			continue
		}
		visited[class] = true
		id, ok := r.Choice(class)
		if !ok {
			return nil, fmt.Errorf("class %s: %w", class, extractor.ErrMissingChoice)
		}
		node, err := g.Node(id)
		if err != nil {
			return nil, err
		}
		out = append(out, Directive{Kind: KindHint, Node: id, Value: true})
		for i := len(node.Children) - 1; i >= 0; i-- {
			if !visited[node.Children[i]] {
				stack = append(stack, node.Children[i])
			}
		}
	}
	return out, nil
}

// Exclusions turns the extractor's per-node cost table into value-0
// fixes: within each class, any candidate whose best observed total
// exceeded bound times the class minimum is pinned out. The output is
// sorted by node id so the emitted file is stable.
func Exclusions(r *extractor.Result, bound float64) ([]Directive, error) {
	if bound < 1 {
		return nil, fmt.Errorf("bound %v: %w", bound, ErrInvalidBound)
	}

	byClass := make(map[egraph.ClassID][]egraph.NodeID)
	for id := range r.NodeCosts {
		byClass[id.Class] = append(byClass[id.Class], id)
	}

	var out []Directive
	for _, ids := range byClass {
		min := r.NodeCosts[ids[0]]
		for _, id := range ids[1:] {
			if c := r.NodeCosts[id]; c < min {
				min = c
			}
		}
		threshold := min * bound
		for _, id := range ids {
			if r.NodeCosts[id] > threshold {
				out = append(out, Directive{Kind: KindFix, Node: id, Value: false})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node.Compare(out[j].Node) < 0 })
	return out, nil
}
