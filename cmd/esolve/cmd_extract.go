// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/esolve/services/extract/directive"
	"github.com/AleutianAI/esolve/services/extract/egraph"
	"github.com/AleutianAI/esolve/services/extract/extractor"
	"github.com/AleutianAI/esolve/services/extract/prepass"
)

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]
	log := logger.With("input", path)

	d, err := egraph.LoadDescription(path)
	if err != nil {
		log.Error("load failed", "error", err)
		return err
	}
	log.Info("description loaded", "nodes", d.NodeCount(), "roots", len(d.Roots))

	if removed := prepass.RemoveRedundant(d); removed > 0 {
		log.Info("redundant nodes removed", "removed", removed, "remaining", d.NodeCount())
	}

	g, err := egraph.NewGraph(d)
	if err != nil {
		log.Error("graph build failed", "error", err)
		return err
	}

	result := extractor.GreedyDagExtractor{}.Extract(g, g.Roots())
	if err := extractor.Check(g, result); err != nil {
		log.Error("extraction check failed", "error", err)
		return err
	}

	tree, err := extractor.TreeCost(g, result, g.Roots())
	if err != nil {
		return err
	}
	dag, err := extractor.DagCost(g, result, g.Roots())
	if err != nil {
		return err
	}
	log.Info("extraction finished",
		"chosen_classes", result.Len(),
		"tree_cost", tree,
		"dag_cost", dag,
	)

	if outputPath != "" {
		chosen, err := result.Description(g)
		if err != nil {
			return err
		}
		if err := egraph.SaveDescription(chosen, outputPath); err != nil {
			return err
		}
		log.Info("chosen subgraph written", "output", outputPath)
	}

	if hintsPath != "" {
		if err := writeDirectives(hintsPath, g, result, cfg.Bound); err != nil {
			return err
		}
		log.Info("directives written", "output", hintsPath)
	}
	return nil
}

// writeDirectives emits the warm-start hints followed by the
// bound-based exclusion pins for result into one file.
func writeDirectives(path string, g *egraph.Graph, result *extractor.Result, bound float64) error {
	hints, err := directive.WarmStart(g, result)
	if err != nil {
		return err
	}
	pins, err := directive.Exclusions(result, bound)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create directive file: %w", err)
	}
	if err := directive.Write(f, append(hints, pins...)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
