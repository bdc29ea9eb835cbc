// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/esolve/services/extract/directive"
	"github.com/AleutianAI/esolve/services/extract/egraph"
	"github.com/AleutianAI/esolve/services/extract/extractor"
	"github.com/AleutianAI/esolve/services/extract/prepass"
)

func runWarmstart(cmd *cobra.Command, args []string) error {
	path := args[0]
	log := logger.With("input", path)

	d, err := egraph.LoadDescription(path)
	if err != nil {
		log.Error("load failed", "error", err)
		return err
	}
	prepass.RemoveRedundant(d)

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

	hints, err := directive.WarmStart(g, result)
	if err != nil {
		return err
	}
	pins, err := directive.Exclusions(result, cfg.Bound)
	if err != nil {
		return err
	}
	log.Info("directives generated", "hints", len(hints), "exclusions", len(pins))

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return directive.Write(out, append(hints, pins...))
}
