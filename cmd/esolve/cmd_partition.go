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
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/esolve/services/extract/egraph"
	"github.com/AleutianAI/esolve/services/extract/prepass"
)

func runPartition(cmd *cobra.Command, args []string) error {
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

	subs, err := prepass.Partition(d, cfg.Factor)
	if err != nil {
		log.Error("partition failed", "error", err, "factor", cfg.Factor)
		return err
	}

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for idx, sub := range subs {
		out := filepath.Join(outDir, fmt.Sprintf("subgraph_%d.json", idx))
		if err := egraph.SaveDescription(sub, out); err != nil {
			return err
		}
		log.Info("partition written",
			"index", idx,
			"nodes", sub.NodeCount(),
			"output", out,
		)
	}
	log.Info("partitioning finished", "partitions", len(subs), "factor", cfg.Factor)
	return nil
}
