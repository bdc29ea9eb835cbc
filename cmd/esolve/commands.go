// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/esolve/pkg/logging"
	"github.com/AleutianAI/esolve/services/extract/config"
)

// --- Global Command Variables ---
var (
	configPath string
	bound      float64
	factor     float64
	outDir     string
	outputPath string
	hintsPath  string
	logJSON    bool
	logLevel   string

	cfg    config.Config
	logger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "esolve",
		Short: "Minimum-cost acyclic extraction over serialized e-graphs",
		Long: `esolve loads a serialized e-graph description, removes redundant
nodes, and extracts a minimum-cost acyclic subgraph with a
sharing-aware greedy extractor. It can also partition a graph into
independently rooted pieces and emit warm-start/exclusion directives
for external solvers.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			switch {
			case err == nil:
				cfg = loaded
			case errors.Is(err, os.ErrNotExist):
				// The config file is optional; fall back to defaults.
				cfg = config.Default()
			default:
				return err
			}

			// Flags override the file.
			if cmd.Flags().Changed("bound") {
				cfg.Bound = bound
			}
			if cmd.Flags().Changed("factor") {
				cfg.Factor = factor
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("log-json") {
				cfg.LogJSON = logJSON
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger = logging.New(logging.Config{
				Level:   logging.ParseLevel(cfg.LogLevel),
				Service: "esolve",
				JSON:    cfg.LogJSON,
			}).With("run_id", uuid.NewString())
			return nil
		},
	}

	extractCmd = &cobra.Command{
		Use:   "extract <egraph.json>",
		Short: "Extract a minimum-cost acyclic subgraph from an e-graph",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}

	partitionCmd = &cobra.Command{
		Use:   "partition <egraph.json>",
		Short: "Split an e-graph into independently rooted sub-descriptions",
		Args:  cobra.ExactArgs(1),
		RunE:  runPartition,
	}

	warmstartCmd = &cobra.Command{
		Use:   "warmstart <egraph.json>",
		Short: "Emit warm-start hints and exclusion pins for an external solver",
		Args:  cobra.ExactArgs(1),
		RunE:  runWarmstart,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "esolve.yaml", "path to the yaml config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON lines")

	extractCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the chosen subgraph description to this file")
	extractCmd.Flags().StringVar(&hintsPath, "hints", "", "write warm-start/exclusion directives to this file")
	extractCmd.Flags().Float64Var(&bound, "bound", config.Default().Bound, "exclusion bound (candidates above bound*min are pinned out)")

	partitionCmd.Flags().Float64Var(&factor, "factor", config.Default().Factor, "partition share; round(1/factor) buckets")
	partitionCmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for subgraph_<i>.json files")

	warmstartCmd.Flags().Float64Var(&bound, "bound", config.Default().Bound, "exclusion bound (candidates above bound*min are pinned out)")
	warmstartCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write directives to this file instead of stdout")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(partitionCmd)
	rootCmd.AddCommand(warmstartCmd)
}
