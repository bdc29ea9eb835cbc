// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates the esolve run configuration.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables shared by the CLI subcommands. Flags
// override values loaded from the yaml file.
type Config struct {
	// Bound scales the exclusion threshold: candidates costing more
	// than Bound times their class minimum are pinned out.
	Bound float64 `yaml:"bound" validate:"gte=1"`

	// Factor is the partition share; round(1/factor) buckets.
	Factor float64 `yaml:"factor" validate:"gt=0,lte=1"`

	// LogLevel selects the logging threshold.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `yaml:"log_json"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Bound:    1.25,
		Factor:   1.0,
		LogLevel: "info",
	}
}

// Load reads the yaml file at path over the defaults and validates
// the merged result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the field constraints.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
