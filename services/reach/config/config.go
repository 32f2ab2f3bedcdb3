// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config provides the reachability engine's configuration:
// recognized keys, defaults, YAML loading, and validation. There are no
// environment variables and no persisted state.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MaxConfigFileSize is the maximum allowed config file size (1MB).
// Prevents memory issues from oversized files.
const MaxConfigFileSize = 1024 * 1024

// DefaultInitialPoolSlabSize is the default number of reachable-fact
// slots per slab.
const DefaultInitialPoolSlabSize = 100000

// ErrConfigTooLarge is returned when the config file exceeds
// MaxConfigFileSize.
var ErrConfigTooLarge = errors.New("config file too large")

// Config holds the engine's recognized configuration keys.
type Config struct {
	// InitialPoolSlabSize is the number of reachable-fact slots allocated
	// per slab.
	InitialPoolSlabSize int `yaml:"initial-pool-slab-size" validate:"gte=0"`

	// MaxIterations caps the outer fixpoint iterations. Zero means
	// unbounded.
	MaxIterations int `yaml:"max-iterations" validate:"gte=0"`
}

// Default returns the engine defaults: 100000-slot slabs, unbounded
// iterations.
func Default() Config {
	return Config{InitialPoolSlabSize: DefaultInitialPoolSlabSize}
}

// Load reads and validates a YAML config file. Unset keys keep their
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	info, err := os.Stat(path)
	if err != nil {
		return cfg, fmt.Errorf("stat config: %w", err)
	}
	if info.Size() > MaxConfigFileSize {
		return cfg, fmt.Errorf("%w: %s is %d bytes", ErrConfigTooLarge, path, info.Size())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the config's bounds.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}
