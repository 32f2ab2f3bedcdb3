// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for the analyzer CLI.
//
// Built on log/slog: stderr text output by default (Unix CLI
// convention), with optional JSON file logging for long analysis runs.
//
// Usage:
//
//	logger, err := logging.New(logging.Config{Service: "reach"})
//	if err != nil { ... }
//	defer logger.Close()
//	logger.Info("analysis started", "domain", path)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level emitted. Defaults to slog.LevelInfo.
	Level slog.Level

	// Service names the component; it is attached to every record and
	// used in log file names.
	Service string

	// LogDir, when non-empty, enables JSON file logging under
	// {LogDir}/{Service}_{date}.log. The directory is created if needed.
	LogDir string

	// Stderr overrides the default stderr destination, for tests.
	Stderr io.Writer
}

// Logger wraps slog.Logger with an owned log file.
type Logger struct {
	*slog.Logger
	file *os.File
}

// New builds a logger from the config.
func New(cfg Config) (*Logger, error) {
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler = slog.NewTextHandler(stderr, opts)
	var file *os.File
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		name := fmt.Sprintf("%s_%s.log", cfg.Service, time.Now().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(cfg.LogDir, name),
			os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		handler = tee{handler, slog.NewJSONHandler(f, opts)}
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return &Logger{Logger: logger, file: file}, nil
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
