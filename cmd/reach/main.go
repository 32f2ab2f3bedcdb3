// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command reach runs relaxed reachability analysis over a compiled
// planning domain.
//
// Usage:
//
//	go run ./cmd/reach analyze --domain domain.yaml
//	go run ./cmd/reach analyze --domain domain.yaml --config engine.yaml
//
// With tracing to stdout:
//
//	go run ./cmd/reach analyze --domain domain.yaml --trace
//
// Historical equivalence view (group sizes as of iteration 1):
//
//	go run ./cmd/reach analyze --domain domain.yaml --at-iteration 1
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPlan/pkg/logging"
)

var logger *logging.Logger

func main() {
	defer func() {
		if logger != nil {
			_ = logger.Close()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reach",
	Short: "Relaxed reachability analysis over domain transition graphs",
	Long: "reach computes the set of lifted facts a planning domain can ever make true,\n" +
		"the DTG nodes whose facts are jointly supported, and the equivalence classes\n" +
		"of interchangeable objects.",
	SilenceUsage: true,
}

var flagLogDir string

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "",
		"Directory for JSON log files (stderr only when unset)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.Config{Service: "reach", LogDir: flagLogDir})
		if err != nil {
			return err
		}
		slog.SetDefault(logger.Logger)
		return nil
	}
	rootCmd.AddCommand(analyzeCmd)
}
