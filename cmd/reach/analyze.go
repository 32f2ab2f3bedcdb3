// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/AleutianPlan/services/reach"
	"github.com/AleutianAI/AleutianPlan/services/reach/config"
	"github.com/AleutianAI/AleutianPlan/services/reach/domainfile"
)

var (
	flagDomain      string
	flagConfig      string
	flagTrace       bool
	flagAtIteration int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the reachability fixpoint over a domain file",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&flagDomain, "domain", "", "Path to the YAML domain file (required)")
	analyzeCmd.Flags().StringVar(&flagConfig, "config", "", "Path to an engine config file")
	analyzeCmd.Flags().BoolVar(&flagTrace, "trace", false, "Export trace spans to stdout")
	analyzeCmd.Flags().IntVar(&flagAtIteration, "at-iteration", -1, "Also print each object's group size as of this iteration")
	_ = analyzeCmd.MarkFlagRequired("domain")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if flagTrace {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}
		provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(provider)
		defer func() { _ = provider.Shutdown(ctx) }()
	}

	cfg := config.Default()
	if flagConfig != "" {
		var err error
		if cfg, err = config.Load(flagConfig); err != nil {
			return err
		}
	}

	problem, err := domainfile.Load(flagDomain)
	if err != nil {
		return err
	}
	slog.Info("domain loaded",
		"nodes", len(problem.Graph.Nodes()),
		"objects", len(problem.Objects),
		"initial_facts", len(problem.Initial),
	)

	analyzer := reach.NewAnalyzer(problem.Graph, problem.Bindings, cfg, slog.Default())
	defer func() { _ = analyzer.Close() }()

	if err := analyzer.Analyze(ctx, problem.Initial, problem.Objects, problem.Grounded); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Reachable facts:")
	for _, fact := range analyzer.ReachableFacts() {
		fmt.Fprintf(out, "  %s\n", fact.Format(problem.Bindings))
	}

	fmt.Fprintln(out, "Node support and closure:")
	for _, node := range problem.Graph.Nodes() {
		fmt.Fprintf(out, "  %s: %d supporting tuple(s)", node.Name(), len(analyzer.SupportedFacts(node)))
		if reachable := analyzer.ReachableFrom(node); len(reachable) > 0 {
			fmt.Fprint(out, ", reaches")
			for _, r := range reachable {
				fmt.Fprintf(out, " %s", r.Name())
			}
		}
		fmt.Fprintln(out)
	}

	manager := analyzer.Manager()
	fmt.Fprintf(out, "Equivalence classes (%d):\n", manager.NumGroups())
	for _, group := range manager.Groups() {
		if !group.IsRoot() || len(group.EquivalentObjects()) == 0 {
			continue
		}
		fmt.Fprintf(out, "  %s\n", group)
	}

	if flagAtIteration >= 0 {
		fmt.Fprintf(out, "Group sizes as of iteration %d:\n", flagAtIteration)
		for _, obj := range problem.Objects {
			size, err := manager.SizeAt(obj, flagAtIteration)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s: %d\n", obj.Name(), size)
		}
	}
	return nil
}
