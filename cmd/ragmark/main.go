//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package main provides the ragmark CLI: stage-gated accuracy evaluation of
// RAG pipelines against their configured targets.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ragmark "trpc.group/trpc-go/trpc-ragmark-go"
	"trpc.group/trpc-go/trpc-ragmark-go/config"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragmark",
		Short: "Stage-gated accuracy evaluation for RAG pipelines",
		Long: `ragmark evaluates configured RAG pipelines against their accuracy
targets. Each pipeline climbs a ladder of stages with growing sample
sizes; a failed gate blocks that pipeline without stopping the others.

A failed gate is an expected evaluation outcome reported in the summary,
not a tool failure: the exit code is non-zero only for internal errors.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(buildRunCmd())
	cmd.AddCommand(buildStatusCmd())
	return cmd
}

// loadConfig reads the configuration and applies CLI overrides shared by
// the run and status commands.
func loadConfig(path, datasetPath, storePath string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if datasetPath != "" {
		cfg.Dataset = datasetPath
	}
	if storePath != "" {
		cfg.Store.Kind = config.StoreKindLocal
		cfg.Store.Path = storePath
	}
	return cfg, nil
}

func printSummary(summary *ragmark.Summary) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}
