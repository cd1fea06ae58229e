//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	ragmark "trpc.group/trpc-go/trpc-ragmark-go"
)

func buildStatusCmd() *cobra.Command {
	var (
		configPath string
		storePath  string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report pipeline standing from persisted results",
		Long: `Regenerate the evaluation summary purely from the result store's
persisted state. No pipeline is called and nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, "", storePath)
			if err != nil {
				return err
			}
			eval, err := ragmark.New(cfg)
			if err != nil {
				return err
			}
			summary, err := eval.Status(cmd.Context())
			if err != nil {
				return multierror.Append(err, eval.Close()).ErrorOrNil()
			}
			if err := printSummary(summary); err != nil {
				return multierror.Append(err, eval.Close()).ErrorOrNil()
			}
			return eval.Close()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "ragmark.yaml", "Path to YAML configuration file")
	cmd.Flags().StringVar(&storePath, "store", "", "Override the local result store path")

	return cmd
}
