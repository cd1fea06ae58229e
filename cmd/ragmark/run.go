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

func buildRunCmd() *cobra.Command {
	var (
		configPath   string
		pipelines    []string
		startStage   int
		threshold    float64
		runAllStages bool
		datasetPath  string
		storePath    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the stage ladder for the configured pipelines",
		Example: `  # Evaluate every configured pipeline from the first stage
  ragmark run --config ragmark.yaml

  # Re-test two pipelines starting at the full stage
  ragmark run --config ragmark.yaml --pipelines graph,quantitative --stage 2

  # Collect exhaustive data, recording failed gates without stopping
  ragmark run --config ragmark.yaml --run-all-stages`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, datasetPath, storePath)
			if err != nil {
				return err
			}
			opts := []ragmark.Option{
				ragmark.WithStartStage(startStage),
				ragmark.WithRunAllStages(runAllStages),
			}
			if len(pipelines) > 0 {
				opts = append(opts, ragmark.WithPipelines(pipelines...))
			}
			if threshold > 0 {
				opts = append(opts, ragmark.WithThresholdOverride(threshold))
			}
			eval, err := ragmark.New(cfg, opts...)
			if err != nil {
				return err
			}
			summary, err := eval.Run(cmd.Context())
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
	cmd.Flags().StringSliceVar(&pipelines, "pipelines", nil, "Pipeline subset to evaluate (default: all configured)")
	cmd.Flags().IntVar(&startStage, "stage", 0, "Stage ladder index to start from")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Override every stage's pass threshold percentage")
	cmd.Flags().BoolVar(&runAllStages, "run-all-stages", false, "Record failed gates but still run every stage")
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Override the question corpus path")
	cmd.Flags().StringVar(&storePath, "store", "", "Override the local result store path")

	return cmd
}
