//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

package ragmark

import (
	"trpc.group/trpc-go/trpc-ragmark-go/caller"
	"trpc.group/trpc-go/trpc-ragmark-go/dataset"
	"trpc.group/trpc-go/trpc-ragmark-go/resultstore"
	"trpc.group/trpc-go/trpc-ragmark-go/stage"
)

// Options configure an evaluation.
type Options struct {
	// Pipelines restricts the run to a subset of configured pipelines.
	// Empty means all.
	Pipelines []string
	// StartStage is the ladder index evaluation begins at.
	StartStage int
	// RunAllStages records failed gates but still advances.
	RunAllStages bool
	// ThresholdOverridePct replaces every stage threshold when positive,
	// for one-off gate experiments.
	ThresholdOverridePct float64
	// DatasetManager overrides the dataset loader built from configuration.
	DatasetManager dataset.Manager
	// StoreManager overrides the result store built from configuration.
	StoreManager resultstore.Manager
	// Callers overrides the endpoint caller for specific pipelines.
	Callers map[string]caller.Caller
	// Callbacks holds stage lifecycle hooks shared by every pipeline.
	Callbacks *stage.Callbacks
}

// NewOptions creates evaluation options with the given opts applied.
func NewOptions(opt ...Option) *Options {
	opts := &Options{}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures an evaluation.
type Option func(*Options)

// WithPipelines restricts the run to the named pipelines.
func WithPipelines(pipelines ...string) Option {
	return func(o *Options) {
		o.Pipelines = pipelines
	}
}

// WithStartStage sets the ladder index evaluation begins at.
func WithStartStage(index int) Option {
	return func(o *Options) {
		o.StartStage = index
	}
}

// WithRunAllStages forces every stage to run regardless of gate outcome.
func WithRunAllStages(run bool) Option {
	return func(o *Options) {
		o.RunAllStages = run
	}
}

// WithThresholdOverride replaces every stage threshold with the given
// percentage. Zero disables the override.
func WithThresholdOverride(pct float64) Option {
	return func(o *Options) {
		o.ThresholdOverridePct = pct
	}
}

// WithDatasetManager injects a dataset manager, bypassing the configured
// dataset path. The evaluation takes ownership and closes it.
func WithDatasetManager(m dataset.Manager) Option {
	return func(o *Options) {
		o.DatasetManager = m
	}
}

// WithStoreManager injects a result store manager, bypassing the configured
// store. The evaluation takes ownership and closes it.
func WithStoreManager(m resultstore.Manager) Option {
	return func(o *Options) {
		o.StoreManager = m
	}
}

// WithCaller injects the endpoint caller for one pipeline, bypassing the
// configured endpoint.
func WithCaller(pipeline string, c caller.Caller) Option {
	return func(o *Options) {
		if o.Callers == nil {
			o.Callers = make(map[string]caller.Caller)
		}
		o.Callers[pipeline] = c
	}
}

// WithCallbacks registers stage lifecycle hooks shared by every pipeline.
func WithCallbacks(callbacks *stage.Callbacks) Option {
	return func(o *Options) {
		o.Callbacks = callbacks
	}
}
