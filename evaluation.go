//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package ragmark orchestrates stage-gated accuracy evaluation of RAG
// pipelines: it answers whether each configured pipeline, and the set as a
// whole, currently meets its accuracy target, spending as few paid pipeline
// calls as possible by gating larger samples behind smaller ones.
package ragmark

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-ragmark-go/caller"
	"trpc.group/trpc-go/trpc-ragmark-go/config"
	"trpc.group/trpc-go/trpc-ragmark-go/dataset"
	datasetlocal "trpc.group/trpc-go/trpc-ragmark-go/dataset/local"
	"trpc.group/trpc-go/trpc-ragmark-go/log"
	"trpc.group/trpc-go/trpc-ragmark-go/resultstore"
	"trpc.group/trpc-go/trpc-ragmark-go/resultstore/inmemory"
	storelocal "trpc.group/trpc-go/trpc-ragmark-go/resultstore/local"
	storemysql "trpc.group/trpc-go/trpc-ragmark-go/resultstore/mysql"
	"trpc.group/trpc-go/trpc-ragmark-go/runcontext"
	"trpc.group/trpc-go/trpc-ragmark-go/stage"
)

// Evaluation runs configured pipelines through their stage ladders and
// reports their standing against accuracy targets.
type Evaluation struct {
	cfg       *config.Config
	opts      *Options
	pipelines []string
	dataset   dataset.Manager
	store     resultstore.Manager
	callers   map[string]caller.Caller
	pool      *ants.PoolWithFunc
}

// New creates an evaluation from configuration. Managers not injected via
// options are built from the configuration; the evaluation owns and closes
// them.
func New(cfg *config.Config, opt ...Option) (*Evaluation, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := NewOptions(opt...)

	pipelines, err := resolvePipelines(cfg, opts.Pipelines)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg, opts)
	if err != nil {
		return nil, err
	}
	data, err := buildDataset(cfg, opts)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	callers, err := buildCallers(cfg, opts, pipelines)
	if err != nil {
		_ = store.Close()
		_ = data.Close()
		return nil, err
	}
	pool, err := createPipelineRunPool(len(pipelines))
	if err != nil {
		_ = store.Close()
		_ = data.Close()
		return nil, err
	}
	return &Evaluation{
		cfg:       cfg,
		opts:      opts,
		pipelines: pipelines,
		dataset:   data,
		store:     store,
		callers:   callers,
		pool:      pool,
	}, nil
}

func resolvePipelines(cfg *config.Config, requested []string) ([]string, error) {
	if len(requested) == 0 {
		names := make([]string, 0, len(cfg.Pipelines))
		for name := range cfg.Pipelines {
			names = append(names, name)
		}
		sort.Strings(names)
		return names, nil
	}
	names := make([]string, 0, len(requested))
	for _, name := range requested {
		if _, ok := cfg.Pipelines[name]; !ok {
			return nil, fmt.Errorf("pipeline %s is not configured", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func buildStore(cfg *config.Config, opts *Options) (resultstore.Manager, error) {
	if opts.StoreManager != nil {
		return opts.StoreManager, nil
	}
	switch cfg.Store.Kind {
	case config.StoreKindMemory:
		return inmemory.NewManager(), nil
	case config.StoreKindMySQL:
		return storemysql.New(
			storemysql.WithDSN(cfg.Store.DSN),
			storemysql.WithTablePrefix(cfg.Store.TablePrefix),
		)
	default:
		var storeOpts []resultstore.Option
		if cfg.Store.Path != "" {
			storeOpts = append(storeOpts, resultstore.WithPath(cfg.Store.Path))
		}
		return storelocal.NewManager(storeOpts...), nil
	}
}

func buildDataset(cfg *config.Config, opts *Options) (dataset.Manager, error) {
	if opts.DatasetManager != nil {
		return opts.DatasetManager, nil
	}
	if cfg.Dataset == "" {
		// Status-only usage needs no corpus; Run fails on first Get.
		return noDataset{}, nil
	}
	return datasetlocal.New(cfg.Dataset)
}

// noDataset serves status-only evaluations that never dispatch questions.
type noDataset struct{}

func (noDataset) Get(ctx context.Context, pipeline string) ([]*dataset.Question, error) {
	return nil, errors.New("no dataset is configured")
}

func (noDataset) List(ctx context.Context) ([]string, error) {
	return nil, errors.New("no dataset is configured")
}

func (noDataset) Close() error { return nil }

func buildCallers(cfg *config.Config, opts *Options, pipelines []string) (map[string]caller.Caller, error) {
	callers := make(map[string]caller.Caller, len(pipelines))
	for _, name := range pipelines {
		if injected, ok := opts.Callers[name]; ok {
			callers[name] = injected
			continue
		}
		pipeline := cfg.Pipelines[name]
		callerOpts := callerOptions(cfg, pipeline)
		c, err := caller.New(pipeline.Endpoint, callerOpts...)
		if err != nil {
			return nil, fmt.Errorf("build caller for pipeline %s: %w", name, err)
		}
		callers[name] = c
	}
	return callers, nil
}

func callerOptions(cfg *config.Config, pipeline config.Pipeline) []caller.Option {
	var opts []caller.Option
	if cfg.Caller.Timeout > 0 {
		opts = append(opts, caller.WithTimeout(cfg.Caller.Timeout.Std()))
	}
	if cfg.Caller.LatencyCeiling > 0 {
		opts = append(opts, caller.WithLatencyCeiling(cfg.Caller.LatencyCeiling.Std()))
	}
	if cfg.Caller.MaxAttempts > 0 {
		opts = append(opts, caller.WithMaxAttempts(cfg.Caller.MaxAttempts))
	}
	if cfg.Caller.BackoffBase > 0 && cfg.Caller.BackoffCap > 0 {
		opts = append(opts, caller.WithBackoff(cfg.Caller.BackoffBase.Std(), cfg.Caller.BackoffCap.Std()))
	}
	if len(pipeline.Metadata) > 0 {
		opts = append(opts, caller.WithMetadata(pipeline.Metadata))
	}
	if pipeline.QuestionField != "" {
		opts = append(opts, caller.WithQuestionField(pipeline.QuestionField))
	}
	if len(pipeline.AnswerFields) > 0 {
		opts = append(opts, caller.WithAnswerFields(pipeline.AnswerFields...))
	}
	return opts
}

// ladderFor returns the stage ladder for a pipeline, with the threshold
// override applied when set.
func (e *Evaluation) ladderFor(name string) []stage.Stage {
	ladder := e.cfg.StagesFor(e.cfg.Pipelines[name].TargetPct)
	if e.opts.ThresholdOverridePct > 0 {
		for i := range ladder {
			ladder[i].PassThresholdPct = e.opts.ThresholdOverridePct
		}
	}
	return ladder
}

// Run evaluates every selected pipeline concurrently, one worker per
// pipeline, and returns the summary regenerated from the store once all
// pipelines reach a terminal state. Pipelines are independent: one blocked
// ladder never stops the others. An error is internal (store, dataset or
// pool failure), never a failed gate.
func (e *Evaluation) Run(ctx context.Context) (*Summary, error) {
	rc := runcontext.New()
	log.Infof("evaluation run %s: pipelines=%v", rc.RunID, e.pipelines)

	results := make([]*pipelineRunResult, len(e.pipelines))
	var wg sync.WaitGroup
	var errs *multierror.Error
	for i, name := range e.pipelines {
		results[i] = &pipelineRunResult{pipeline: name}
		controller, err := stage.NewController(
			name,
			e.ladderFor(name),
			e.callers[name],
			e.dataset,
			e.store,
			stage.WithStartStage(e.opts.StartStage),
			stage.WithRunAllStages(e.opts.RunAllStages),
			stage.WithCallbacks(e.opts.Callbacks),
		)
		if err != nil {
			return nil, fmt.Errorf("build controller for pipeline %s: %w", name, err)
		}
		param, ok := pipelineRunParamPool.Get().(*pipelineRunParam)
		if !ok {
			return nil, errors.New("pipeline run param pool type error")
		}
		param.idx = i
		param.ctx = ctx
		param.rc = rc
		param.controller = controller
		param.results = results
		param.wg = &wg
		wg.Add(1)
		if err := e.pool.Invoke(param); err != nil {
			wg.Done()
			param.reset()
			pipelineRunParamPool.Put(param)
			errs = multierror.Append(errs, fmt.Errorf("dispatch pipeline %s: %w", name, err))
		}
	}
	wg.Wait()

	for _, result := range results {
		if result.err != nil {
			errs = multierror.Append(errs, fmt.Errorf("pipeline %s: %w", result.pipeline, result.err))
			continue
		}
		if result.outcome != nil {
			log.Infof("evaluation run %s: pipeline %s finished %s", rc.RunID, result.pipeline, result.outcome.Status)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return e.Status(ctx)
}

// Status regenerates the summary purely from the store's persisted state.
// It has no side effects and can be called at any time, including from a
// process that never ran an evaluation.
func (e *Evaluation) Status(ctx context.Context) (*Summary, error) {
	state, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	targets := make([]pipelineTarget, 0, len(e.pipelines))
	for _, name := range e.pipelines {
		targets = append(targets, pipelineTarget{
			name:      name,
			targetPct: e.cfg.Pipelines[name].TargetPct,
			stages:    e.ladderFor(name),
		})
	}
	return buildSummary(state, targets, e.cfg.OverallTargetPct), nil
}

// Close releases the worker pool and closes the owned managers.
func (e *Evaluation) Close() error {
	var errs *multierror.Error
	if e.pool != nil {
		e.pool.Release()
	}
	if e.dataset != nil {
		if err := e.dataset.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close dataset manager: %w", err))
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close result store manager: %w", err))
		}
	}
	return errs.ErrorOrNil()
}
