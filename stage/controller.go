//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trpc.group/trpc-go/trpc-ragmark-go/caller"
	"trpc.group/trpc-go/trpc-ragmark-go/dataset"
	"trpc.group/trpc-go/trpc-ragmark-go/log"
	"trpc.group/trpc-go/trpc-ragmark-go/resultstore"
	"trpc.group/trpc-go/trpc-ragmark-go/runcontext"
	"trpc.group/trpc-go/trpc-ragmark-go/scorer"
	"trpc.group/trpc-go/trpc-ragmark-go/status"
)

// Options configure a stage controller.
type Options struct {
	// StartStage is the ladder index evaluation begins at.
	StartStage int
	// RunAllStages records a failed gate but still advances to the next
	// stage, for exhaustive data collection.
	RunAllStages bool
	// Callbacks holds the stage lifecycle hooks.
	Callbacks *Callbacks
}

// Option configures a stage controller.
type Option func(*Options)

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

// WithCallbacks registers stage lifecycle hooks.
func WithCallbacks(callbacks *Callbacks) Option {
	return func(o *Options) {
		o.Callbacks = callbacks
	}
}

// Outcome is the terminal result of running one pipeline through its ladder.
type Outcome struct {
	// Pipeline names the pipeline evaluated.
	Pipeline string
	// Status is the terminal pipeline state.
	Status status.PipelineStatus
	// StageResults lists the outcomes of the stages that ran, in order.
	StageResults []*resultstore.StageResult
	// BlockedAt is the ladder index of the failed gate, -1 if none failed.
	BlockedAt int
}

// Controller drives one pipeline through its ordered stages. Questions run
// strictly sequentially within the pipeline; cross-pipeline concurrency is
// the orchestrator's concern.
type Controller struct {
	pipeline string
	stages   []Stage
	caller   caller.Caller
	dataset  dataset.Manager
	store    resultstore.Manager
	opts     *Options
}

// NewController creates a controller for one pipeline.
func NewController(
	pipeline string,
	stages []Stage,
	call caller.Caller,
	data dataset.Manager,
	store resultstore.Manager,
	opt ...Option,
) (*Controller, error) {
	if pipeline == "" {
		return nil, errors.New("pipeline name is empty")
	}
	if call == nil {
		return nil, errors.New("caller is nil")
	}
	if data == nil {
		return nil, errors.New("dataset manager is nil")
	}
	if store == nil {
		return nil, errors.New("result store manager is nil")
	}
	if err := ValidateLadder(stages); err != nil {
		return nil, err
	}
	opts := &Options{}
	for _, o := range opt {
		o(opts)
	}
	if opts.StartStage < 0 || opts.StartStage >= len(stages) {
		return nil, fmt.Errorf("start stage %d outside ladder of %d stages", opts.StartStage, len(stages))
	}
	return &Controller{
		pipeline: pipeline,
		stages:   stages,
		caller:   call,
		dataset:  data,
		store:    store,
		opts:     opts,
	}, nil
}

// Run evaluates the pipeline's stages in order until the ladder is exhausted
// or a gate fails. A failed gate blocks the pipeline; endpoint errors on
// individual questions never abort a stage, but store and dataset failures
// are fatal to the run.
func (c *Controller) Run(ctx context.Context, rc *runcontext.RunContext) (*Outcome, error) {
	if rc == nil {
		rc = runcontext.New()
	}
	questions, err := c.dataset.Get(ctx, c.pipeline)
	if err != nil {
		return nil, fmt.Errorf("load questions for pipeline %s: %w", c.pipeline, err)
	}
	outcome := &Outcome{
		Pipeline:  c.pipeline,
		Status:    status.PipelineStatusRunning,
		BlockedAt: -1,
	}
	for i := c.opts.StartStage; i < len(c.stages); i++ {
		result, err := c.runStage(ctx, rc, i, questions)
		if err != nil {
			return nil, err
		}
		outcome.StageResults = append(outcome.StageResults, result)
		if !result.Passed {
			if !c.opts.RunAllStages {
				outcome.Status = status.PipelineStatusBlocked
				outcome.BlockedAt = i
				return outcome, nil
			}
			if outcome.BlockedAt < 0 {
				outcome.BlockedAt = i
			}
		}
	}
	if outcome.BlockedAt >= 0 {
		outcome.Status = status.PipelineStatusBlocked
	} else {
		outcome.Status = status.PipelineStatusAllStagesComplete
	}
	return outcome, nil
}

func (c *Controller) runStage(
	ctx context.Context,
	rc *runcontext.RunContext,
	index int,
	questions []*dataset.Question,
) (*resultstore.StageResult, error) {
	current := c.stages[index]
	if err := c.opts.Callbacks.runBeforeStage(ctx, &BeforeStageArgs{
		Pipeline:   c.pipeline,
		Stage:      current,
		StageIndex: index,
		RunContext: rc,
	}); err != nil {
		log.Warnf("pipeline %s stage %s: %v", c.pipeline, current.Name, err)
	}

	state, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state for pipeline %s: %w", c.pipeline, err)
	}
	selected := selectQuestions(questions, state.Pipeline(c.pipeline), current.SampleSize)

	tested, correct, errored := 0, 0, 0
	for _, q := range selected {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline %s stage %s canceled: %w", c.pipeline, current.Name, err)
		}
		run, err := c.runQuestion(ctx, rc, q)
		if err != nil {
			return nil, err
		}
		tested++
		if run.Correct {
			correct++
		}
		if run.ErrorKind != "" {
			errored++
		}
	}

	accuracy := 0.0
	if tested > 0 {
		accuracy = 100 * float64(correct) / float64(tested)
	}
	result := &resultstore.StageResult{
		StageName:   current.Name,
		Pipeline:    c.pipeline,
		Tested:      tested,
		Correct:     correct,
		Errors:      errored,
		AccuracyPct: accuracy,
		Passed:      tested > 0 && accuracy >= current.PassThresholdPct,
		Timestamp:   time.Now().UTC(),
		RunID:       rc.RunID,
	}
	if err := c.store.RecordStageResult(ctx, result); err != nil {
		return nil, fmt.Errorf("record stage result for pipeline %s: %w", c.pipeline, err)
	}
	log.Infof("pipeline %s stage %s: tested=%d correct=%d errors=%d accuracy=%.1f%% passed=%v",
		c.pipeline, current.Name, tested, correct, errored, accuracy, result.Passed)

	if err := c.opts.Callbacks.runAfterStage(ctx, &AfterStageArgs{
		Pipeline:   c.pipeline,
		Stage:      current,
		StageIndex: index,
		RunContext: rc,
		Result:     result,
	}); err != nil {
		log.Warnf("pipeline %s stage %s: %v", c.pipeline, current.Name, err)
	}
	return result, nil
}

// runQuestion calls the endpoint, scores the answer and records the run.
// An endpoint error produces an incorrect run that carries its error kind;
// only a store failure is returned as an error.
func (c *Controller) runQuestion(
	ctx context.Context,
	rc *runcontext.RunContext,
	q *dataset.Question,
) (*resultstore.Run, error) {
	callResult := c.caller.Call(ctx, q.Text)
	run := &resultstore.Run{
		QuestionID: q.ID,
		Pipeline:   c.pipeline,
		RunID:      rc.RunID,
		LatencyMS:  callResult.LatencyMS,
		HTTPStatus: callResult.HTTPStatus,
	}
	if callResult.OK() {
		score := scorer.Score(callResult.Answer, q.ExpectedAnswer)
		run.ProducedAnswer = callResult.Answer
		run.Correct = score.Correct
		run.Score = score.F1
		run.Method = string(score.Method)
		run.Overlap = score.Overlap
	} else {
		run.ErrorKind = string(callResult.ErrorKind)
		run.Method = string(scorer.MethodError)
		log.Debugf("pipeline %s question %s failed: %s (%s)",
			c.pipeline, q.ID, callResult.ErrorKind, callResult.ErrorDetail)
	}
	stored, err := c.store.Record(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("record run for pipeline %s question %s: %w", c.pipeline, q.ID, err)
	}
	return stored, nil
}
