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

	"trpc.group/trpc-go/trpc-ragmark-go/internal/callback"
	"trpc.group/trpc-go/trpc-ragmark-go/resultstore"
	"trpc.group/trpc-go/trpc-ragmark-go/runcontext"
)

// BeforeStageArgs describes the stage about to run.
type BeforeStageArgs struct {
	// Pipeline names the pipeline under evaluation.
	Pipeline string
	// Stage is the stage tier about to run.
	Stage Stage
	// StageIndex is the stage's position in the ladder.
	StageIndex int
	// RunContext identifies the evaluation session.
	RunContext *runcontext.RunContext
}

// AfterStageArgs describes a completed stage and its recorded outcome.
type AfterStageArgs struct {
	// Pipeline names the pipeline under evaluation.
	Pipeline string
	// Stage is the stage tier that ran.
	Stage Stage
	// StageIndex is the stage's position in the ladder.
	StageIndex int
	// RunContext identifies the evaluation session.
	RunContext *runcontext.RunContext
	// Result is the recorded stage outcome.
	Result *resultstore.StageResult
}

// BeforeStageCallback is called before a stage's questions are dispatched.
type BeforeStageCallback func(context.Context, *BeforeStageArgs) error

// AfterStageCallback is called after a stage's outcome has been recorded.
// Hooks typically fetch diagnostics for failed stages; a hook failure is
// logged, never fatal to the evaluation.
type AfterStageCallback func(context.Context, *AfterStageArgs) error

// Callbacks stores registered callbacks for stage lifecycle points.
type Callbacks struct {
	// BeforeStage contains callbacks called before a stage runs.
	BeforeStage []callback.Named[BeforeStageCallback]
	// AfterStage contains callbacks called after a stage's outcome is recorded.
	AfterStage []callback.Named[AfterStageCallback]
}

// NewCallbacks creates an empty callback registry.
func NewCallbacks() *Callbacks {
	return &Callbacks{}
}

// RegisterBeforeStage adds a named before-stage callback.
func (c *Callbacks) RegisterBeforeStage(name string, cb BeforeStageCallback) *Callbacks {
	if cb != nil {
		c.BeforeStage = append(c.BeforeStage, callback.Named[BeforeStageCallback]{Name: name, Callback: cb})
	}
	return c
}

// RegisterAfterStage adds a named after-stage callback.
func (c *Callbacks) RegisterAfterStage(name string, cb AfterStageCallback) *Callbacks {
	if cb != nil {
		c.AfterStage = append(c.AfterStage, callback.Named[AfterStageCallback]{Name: name, Callback: cb})
	}
	return c
}

func (c *Callbacks) runBeforeStage(ctx context.Context, args *BeforeStageArgs) error {
	if c == nil {
		return nil
	}
	return callback.Run(ctx, "BeforeStage", c.BeforeStage, args)
}

func (c *Callbacks) runAfterStage(ctx context.Context, args *AfterStageArgs) error {
	if c == nil {
		return nil
	}
	return callback.Run(ctx, "AfterStage", c.AfterStage, args)
}
