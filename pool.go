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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-ragmark-go/runcontext"
	"trpc.group/trpc-go/trpc-ragmark-go/stage"
)

// pipelineRunParam carries one pipeline's controller run through the pool.
type pipelineRunParam struct {
	idx        int
	ctx        context.Context
	rc         *runcontext.RunContext
	controller *stage.Controller
	results    []*pipelineRunResult
	wg         *sync.WaitGroup
}

type pipelineRunResult struct {
	pipeline string
	outcome  *stage.Outcome
	err      error
}

func (p *pipelineRunParam) reset() {
	p.idx = 0
	p.ctx = nil
	p.rc = nil
	p.controller = nil
	p.results = nil
	p.wg = nil
}

var pipelineRunParamPool = &sync.Pool{
	New: func() any { return new(pipelineRunParam) },
}

// createPipelineRunPool builds a worker pool with one worker per pipeline,
// so a stalled pipeline's retries never starve its siblings.
func createPipelineRunPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*pipelineRunParam)
		if !ok {
			panic("pipeline run pool args type error")
		}
		wg := param.wg
		idx, ctx, rc, controller, results := param.idx, param.ctx, param.rc, param.controller, param.results
		defer func() {
			wg.Done()
			param.reset()
			pipelineRunParamPool.Put(param)
		}()
		outcome, err := controller.Run(ctx, rc)
		results[idx].outcome = outcome
		results[idx].err = err
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline run pool: %w", err)
	}
	return pool, nil
}
