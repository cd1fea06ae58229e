//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package runcontext carries the identity of one evaluation session.
// It is passed explicitly into every component so there is no hidden
// module-level session state, and concurrent sessions stay independent.
package runcontext

import (
	"time"

	"github.com/google/uuid"
)

// RunContext identifies one evaluation session. All runs and stage results
// recorded during the session share its RunID.
type RunContext struct {
	// RunID is the unique identifier grouping this session's records.
	RunID string
	// StartTime is when the session began.
	StartTime time.Time
	// Labels carries free-form session annotations for diagnostics.
	Labels map[string]string
}

// Option configures a RunContext.
type Option func(*RunContext)

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(rc *RunContext) {
		rc.RunID = id
	}
}

// WithLabel attaches a diagnostic label to the session.
func WithLabel(key, value string) Option {
	return func(rc *RunContext) {
		if rc.Labels == nil {
			rc.Labels = make(map[string]string)
		}
		rc.Labels[key] = value
	}
}

// New creates a run context with a fresh identifier.
func New(opt ...Option) *RunContext {
	rc := &RunContext{
		RunID:     uuid.NewString(),
		StartTime: time.Now().UTC(),
	}
	for _, o := range opt {
		o(rc)
	}
	return rc
}

// Elapsed returns the time since the session started.
func (rc *RunContext) Elapsed() time.Duration {
	return time.Since(rc.StartTime)
}
