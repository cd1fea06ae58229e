//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package status provides the progression status of a pipeline under evaluation.
package status

// PipelineStatus represents where a pipeline sits in its stage ladder.
type PipelineStatus int

const (
	// PipelineStatusUnknown represents an unknown pipeline status.
	PipelineStatusUnknown PipelineStatus = iota
	// PipelineStatusNotStarted indicates no stage has been dispatched yet.
	PipelineStatusNotStarted
	// PipelineStatusRunning indicates a stage is currently executing.
	PipelineStatusRunning
	// PipelineStatusAllStagesComplete indicates every stage passed its gate.
	PipelineStatusAllStagesComplete
	// PipelineStatusBlocked indicates a stage failed its gate and progression stopped.
	PipelineStatusBlocked
)

// String returns the string representation of the pipeline status.
func (s PipelineStatus) String() string {
	switch s {
	case PipelineStatusNotStarted:
		return "not_started"
	case PipelineStatusRunning:
		return "running"
	case PipelineStatusAllStagesComplete:
		return "all_stages_complete"
	case PipelineStatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a terminal state.
func (s PipelineStatus) Terminal() bool {
	return s == PipelineStatusAllStagesComplete || s == PipelineStatusBlocked
}
