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
	"fmt"
	"sort"
	"time"

	"trpc.group/trpc-go/trpc-ragmark-go/resultstore"
	"trpc.group/trpc-go/trpc-ragmark-go/stage"
	"trpc.group/trpc-go/trpc-ragmark-go/status"
)

// Evaluation phases reported in the summary.
const (
	PhaseNotStarted = "not_started"
	PhaseEvaluating = "evaluating"
	PhaseBlocked    = "blocked"
	PhaseComplete   = "complete"
)

// PipelineSummary reports one pipeline's standing against its target.
type PipelineSummary struct {
	// Accuracy is 100 * correct / tested over latest runs.
	Accuracy float64 `json:"accuracy"`
	// Tested counts distinct questions tested.
	Tested int `json:"tested"`
	// Correct counts questions whose latest run is correct.
	Correct int `json:"correct"`
	// Errors counts questions whose latest run errored.
	Errors int `json:"errors"`
	// Target is the pipeline's required accuracy.
	Target float64 `json:"target"`
	// Met reports whether accuracy reaches the target.
	Met bool `json:"met"`
	// Gap is accuracy minus target, negative when short.
	Gap float64 `json:"gap"`
	// Status is the pipeline's ladder state.
	Status string `json:"status"`
	// AvgLatencyMS is the mean call latency across all runs.
	AvgLatencyMS float64 `json:"avgLatencyMs"`
}

// OverallSummary reports the cross-pipeline gate.
type OverallSummary struct {
	// Accuracy is the mean of per-pipeline accuracies, so a high-volume
	// pipeline cannot dominate the signal.
	Accuracy float64 `json:"accuracy"`
	// Target is the required mean accuracy.
	Target float64 `json:"target"`
	// Met reports whether the mean reaches the target and every pipeline
	// met its own target.
	Met bool `json:"met"`
}

// LastRunSummary identifies the most recent recorded evaluation session.
type LastRunSummary struct {
	// RunID is the session identifier of the most recent run.
	RunID string `json:"runId,omitempty"`
	// Timestamp is when that run was recorded.
	Timestamp time.Time `json:"timestamp"`
	// Pipeline is the pipeline that run belonged to.
	Pipeline string `json:"pipeline,omitempty"`
}

// Summary is the status contract consumed by operators and reporting
// tooling. It is regenerated purely from the result store's persisted
// state, never from in-process progress.
type Summary struct {
	// Phase is the overall evaluation phase.
	Phase string `json:"phase"`
	// Pipelines maps pipeline name to its standing.
	Pipelines map[string]*PipelineSummary `json:"pipelines"`
	// Overall is the cross-pipeline gate.
	Overall OverallSummary `json:"overall"`
	// Blockers lists pipelines stopped by a failed gate.
	Blockers []string `json:"blockers,omitempty"`
	// NextAction names the pipeline with the largest shortfall.
	NextAction string `json:"nextAction"`
	// LastRun identifies the most recent recorded run.
	LastRun *LastRunSummary `json:"lastRun,omitempty"`
}

// pipelineTarget pairs a configured pipeline with its ladder for summary
// derivation.
type pipelineTarget struct {
	name      string
	targetPct float64
	stages    []stage.Stage
}

func buildSummary(state *resultstore.State, targets []pipelineTarget, overallTargetPct float64) *Summary {
	summary := &Summary{
		Pipelines: make(map[string]*PipelineSummary, len(targets)),
		Overall:   OverallSummary{Target: overallTargetPct},
	}
	var accuracySum float64
	started, blocked, completed := 0, 0, 0
	allMet := true
	for _, target := range targets {
		progress := state.Progress(target.name)
		pipelineStatus := derivePipelineStatus(state.Pipeline(target.name), target.stages)
		ps := &PipelineSummary{
			Accuracy:     progress.AccuracyPct,
			Tested:       progress.Tested,
			Correct:      progress.Correct,
			Errors:       progress.Errors,
			Target:       target.targetPct,
			Met:          progress.Tested > 0 && progress.AccuracyPct >= target.targetPct,
			Gap:          progress.AccuracyPct - target.targetPct,
			Status:       pipelineStatus.String(),
			AvgLatencyMS: progress.AvgLatencyMS,
		}
		summary.Pipelines[target.name] = ps
		accuracySum += ps.Accuracy
		if !ps.Met {
			allMet = false
		}
		switch pipelineStatus {
		case status.PipelineStatusBlocked:
			blocked++
			started++
			summary.Blockers = append(summary.Blockers, target.name)
		case status.PipelineStatusAllStagesComplete:
			completed++
			started++
		case status.PipelineStatusRunning:
			started++
		}
	}
	sort.Strings(summary.Blockers)

	if len(targets) > 0 {
		summary.Overall.Accuracy = accuracySum / float64(len(targets))
	}
	summary.Overall.Met = allMet && summary.Overall.Accuracy >= overallTargetPct

	switch {
	case started == 0:
		summary.Phase = PhaseNotStarted
	case blocked > 0:
		summary.Phase = PhaseBlocked
	case completed == len(targets):
		summary.Phase = PhaseComplete
	default:
		summary.Phase = PhaseEvaluating
	}

	summary.NextAction = deriveNextAction(summary)
	summary.LastRun = deriveLastRun(state)
	return summary
}

// derivePipelineStatus reads a pipeline's ladder state from its persisted
// stage history: a passed final stage completes the ladder, a failed most
// recent gate blocks it.
func derivePipelineStatus(state *resultstore.PipelineState, stages []stage.Stage) status.PipelineStatus {
	if state == nil || len(state.Questions) == 0 {
		return status.PipelineStatusNotStarted
	}
	if len(state.StageResults) == 0 {
		return status.PipelineStatusRunning
	}
	finalStage := ""
	if len(stages) > 0 {
		finalStage = stages[len(stages)-1].Name
	}
	latest := state.StageResults[len(state.StageResults)-1]
	if latest.Passed && latest.StageName == finalStage {
		return status.PipelineStatusAllStagesComplete
	}
	if !latest.Passed {
		return status.PipelineStatusBlocked
	}
	return status.PipelineStatusRunning
}

// deriveNextAction names the pipeline with the largest shortfall against
// its target.
func deriveNextAction(summary *Summary) string {
	worst := ""
	worstGap := 0.0
	names := make([]string, 0, len(summary.Pipelines))
	for name := range summary.Pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ps := summary.Pipelines[name]
		if ps.Met {
			continue
		}
		if worst == "" || ps.Gap < worstGap {
			worst = name
			worstGap = ps.Gap
		}
	}
	if worst == "" {
		return "all pipeline targets met"
	}
	ps := summary.Pipelines[worst]
	return fmt.Sprintf("improve pipeline %s: accuracy %.1f%% vs target %.1f%%", worst, ps.Accuracy, ps.Target)
}

func deriveLastRun(state *resultstore.State) *LastRunSummary {
	var last *resultstore.Run
	for _, pipeline := range state.Pipelines {
		for _, record := range pipeline.Questions {
			for _, run := range record.Runs {
				if last == nil || run.Timestamp.After(last.Timestamp) {
					last = run
				}
			}
		}
	}
	if last == nil {
		return nil
	}
	return &LastRunSummary{
		RunID:     last.RunID,
		Timestamp: last.Timestamp,
		Pipeline:  last.Pipeline,
	}
}
