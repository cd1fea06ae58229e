//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package resultstore provides the durable record of evaluation runs.
package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Run is one recorded execution of one question against one pipeline.
// Runs are append-only: never mutated, never deleted.
type Run struct {
	// QuestionID identifies the question within its pipeline's dataset.
	QuestionID string `json:"questionId"`
	// Pipeline names the pipeline that was called.
	Pipeline string `json:"pipeline"`
	// Sequence is a per-pipeline monotonic counter assigned by the store.
	// It makes "last run for a question" well-defined without a timestamp tiebreak.
	Sequence int64 `json:"sequence"`
	// Timestamp records when the run was recorded.
	Timestamp time.Time `json:"timestamp"`
	// RunID groups runs belonging to one evaluation session.
	RunID string `json:"runId,omitempty"`
	// ProducedAnswer is the answer the pipeline returned, empty on error.
	ProducedAnswer string `json:"producedAnswer,omitempty"`
	// LatencyMS is the call latency including retries.
	LatencyMS int64 `json:"latencyMs"`
	// HTTPStatus is the last HTTP status received, nil if none arrived.
	HTTPStatus *int `json:"httpStatus,omitempty"`
	// ErrorKind classifies the failure, empty when the call succeeded.
	ErrorKind string `json:"errorKind,omitempty"`
	// Correct is the boolean verdict counted toward stage accuracy.
	Correct bool `json:"correct"`
	// Score is the continuous correctness score in [0, 1].
	Score float64 `json:"score"`
	// Method names the scoring method (exact, partial, none, error).
	Method string `json:"method,omitempty"`
	// Overlap is the token-overlap F-measure kept for analytics.
	Overlap float64 `json:"overlap,omitempty"`
}

// Validate checks the fields the store requires.
func (r *Run) Validate() error {
	if r == nil {
		return errors.New("run is nil")
	}
	if r.QuestionID == "" {
		return errors.New("run question id is empty")
	}
	if r.Pipeline == "" {
		return errors.New("run pipeline is empty")
	}
	return nil
}

// StageResult is the persisted outcome of evaluating one stage for one pipeline.
type StageResult struct {
	// StageName identifies the stage tier.
	StageName string `json:"stageName"`
	// Pipeline names the pipeline evaluated.
	Pipeline string `json:"pipeline"`
	// Tested is the number of questions dispatched for the stage.
	Tested int `json:"tested"`
	// Correct is the number answered correctly.
	Correct int `json:"correct"`
	// Errors is the number that failed with an endpoint error.
	Errors int `json:"errors"`
	// AccuracyPct is 100 * correct / tested.
	AccuracyPct float64 `json:"accuracyPct"`
	// Passed reports whether the stage met its threshold.
	Passed bool `json:"passed"`
	// Timestamp records when the stage was evaluated.
	Timestamp time.Time `json:"timestamp"`
	// RunID groups the stage result with its evaluation session.
	RunID string `json:"runId,omitempty"`
}

// Validate checks the fields the store requires.
func (r *StageResult) Validate() error {
	if r == nil {
		return errors.New("stage result is nil")
	}
	if r.StageName == "" {
		return errors.New("stage result stage name is empty")
	}
	if r.Pipeline == "" {
		return errors.New("stage result pipeline is empty")
	}
	return nil
}

// QuestionRecord holds the full run history for one question, oldest first.
type QuestionRecord struct {
	// QuestionID identifies the question.
	QuestionID string `json:"questionId"`
	// Runs is the chronological, append-only run history.
	Runs []*Run `json:"runs"`
}

// Latest returns the most recent run for the question, nil if none exist.
// The last run is authoritative for current status; history keeps all attempts.
func (q *QuestionRecord) Latest() *Run {
	if q == nil || len(q.Runs) == 0 {
		return nil
	}
	return q.Runs[len(q.Runs)-1]
}

// PipelineState is the persisted per-pipeline slice of the store document.
type PipelineState struct {
	// Tested counts distinct questions with at least one run.
	Tested int `json:"tested"`
	// Correct counts questions whose latest run is correct.
	Correct int `json:"correct"`
	// Errors counts questions whose latest run ended in an endpoint error.
	Errors int `json:"errors"`
	// AvgLatencyMS is the mean latency across all recorded runs.
	AvgLatencyMS float64 `json:"avgLatencyMs"`
	// NextSequence is the next per-pipeline run sequence number.
	NextSequence int64 `json:"nextSequence"`
	// Questions is the full question-result registry keyed by question id.
	Questions map[string]*QuestionRecord `json:"questions"`
	// StageResults is the append-only list of stage outcome summaries.
	StageResults []*StageResult `json:"stageResults,omitempty"`
}

// recompute rebuilds the cumulative counters from the run registry so they
// can never diverge from it.
func (p *PipelineState) recompute() {
	tested, correct, errorCount := 0, 0, 0
	var latencyTotal int64
	runCount := 0
	for _, record := range p.Questions {
		for _, run := range record.Runs {
			latencyTotal += run.LatencyMS
			runCount++
		}
		latest := record.Latest()
		if latest == nil {
			continue
		}
		tested++
		if latest.Correct {
			correct++
		}
		if latest.ErrorKind != "" {
			errorCount++
		}
	}
	p.Tested = tested
	p.Correct = correct
	p.Errors = errorCount
	if runCount > 0 {
		p.AvgLatencyMS = float64(latencyTotal) / float64(runCount)
	} else {
		p.AvgLatencyMS = 0
	}
}

// State is the full store document, keyed by pipeline name. It is the single
// source of truth consumed by reporting.
type State struct {
	// Pipelines maps pipeline name to its persisted state.
	Pipelines map[string]*PipelineState `json:"pipelines"`
}

// NewState returns an empty store document.
func NewState() *State {
	return &State{Pipelines: make(map[string]*PipelineState)}
}

// Pipeline returns the state for the named pipeline, nil if absent.
func (s *State) Pipeline(name string) *PipelineState {
	if s == nil {
		return nil
	}
	return s.Pipelines[name]
}

// EnsurePipeline returns the state for the named pipeline, creating it if absent.
func (s *State) EnsurePipeline(name string) *PipelineState {
	if s.Pipelines == nil {
		s.Pipelines = make(map[string]*PipelineState)
	}
	pipeline, ok := s.Pipelines[name]
	if !ok {
		pipeline = &PipelineState{Questions: make(map[string]*QuestionRecord)}
		s.Pipelines[name] = pipeline
	}
	if pipeline.Questions == nil {
		pipeline.Questions = make(map[string]*QuestionRecord)
	}
	return pipeline
}

// ApplyRun appends a run to the document, assigns its sequence number, and
// updates the pipeline counters. Backends call it inside their critical
// section so the counter discipline is identical everywhere. The stored copy
// is returned.
func (s *State) ApplyRun(run *Run) (*Run, error) {
	if err := run.Validate(); err != nil {
		return nil, err
	}
	pipeline := s.EnsurePipeline(run.Pipeline)
	stored := *run
	stored.Sequence = pipeline.NextSequence
	pipeline.NextSequence++
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now().UTC()
	}
	record, ok := pipeline.Questions[stored.QuestionID]
	if !ok {
		record = &QuestionRecord{QuestionID: stored.QuestionID}
		pipeline.Questions[stored.QuestionID] = record
	}
	record.Runs = append(record.Runs, &stored)
	pipeline.recompute()
	return &stored, nil
}

// ApplyStageResult appends a stage result to the document.
func (s *State) ApplyStageResult(result *StageResult) error {
	if err := result.Validate(); err != nil {
		return err
	}
	stored := *result
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now().UTC()
	}
	pipeline := s.EnsurePipeline(stored.Pipeline)
	pipeline.StageResults = append(pipeline.StageResults, &stored)
	return nil
}

// Clone returns a deep copy of the state.
func (s *State) Clone() (*State, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	clone := NewState()
	if err := json.Unmarshal(data, clone); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return clone, nil
}

// PipelineProgress is a derived view over one pipeline's run log.
type PipelineProgress struct {
	// Tested counts distinct questions tested so far.
	Tested int `json:"tested"`
	// Correct counts questions whose latest run is correct.
	Correct int `json:"correct"`
	// Errors counts questions whose latest run errored.
	Errors int `json:"errors"`
	// AccuracyPct is 100 * Correct / Tested, 0 when nothing was tested.
	AccuracyPct float64 `json:"accuracyPct"`
	// AvgLatencyMS is the mean latency across all runs.
	AvgLatencyMS float64 `json:"avgLatencyMs"`
	// CurrentStageIndex counts the distinct stages passed so far.
	CurrentStageIndex int `json:"currentStageIndex"`
}

// Progress recomputes a pipeline's progress purely from its run log and
// stage history. It never reads the cached counters.
func (s *State) Progress(pipeline string) PipelineProgress {
	state := s.Pipeline(pipeline)
	if state == nil {
		return PipelineProgress{}
	}
	derived := &PipelineState{Questions: state.Questions}
	derived.recompute()
	progress := PipelineProgress{
		Tested:       derived.Tested,
		Correct:      derived.Correct,
		Errors:       derived.Errors,
		AvgLatencyMS: derived.AvgLatencyMS,
	}
	if progress.Tested > 0 {
		progress.AccuracyPct = 100 * float64(progress.Correct) / float64(progress.Tested)
	}
	passed := make(map[string]struct{})
	for _, result := range state.StageResults {
		if result != nil && result.Passed {
			passed[result.StageName] = struct{}{}
		}
	}
	progress.CurrentStageIndex = len(passed)
	return progress
}

// RebuildState reconstructs a state document from flattened run and stage
// result histories, preserving the sequence numbers already assigned. Runs
// must be supplied in recording order per pipeline. Backends that store rows
// rather than the whole document use it to serve Load.
func RebuildState(runs []*Run, stageResults []*StageResult) (*State, error) {
	state := NewState()
	for _, run := range runs {
		if err := run.Validate(); err != nil {
			return nil, err
		}
		pipeline := state.EnsurePipeline(run.Pipeline)
		stored := *run
		record, ok := pipeline.Questions[stored.QuestionID]
		if !ok {
			record = &QuestionRecord{QuestionID: stored.QuestionID}
			pipeline.Questions[stored.QuestionID] = record
		}
		record.Runs = append(record.Runs, &stored)
		if stored.Sequence >= pipeline.NextSequence {
			pipeline.NextSequence = stored.Sequence + 1
		}
	}
	for _, pipeline := range state.Pipelines {
		pipeline.recompute()
	}
	for _, result := range stageResults {
		if err := result.Validate(); err != nil {
			return nil, err
		}
		stored := *result
		pipeline := state.EnsurePipeline(stored.Pipeline)
		pipeline.StageResults = append(pipeline.StageResults, &stored)
	}
	return state, nil
}

// Manager defines the interface for recording and loading evaluation runs.
// Record and RecordStageResult are single critical sections: callers never
// hold the document across multiple operations.
type Manager interface {
	// Record appends a run and updates the pipeline's counters, returning
	// the stored copy with its sequence number assigned.
	Record(ctx context.Context, run *Run) (*Run, error)
	// RecordStageResult appends a stage outcome summary.
	RecordStageResult(ctx context.Context, result *StageResult) error
	// Load returns the full current state. A missing store yields an empty
	// default state, not an error.
	Load(ctx context.Context) (*State, error)
	// Close closes the manager and releases owned resources.
	Close() error
}
