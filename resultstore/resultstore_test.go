//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

package resultstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRunAssignsSequence(t *testing.T) {
	state := NewState()
	first, err := state.ApplyRun(&Run{QuestionID: "q1", Pipeline: "standard", Correct: true, Score: 1})
	require.NoError(t, err)
	second, err := state.ApplyRun(&Run{QuestionID: "q2", Pipeline: "standard"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Sequence)
	assert.Equal(t, int64(1), second.Sequence)
	assert.False(t, first.Timestamp.IsZero())

	// Sequences are per pipeline.
	other, err := state.ApplyRun(&Run{QuestionID: "q1", Pipeline: "graph"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), other.Sequence)
}

func TestApplyRunValidation(t *testing.T) {
	state := NewState()
	_, err := state.ApplyRun(nil)
	assert.Error(t, err)
	_, err = state.ApplyRun(&Run{Pipeline: "p"})
	assert.Error(t, err)
	_, err = state.ApplyRun(&Run{QuestionID: "q"})
	assert.Error(t, err)
}

func TestLatestRunSupersedesForCounters(t *testing.T) {
	state := NewState()
	_, err := state.ApplyRun(&Run{QuestionID: "q1", Pipeline: "standard", Correct: false, ErrorKind: "timeout"})
	require.NoError(t, err)

	pipeline := state.Pipeline("standard")
	assert.Equal(t, 1, pipeline.Tested)
	assert.Equal(t, 0, pipeline.Correct)
	assert.Equal(t, 1, pipeline.Errors)

	// Re-testing the question supersedes its prior verdict, but history
	// keeps both attempts.
	_, err = state.ApplyRun(&Run{QuestionID: "q1", Pipeline: "standard", Correct: true, Score: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, pipeline.Tested)
	assert.Equal(t, 1, pipeline.Correct)
	assert.Equal(t, 0, pipeline.Errors)
	assert.Len(t, pipeline.Questions["q1"].Runs, 2)
}

func TestAvgLatencyAcrossAllRuns(t *testing.T) {
	state := NewState()
	_, err := state.ApplyRun(&Run{QuestionID: "q1", Pipeline: "p", LatencyMS: 100})
	require.NoError(t, err)
	_, err = state.ApplyRun(&Run{QuestionID: "q1", Pipeline: "p", LatencyMS: 300})
	require.NoError(t, err)
	assert.Equal(t, 200.0, state.Pipeline("p").AvgLatencyMS)
}

func TestProgress(t *testing.T) {
	state := NewState()
	assert.Equal(t, PipelineProgress{}, state.Progress("missing"))

	for _, run := range []*Run{
		{QuestionID: "q1", Pipeline: "p", Correct: true, Score: 1, LatencyMS: 10},
		{QuestionID: "q2", Pipeline: "p", Correct: true, Score: 1, LatencyMS: 20},
		{QuestionID: "q3", Pipeline: "p", Correct: false, ErrorKind: "timeout", LatencyMS: 30},
		{QuestionID: "q4", Pipeline: "p", Correct: false, LatencyMS: 40},
	} {
		_, err := state.ApplyRun(run)
		require.NoError(t, err)
	}
	require.NoError(t, state.ApplyStageResult(&StageResult{StageName: "smoke", Pipeline: "p", Passed: true}))
	require.NoError(t, state.ApplyStageResult(&StageResult{StageName: "quick", Pipeline: "p", Passed: false}))

	progress := state.Progress("p")
	assert.Equal(t, 4, progress.Tested)
	assert.Equal(t, 2, progress.Correct)
	assert.Equal(t, 1, progress.Errors)
	assert.Equal(t, 50.0, progress.AccuracyPct)
	assert.Equal(t, 25.0, progress.AvgLatencyMS)
	assert.Equal(t, 1, progress.CurrentStageIndex)
}

func TestApplyStageResultValidation(t *testing.T) {
	state := NewState()
	assert.Error(t, state.ApplyStageResult(nil))
	assert.Error(t, state.ApplyStageResult(&StageResult{Pipeline: "p"}))
	assert.Error(t, state.ApplyStageResult(&StageResult{StageName: "smoke"}))
}

func TestClone(t *testing.T) {
	state := NewState()
	_, err := state.ApplyRun(&Run{QuestionID: "q1", Pipeline: "p", Correct: true})
	require.NoError(t, err)

	clone, err := state.Clone()
	require.NoError(t, err)
	// Mutating the clone must not touch the original.
	_, err = clone.ApplyRun(&Run{QuestionID: "q2", Pipeline: "p"})
	require.NoError(t, err)
	assert.Len(t, state.Pipeline("p").Questions, 1)
	assert.Len(t, clone.Pipeline("p").Questions, 2)
}

func TestQuestionRecordLatest(t *testing.T) {
	var nilRecord *QuestionRecord
	assert.Nil(t, nilRecord.Latest())
	assert.Nil(t, (&QuestionRecord{}).Latest())

	record := &QuestionRecord{Runs: []*Run{{Sequence: 0}, {Sequence: 7}}}
	assert.Equal(t, int64(7), record.Latest().Sequence)
}

func TestNewOptions(t *testing.T) {
	opts := NewOptions()
	assert.NotEmpty(t, opts.Path)
	opts = NewOptions(WithPath("/tmp/custom.json"))
	assert.Equal(t, "/tmp/custom.json", opts.Path)
}
