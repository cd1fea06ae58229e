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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-ragmark-go/caller"
	"trpc.group/trpc-go/trpc-ragmark-go/dataset"
	"trpc.group/trpc-go/trpc-ragmark-go/resultstore"
	"trpc.group/trpc-go/trpc-ragmark-go/resultstore/inmemory"
	"trpc.group/trpc-go/trpc-ragmark-go/runcontext"
	"trpc.group/trpc-go/trpc-ragmark-go/status"
)

// fakeCaller answers from a fixed table; unknown questions time out.
type fakeCaller struct {
	answers map[string]string
	calls   []string
}

func (f *fakeCaller) Call(ctx context.Context, question string) caller.Result {
	f.calls = append(f.calls, question)
	answer, ok := f.answers[question]
	if !ok {
		return caller.Result{LatencyMS: 5, ErrorKind: caller.ErrorKindTimeout, ErrorDetail: "deadline exceeded"}
	}
	ok200 := 200
	return caller.Result{Answer: answer, LatencyMS: 5, HTTPStatus: &ok200}
}

// fakeDataset serves a fixed question list for one pipeline.
type fakeDataset struct {
	pipeline  string
	questions []*dataset.Question
}

func (f *fakeDataset) Get(ctx context.Context, pipeline string) ([]*dataset.Question, error) {
	if pipeline != f.pipeline {
		return nil, fmt.Errorf("unknown pipeline %s", pipeline)
	}
	return f.questions, nil
}

func (f *fakeDataset) List(ctx context.Context) ([]string, error) {
	return []string{f.pipeline}, nil
}

func (f *fakeDataset) Close() error { return nil }

func makeQuestions(pipeline string, n int) []*dataset.Question {
	questions := make([]*dataset.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, &dataset.Question{
			ID:             fmt.Sprintf("q-%03d", i),
			Text:           fmt.Sprintf("question %d", i),
			ExpectedAnswer: fmt.Sprintf("answer %d", i),
			Pipeline:       pipeline,
		})
	}
	return questions
}

// answerFirst builds a caller answering the first n questions correctly and
// the rest incorrectly.
func answerFirst(questions []*dataset.Question, n int) *fakeCaller {
	answers := make(map[string]string, len(questions))
	for i, q := range questions {
		if i < n {
			answers[q.Text] = q.ExpectedAnswer
		} else {
			answers[q.Text] = "definitely not it"
		}
	}
	return &fakeCaller{answers: answers}
}

func TestStageGatePassesAtThreshold(t *testing.T) {
	questions := makeQuestions("standard", 5)
	call := answerFirst(questions, 3) // 3/5 = 60%
	store := inmemory.NewManager()
	stages := []Stage{
		{Name: "smoke", SampleSize: 5, PassThresholdPct: 60},
		{Name: "quick", SampleSize: 5, PassThresholdPct: 60},
	}

	ctrl, err := NewController("standard", stages, call, &fakeDataset{pipeline: "standard", questions: questions}, store)
	require.NoError(t, err)
	outcome, err := ctrl.Run(context.Background(), runcontext.New())
	require.NoError(t, err)

	assert.Equal(t, status.PipelineStatusAllStagesComplete, outcome.Status)
	assert.Equal(t, -1, outcome.BlockedAt)
	require.Len(t, outcome.StageResults, 2)
	assert.InDelta(t, 60.0, outcome.StageResults[0].AccuracyPct, 1e-9)
	assert.True(t, outcome.StageResults[0].Passed)
}

func TestStageGateBlocksBelowThreshold(t *testing.T) {
	questions := makeQuestions("standard", 5)
	call := answerFirst(questions, 3) // 3/5 = 60% < 65%
	store := inmemory.NewManager()
	stages := []Stage{
		{Name: "smoke", SampleSize: 5, PassThresholdPct: 65},
		{Name: "quick", SampleSize: 5, PassThresholdPct: 65},
	}

	ctrl, err := NewController("standard", stages, call, &fakeDataset{pipeline: "standard", questions: questions}, store)
	require.NoError(t, err)
	outcome, err := ctrl.Run(context.Background(), runcontext.New())
	require.NoError(t, err)

	assert.Equal(t, status.PipelineStatusBlocked, outcome.Status)
	assert.Equal(t, 0, outcome.BlockedAt)
	require.Len(t, outcome.StageResults, 1)
	assert.False(t, outcome.StageResults[0].Passed)
	// No stage-2 question was dispatched.
	assert.Len(t, call.calls, 5)
}

func TestRunAllStagesAdvancesPastFailedGate(t *testing.T) {
	questions := makeQuestions("standard", 5)
	call := answerFirst(questions, 0) // everything wrong
	store := inmemory.NewManager()
	stages := []Stage{
		{Name: "smoke", SampleSize: 5, PassThresholdPct: 60},
		{Name: "quick", SampleSize: 5, PassThresholdPct: 60},
	}

	ctrl, err := NewController("standard", stages, call,
		&fakeDataset{pipeline: "standard", questions: questions}, store,
		WithRunAllStages(true))
	require.NoError(t, err)
	outcome, err := ctrl.Run(context.Background(), runcontext.New())
	require.NoError(t, err)

	assert.Equal(t, status.PipelineStatusBlocked, outcome.Status)
	assert.Equal(t, 0, outcome.BlockedAt)
	// Both stages ran despite the first gate failing.
	require.Len(t, outcome.StageResults, 2)
	assert.Len(t, call.calls, 10)
}

func TestErrorCountsAsFailure(t *testing.T) {
	questions := makeQuestions("standard", 4)
	// Answer two correctly; leave two out of the table so they time out.
	answers := map[string]string{
		questions[0].Text: questions[0].ExpectedAnswer,
		questions[1].Text: questions[1].ExpectedAnswer,
	}
	call := &fakeCaller{answers: answers}
	store := inmemory.NewManager()
	stages := []Stage{{Name: "smoke", SampleSize: 4, PassThresholdPct: 60}}

	ctrl, err := NewController("standard", stages, call, &fakeDataset{pipeline: "standard", questions: questions}, store)
	require.NoError(t, err)
	outcome, err := ctrl.Run(context.Background(), runcontext.New())
	require.NoError(t, err)

	require.Len(t, outcome.StageResults, 1)
	result := outcome.StageResults[0]
	assert.Equal(t, 4, result.Tested)
	assert.Equal(t, 2, result.Correct)
	assert.Equal(t, 2, result.Errors)
	assert.InDelta(t, 50.0, result.AccuracyPct, 1e-9)
	assert.False(t, result.Passed)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	pipeline := state.Pipeline("standard")
	require.NotNil(t, pipeline)
	erroredRun := pipeline.Questions[questions[2].ID].Latest()
	require.NotNil(t, erroredRun)
	assert.False(t, erroredRun.Correct)
	assert.Equal(t, string(caller.ErrorKindTimeout), erroredRun.ErrorKind)
}

func TestSelectionPrefersUntestedThenOldest(t *testing.T) {
	questions := makeQuestions("standard", 4)
	store := inmemory.NewManager()
	ctx := context.Background()

	// Pre-record runs for q-000 and q-001 so they count as tested; q-001
	// was tested more recently than q-000.
	for _, id := range []string{questions[0].ID, questions[1].ID} {
		_, err := store.Record(ctx, &resultstore.Run{
			QuestionID: id,
			Pipeline:   "standard",
			Correct:    true,
		})
		require.NoError(t, err)
	}

	state, err := store.Load(ctx)
	require.NoError(t, err)
	selected := selectQuestions(questions, state.Pipeline("standard"), 3)

	require.Len(t, selected, 3)
	// Untested questions first, then the oldest-tested backfill.
	assert.Equal(t, questions[2].ID, selected[0].ID)
	assert.Equal(t, questions[3].ID, selected[1].ID)
	assert.Equal(t, questions[0].ID, selected[2].ID)
}

func TestSelectionCapsAtAvailableQuestions(t *testing.T) {
	questions := makeQuestions("standard", 2)
	selected := selectQuestions(questions, nil, 10)
	assert.Len(t, selected, 2)
}

func TestStartStageSkipsEarlierTiers(t *testing.T) {
	questions := makeQuestions("standard", 5)
	call := answerFirst(questions, 5)
	store := inmemory.NewManager()
	stages := []Stage{
		{Name: "smoke", SampleSize: 5, PassThresholdPct: 60},
		{Name: "quick", SampleSize: 5, PassThresholdPct: 60},
	}

	ctrl, err := NewController("standard", stages, call,
		&fakeDataset{pipeline: "standard", questions: questions}, store,
		WithStartStage(1))
	require.NoError(t, err)
	outcome, err := ctrl.Run(context.Background(), runcontext.New())
	require.NoError(t, err)

	require.Len(t, outcome.StageResults, 1)
	assert.Equal(t, "quick", outcome.StageResults[0].StageName)
}

func TestCallbacksRunAroundStage(t *testing.T) {
	questions := makeQuestions("standard", 2)
	call := answerFirst(questions, 2)
	store := inmemory.NewManager()
	stages := []Stage{{Name: "smoke", SampleSize: 2, PassThresholdPct: 50}}

	var events []string
	callbacks := NewCallbacks().
		RegisterBeforeStage("recorder", func(ctx context.Context, args *BeforeStageArgs) error {
			events = append(events, "before:"+args.Stage.Name)
			return nil
		}).
		RegisterAfterStage("recorder", func(ctx context.Context, args *AfterStageArgs) error {
			events = append(events, fmt.Sprintf("after:%s:%v", args.Stage.Name, args.Result.Passed))
			return nil
		})

	ctrl, err := NewController("standard", stages, call,
		&fakeDataset{pipeline: "standard", questions: questions}, store,
		WithCallbacks(callbacks))
	require.NoError(t, err)
	_, err = ctrl.Run(context.Background(), runcontext.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"before:smoke", "after:smoke:true"}, events)
}

func TestCallbackPanicDoesNotAbortRun(t *testing.T) {
	questions := makeQuestions("standard", 2)
	call := answerFirst(questions, 2)
	store := inmemory.NewManager()
	stages := []Stage{{Name: "smoke", SampleSize: 2, PassThresholdPct: 50}}

	callbacks := NewCallbacks().RegisterAfterStage("panicky", func(ctx context.Context, args *AfterStageArgs) error {
		panic("diagnostics exploded")
	})

	ctrl, err := NewController("standard", stages, call,
		&fakeDataset{pipeline: "standard", questions: questions}, store,
		WithCallbacks(callbacks))
	require.NoError(t, err)
	outcome, err := ctrl.Run(context.Background(), runcontext.New())
	require.NoError(t, err)
	assert.Equal(t, status.PipelineStatusAllStagesComplete, outcome.Status)
}

func TestDefaultLadder(t *testing.T) {
	ladder := DefaultLadder(80)
	require.NoError(t, ValidateLadder(ladder))
	require.Len(t, ladder, 3)
	assert.Equal(t, StageSmoke, ladder[0].Name)
	assert.Equal(t, 5, ladder[0].SampleSize)
	assert.InDelta(t, 60.0, ladder[0].PassThresholdPct, 1e-9)
	assert.InDelta(t, 80.0, ladder[2].PassThresholdPct, 1e-9)
}

func TestNewControllerValidation(t *testing.T) {
	questions := makeQuestions("standard", 1)
	call := answerFirst(questions, 1)
	store := inmemory.NewManager()
	data := &fakeDataset{pipeline: "standard", questions: questions}
	stages := DefaultLadder(80)

	_, err := NewController("", stages, call, data, store)
	require.Error(t, err)
	_, err = NewController("standard", nil, call, data, store)
	require.Error(t, err)
	_, err = NewController("standard", stages, nil, data, store)
	require.Error(t, err)
	_, err = NewController("standard", stages, call, data, store, WithStartStage(7))
	require.Error(t, err)
}
