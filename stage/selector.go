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
	"sort"

	"trpc.group/trpc-go/trpc-ragmark-go/dataset"
	"trpc.group/trpc-go/trpc-ragmark-go/resultstore"
)

// selectQuestions picks up to n questions for a stage. Untested questions
// come first, in dataset order, to maximize coverage; if fewer than n
// remain, previously tested questions backfill, oldest last-run first.
func selectQuestions(questions []*dataset.Question, state *resultstore.PipelineState, n int) []*dataset.Question {
	if n <= 0 {
		return nil
	}
	var untested, tested []*dataset.Question
	for _, q := range questions {
		if lastSequence(state, q.ID) < 0 {
			untested = append(untested, q)
		} else {
			tested = append(tested, q)
		}
	}
	sort.SliceStable(tested, func(i, j int) bool {
		return lastSequence(state, tested[i].ID) < lastSequence(state, tested[j].ID)
	})
	selected := make([]*dataset.Question, 0, n)
	selected = append(selected, untested...)
	selected = append(selected, tested...)
	if len(selected) > n {
		selected = selected[:n]
	}
	return selected
}

// lastSequence returns the sequence of the question's most recent run, or
// -1 when the question has never been tested.
func lastSequence(state *resultstore.PipelineState, questionID string) int64 {
	if state == nil {
		return -1
	}
	record, ok := state.Questions[questionID]
	if !ok {
		return -1
	}
	latest := record.Latest()
	if latest == nil {
		return -1
	}
	return latest.Sequence
}
