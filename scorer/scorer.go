//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package scorer provides deterministic answer scoring for pipeline evaluation.
package scorer

import "strings"

// Method identifies how a produced answer was matched against the expected one.
type Method string

const (
	// MethodExact indicates the normalized strings matched exactly.
	MethodExact Method = "exact"
	// MethodPartial indicates substring containment in either direction.
	// A partial match is a soft signal for analytics and never counts as correct.
	MethodPartial Method = "partial"
	// MethodNone indicates no match.
	MethodNone Method = "none"
	// MethodError indicates the answer could not be produced at all.
	// The scorer never assigns it; callers record it on the error path.
	MethodError Method = "error"
)

// minAnswerLength is the minimum normalized length accepted when no expected
// answer is configured for a question.
const minAnswerLength = 2

// Result is the verdict for one produced/expected answer pair.
type Result struct {
	// Correct reports whether the answer passes.
	Correct bool `json:"correct"`
	// Method identifies the matching method that produced this verdict.
	Method Method `json:"method"`
	// F1 is the score in [0, 1] counted toward stage accuracy.
	F1 float64 `json:"f1"`
	// Overlap is the continuous token-overlap F-measure, kept for analytics
	// independently of the pass/fail verdict.
	Overlap float64 `json:"overlap"`
}

// Score compares a produced answer against the expected answer.
// It is deterministic and side-effect free.
func Score(produced, expected string) Result {
	normProduced := Normalize(produced)
	normExpected := Normalize(expected)
	overlap := tokenOverlapF1(Tokenize(produced), Tokenize(expected))
	// No expected answer configured: any substantive answer counts. This is
	// the "got something" check for quantitative pipelines whose expected
	// values are not pre-computed.
	if normExpected == "" {
		if len(normProduced) >= minAnswerLength {
			return Result{Correct: true, Method: MethodExact, F1: 1.0, Overlap: overlap}
		}
		return Result{Correct: false, Method: MethodNone, F1: 0.0, Overlap: overlap}
	}
	if normProduced == normExpected {
		return Result{Correct: true, Method: MethodExact, F1: 1.0, Overlap: overlap}
	}
	if normProduced != "" &&
		(strings.Contains(normProduced, normExpected) || strings.Contains(normExpected, normProduced)) {
		return Result{Correct: false, Method: MethodPartial, F1: 0.5, Overlap: overlap}
	}
	return Result{Correct: false, Method: MethodNone, F1: 0.0, Overlap: overlap}
}
