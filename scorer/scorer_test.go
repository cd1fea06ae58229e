//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreExactMatch(t *testing.T) {
	tests := []struct {
		name     string
		produced string
		expected string
	}{
		{"identical", "Tokyo", "Tokyo"},
		{"case insensitive", "Tokyo", "tokyo"},
		{"surrounding whitespace", "  Tokyo  ", "Tokyo"},
		{"thousands separator", "6,745", "6745"},
		{"currency prefix", "$6,745", "6745"},
		{"percent suffix", "85%", "85"},
		{"currency with decimals", "$1,234.50", "1234.50"},
		{"internal whitespace collapsed", "New   York", "New York"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(tt.produced, tt.expected)
			assert.True(t, result.Correct)
			assert.Equal(t, MethodExact, result.Method)
			assert.Equal(t, 1.0, result.F1)
		})
	}
}

func TestScorePartialNeverCorrect(t *testing.T) {
	result := Score("The answer is Tokyo", "Tokyo")
	assert.False(t, result.Correct)
	assert.Equal(t, MethodPartial, result.Method)
	assert.Equal(t, 0.5, result.F1)

	// Containment in the other direction is also partial.
	result = Score("Tokyo", "Tokyo, Japan is the capital")
	assert.False(t, result.Correct)
	assert.Equal(t, MethodPartial, result.Method)
	assert.Equal(t, 0.5, result.F1)
}

func TestScoreNoMatch(t *testing.T) {
	result := Score("Paris", "Tokyo")
	assert.False(t, result.Correct)
	assert.Equal(t, MethodNone, result.Method)
	assert.Equal(t, 0.0, result.F1)
	assert.Equal(t, 0.0, result.Overlap)
}

func TestScoreEmptyExpected(t *testing.T) {
	// Any substantive answer counts when no ground truth is configured.
	result := Score("42 units", "")
	assert.True(t, result.Correct)
	assert.Equal(t, 1.0, result.F1)

	result = Score("", "")
	assert.False(t, result.Correct)
	assert.Equal(t, MethodNone, result.Method)

	// Below the minimum length cutoff.
	result = Score("x", "")
	assert.False(t, result.Correct)
}

func TestScoreEmptyProduced(t *testing.T) {
	result := Score("", "Tokyo")
	assert.False(t, result.Correct)
	assert.Equal(t, MethodNone, result.Method)
	assert.Equal(t, 0.0, result.F1)
}

func TestScoreDeterministic(t *testing.T) {
	first := Score("$6,745", "6745")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score("$6,745", "6745"))
	}
}

func TestScoreOverlapAnalytics(t *testing.T) {
	// Shared tokens without containment still report a nonzero overlap even
	// though the verdict is none.
	result := Score("the capital city Tokyo area", "capital Kyoto Tokyo")
	assert.Equal(t, MethodNone, result.Method)
	assert.False(t, result.Correct)
	assert.Greater(t, result.Overlap, 0.0)
	assert.Less(t, result.Overlap, 1.0)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Tokyo  ", "tokyo"},
		{"$6,745", "6745"},
		{"6,745", "6745"},
		{"85%", "85"},
		{"€ 1,000,000", "1000000"},
		{"revenue was $6,745 total", "revenue was 6745 total"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"tokyo", "japan"}, Tokenize("Tokyo, Japan!"))
	assert.Equal(t, []string{"6745"}, Tokenize("$6,745"))
	assert.Empty(t, Tokenize("  ...  "))
}

func TestTokenOverlapF1(t *testing.T) {
	assert.Equal(t, 1.0, tokenOverlapF1([]string{"a", "b"}, []string{"a", "b"}))
	assert.Equal(t, 0.0, tokenOverlapF1([]string{"a"}, []string{"b"}))
	assert.Equal(t, 0.0, tokenOverlapF1(nil, []string{"b"}))
	// One of two produced tokens matches one of two expected tokens.
	assert.InDelta(t, 0.5, tokenOverlapF1([]string{"a", "x"}, []string{"a", "y"}), 1e-9)
}
