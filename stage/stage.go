//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package stage runs one pipeline through its ordered evaluation stages,
// gating advancement on per-stage accuracy thresholds.
package stage

import (
	"errors"
	"fmt"
)

// Default ladder stage names.
const (
	// StageSmoke is the first, smallest gate.
	StageSmoke = "smoke"
	// StageQuick is the intermediate gate.
	StageQuick = "quick"
	// StageFull is the final gate at the pipeline's target accuracy.
	StageFull = "full"
)

// Stage is one tier of the evaluation ladder for a pipeline.
type Stage struct {
	// Name identifies the stage tier.
	Name string `json:"name" yaml:"name"`
	// SampleSize is the number of questions dispatched for the stage.
	SampleSize int `json:"sampleSize" yaml:"sample_size"`
	// PassThresholdPct is the accuracy percentage required to advance.
	PassThresholdPct float64 `json:"passThresholdPct" yaml:"pass_threshold_pct"`
}

// Validate checks that the stage is runnable.
func (s Stage) Validate() error {
	if s.Name == "" {
		return errors.New("stage name is empty")
	}
	if s.SampleSize <= 0 {
		return fmt.Errorf("stage %s sample size must be positive, got %d", s.Name, s.SampleSize)
	}
	if s.PassThresholdPct < 0 || s.PassThresholdPct > 100 {
		return fmt.Errorf("stage %s threshold must be within [0, 100], got %v", s.Name, s.PassThresholdPct)
	}
	return nil
}

// DefaultLadder returns the standard three-tier ladder. The final stage
// gates at the pipeline's own target accuracy.
func DefaultLadder(targetPct float64) []Stage {
	return []Stage{
		{Name: StageSmoke, SampleSize: 5, PassThresholdPct: 60},
		{Name: StageQuick, SampleSize: 10, PassThresholdPct: 65},
		{Name: StageFull, SampleSize: 50, PassThresholdPct: targetPct},
	}
}

// ValidateLadder checks that the ladder is non-empty and each stage is
// runnable.
func ValidateLadder(stages []Stage) error {
	if len(stages) == 0 {
		return errors.New("stage ladder is empty")
	}
	for _, s := range stages {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
