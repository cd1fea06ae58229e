//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package dataset provides benchmark questions for pipeline evaluation.
package dataset

import "context"

// Question is one benchmark question addressed to one pipeline.
// Questions are immutable once loaded; everything downstream references
// them by ID.
type Question struct {
	// ID is stable and unique within a pipeline's dataset.
	ID string `json:"id"`
	// Text is the query string sent to the pipeline.
	Text string `json:"text"`
	// ExpectedAnswer is the ground truth. Empty means any substantive
	// answer counts.
	ExpectedAnswer string `json:"expectedAnswer,omitempty"`
	// Pipeline names the pipeline this question targets.
	Pipeline string `json:"pipeline,omitempty"`
}

// Manager defines the interface for loading evaluation questions.
type Manager interface {
	// Get returns the ordered questions for the given pipeline.
	Get(ctx context.Context, pipeline string) ([]*Question, error)
	// List returns the pipeline names present in the dataset.
	List(ctx context.Context) ([]string, error)
	// Close closes the manager and releases owned resources.
	Close() error
}
