//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package local provides a local file implementation of dataset.Manager.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"trpc.group/trpc-go/trpc-ragmark-go/dataset"
)

// manager implements dataset.Manager backed by a single JSON file mapping
// pipeline name to an ordered question list.
type manager struct {
	mu   sync.RWMutex
	path string
	sets map[string][]*dataset.Question
}

// New creates a local file dataset manager for the given path.
func New(path string) (dataset.Manager, error) {
	if path == "" {
		return nil, errors.New("dataset path is empty")
	}
	return &manager{path: path}, nil
}

// Get returns the ordered questions for the given pipeline.
func (m *manager) Get(_ context.Context, pipeline string) ([]*dataset.Question, error) {
	if pipeline == "" {
		return nil, errors.New("pipeline is empty")
	}
	sets, err := m.load()
	if err != nil {
		return nil, err
	}
	questions, ok := sets[pipeline]
	if !ok {
		return nil, fmt.Errorf("pipeline %s not present in dataset %s", pipeline, m.path)
	}
	return questions, nil
}

// List returns the pipeline names present in the dataset, sorted.
func (m *manager) List(_ context.Context) ([]string, error) {
	sets, err := m.load()
	if err != nil {
		return nil, err
	}
	pipelines := make([]string, 0, len(sets))
	for pipeline := range sets {
		pipelines = append(pipelines, pipeline)
	}
	sort.Strings(pipelines)
	return pipelines, nil
}

// Close implements dataset.Manager.
func (m *manager) Close() error {
	return nil
}

// load reads and validates the dataset file, caching the parsed content.
func (m *manager) load() (map[string][]*dataset.Question, error) {
	m.mu.RLock()
	sets := m.sets
	m.mu.RUnlock()
	if sets != nil {
		return sets, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets != nil {
		return m.sets, nil
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", m.path, err)
	}
	parsed := make(map[string][]*dataset.Question)
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", m.path, err)
	}
	for pipeline, questions := range parsed {
		seen := make(map[string]struct{}, len(questions))
		for i, question := range questions {
			if question == nil {
				return nil, fmt.Errorf("dataset %s: pipeline %s question %d is null", m.path, pipeline, i)
			}
			if question.ID == "" {
				return nil, fmt.Errorf("dataset %s: pipeline %s question %d has no id", m.path, pipeline, i)
			}
			if question.Text == "" {
				return nil, fmt.Errorf("dataset %s: pipeline %s question %s has no text", m.path, pipeline, question.ID)
			}
			if _, dup := seen[question.ID]; dup {
				return nil, fmt.Errorf("dataset %s: pipeline %s has duplicate question id %s", m.path, pipeline, question.ID)
			}
			seen[question.ID] = struct{}{}
			question.Pipeline = pipeline
		}
	}
	m.sets = parsed
	return m.sets, nil
}
