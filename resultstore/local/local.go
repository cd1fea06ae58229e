//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package local provides a local file implementation of resultstore.Manager.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"trpc.group/trpc-go/trpc-ragmark-go/resultstore"
)

const (
	tempFileSuffix        = ".tmp"
	defaultDirPermission  = 0o755
	defaultFilePermission = 0o644
)

// manager implements resultstore.Manager backed by a single JSON document.
// The mutex makes each record a single critical section; the temp-file plus
// rename write keeps a partially written document unobservable to readers.
type manager struct {
	mu   sync.Mutex
	path string
}

// NewManager creates a local file result store manager.
// Use functional options (see resultstore/option.go) to override the default path.
func NewManager(opt ...resultstore.Option) resultstore.Manager {
	opts := resultstore.NewOptions(opt...)
	return &manager{path: opts.Path}
}

// Record appends a run inside one locked read-modify-write cycle.
func (m *manager) Record(ctx context.Context, run *resultstore.Run) (*resultstore.Run, error) {
	_ = ctx
	if err := run.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	state, err := m.load()
	if err != nil {
		return nil, err
	}
	stored, err := state.ApplyRun(run)
	if err != nil {
		return nil, err
	}
	if err := m.store(state); err != nil {
		return nil, fmt.Errorf("store run %s.%s: %w", run.Pipeline, run.QuestionID, err)
	}
	return stored, nil
}

// RecordStageResult appends a stage result with the same atomicity guarantees.
func (m *manager) RecordStageResult(ctx context.Context, result *resultstore.StageResult) error {
	_ = ctx
	if err := result.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	state, err := m.load()
	if err != nil {
		return err
	}
	if err := state.ApplyStageResult(result); err != nil {
		return err
	}
	if err := m.store(state); err != nil {
		return fmt.Errorf("store stage result %s.%s: %w", result.Pipeline, result.StageName, err)
	}
	return nil
}

// Load returns the full current state, empty if the store file does not exist.
func (m *manager) Load(ctx context.Context) (*resultstore.State, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

// Close implements resultstore.Manager.
func (m *manager) Close() error {
	return nil
}

func (m *manager) load() (*resultstore.State, error) {
	f, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return resultstore.NewState(), nil
		}
		return nil, fmt.Errorf("open state %s: %w", m.path, err)
	}
	defer f.Close()
	state := resultstore.NewState()
	if err := json.NewDecoder(f).Decode(state); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", m.path, err)
	}
	return state, nil
}

func (m *manager) store(state *resultstore.State) error {
	if err := os.MkdirAll(filepath.Dir(m.path), defaultDirPermission); err != nil {
		return err
	}
	tmp := m.path + tempFileSuffix
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFilePermission)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
