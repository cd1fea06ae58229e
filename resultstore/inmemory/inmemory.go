//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory implementation of resultstore.Manager.
package inmemory

import (
	"context"
	"sync"

	"trpc.group/trpc-go/trpc-ragmark-go/resultstore"
)

// manager implements resultstore.Manager with process-local state. It is
// intended for tests and embedded use; nothing is durable.
type manager struct {
	mu    sync.Mutex
	state *resultstore.State
}

// NewManager creates an in-memory result store manager.
func NewManager() resultstore.Manager {
	return &manager{state: resultstore.NewState()}
}

// Record appends a run under the manager lock.
func (m *manager) Record(ctx context.Context, run *resultstore.Run) (*resultstore.Run, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ApplyRun(run)
}

// RecordStageResult appends a stage result under the manager lock.
func (m *manager) RecordStageResult(ctx context.Context, result *resultstore.StageResult) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ApplyStageResult(result)
}

// Load returns a deep copy so callers can never mutate shared state.
func (m *manager) Load(ctx context.Context) (*resultstore.State, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Close implements resultstore.Manager.
func (m *manager) Close() error {
	return nil
}
