//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package mysql provides a MySQL-backed result store manager.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Register the MySQL driver.
	_ "github.com/go-sql-driver/mysql"

	"trpc.group/trpc-go/trpc-ragmark-go/resultstore"
)

// Manager stores runs and stage results as rows in MySQL. Sequence numbers
// are assigned inside a transaction so concurrent recorders on different
// processes never collide.
type Manager struct {
	db     *sql.DB
	tables tables
}

// assert that Manager implements the resultstore manager interface.
var _ resultstore.Manager = (*Manager)(nil)

// New creates a MySQL-backed result store manager.
func New(opt ...Option) (*Manager, error) {
	opts := newOptions(opt...)
	db := opts.db
	if db == nil {
		if opts.dsn == "" {
			return nil, errors.New("mysql result store requires a dsn or an injected db")
		}
		opened, err := sql.Open("mysql", opts.dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db = opened
	}
	m := &Manager{
		db:     db,
		tables: buildTables(opts.tablePrefix),
	}
	if !opts.skipDBInit {
		ctx, cancel := context.WithTimeout(context.Background(), opts.initTimeout)
		defer cancel()
		if err := ensureSchema(ctx, db, m.tables); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Record appends a run, assigning the next per-pipeline sequence number
// inside a transaction, and returns the stored copy.
func (m *Manager) Record(ctx context.Context, run *resultstore.Run) (*resultstore.Run, error) {
	if err := run.Validate(); err != nil {
		return nil, err
	}
	stored := *run
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now().UTC()
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	nextSequenceQuery := fmt.Sprintf(
		"SELECT COALESCE(MAX(sequence) + 1, 0) FROM %s WHERE pipeline = ? FOR UPDATE",
		m.tables.Runs,
	)
	if err := tx.QueryRowContext(ctx, nextSequenceQuery, stored.Pipeline).Scan(&stored.Sequence); err != nil {
		return nil, fmt.Errorf("next sequence for pipeline %s: %w", stored.Pipeline, err)
	}

	insertQuery := fmt.Sprintf(
		"INSERT INTO %s (pipeline, question_id, sequence, run_id, ts, produced_answer, "+
			"latency_ms, http_status, error_kind, correct, score, method, overlap) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		m.tables.Runs,
	)
	if _, err := tx.ExecContext(ctx, insertQuery,
		stored.Pipeline,
		stored.QuestionID,
		stored.Sequence,
		stored.RunID,
		stored.Timestamp,
		stored.ProducedAnswer,
		stored.LatencyMS,
		stored.HTTPStatus,
		stored.ErrorKind,
		stored.Correct,
		stored.Score,
		stored.Method,
		stored.Overlap,
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run: %w", err)
	}
	return &stored, nil
}

// RecordStageResult appends a stage outcome summary.
func (m *Manager) RecordStageResult(ctx context.Context, result *resultstore.StageResult) error {
	if err := result.Validate(); err != nil {
		return err
	}
	stored := *result
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now().UTC()
	}
	insertQuery := fmt.Sprintf(
		"INSERT INTO %s (pipeline, stage_name, tested, correct, errors, accuracy_pct, "+
			"passed, ts, run_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		m.tables.StageResults,
	)
	if _, err := m.db.ExecContext(ctx, insertQuery,
		stored.Pipeline,
		stored.StageName,
		stored.Tested,
		stored.Correct,
		stored.Errors,
		stored.AccuracyPct,
		stored.Passed,
		stored.Timestamp,
		stored.RunID,
	); err != nil {
		return fmt.Errorf("insert stage result: %w", err)
	}
	return nil
}

// Load reconstructs the full state document from the stored rows.
func (m *Manager) Load(ctx context.Context) (*resultstore.State, error) {
	runs, err := m.loadRuns(ctx)
	if err != nil {
		return nil, err
	}
	stageResults, err := m.loadStageResults(ctx)
	if err != nil {
		return nil, err
	}
	return resultstore.RebuildState(runs, stageResults)
}

func (m *Manager) loadRuns(ctx context.Context) ([]*resultstore.Run, error) {
	query := fmt.Sprintf(
		"SELECT pipeline, question_id, sequence, run_id, ts, produced_answer, "+
			"latency_ms, http_status, error_kind, correct, score, method, overlap "+
			"FROM %s ORDER BY pipeline, sequence",
		m.tables.Runs,
	)
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var runs []*resultstore.Run
	for rows.Next() {
		run := &resultstore.Run{}
		var httpStatus sql.NullInt64
		if err := rows.Scan(
			&run.Pipeline,
			&run.QuestionID,
			&run.Sequence,
			&run.RunID,
			&run.Timestamp,
			&run.ProducedAnswer,
			&run.LatencyMS,
			&httpStatus,
			&run.ErrorKind,
			&run.Correct,
			&run.Score,
			&run.Method,
			&run.Overlap,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if httpStatus.Valid {
			status := int(httpStatus.Int64)
			run.HTTPStatus = &status
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (m *Manager) loadStageResults(ctx context.Context) ([]*resultstore.StageResult, error) {
	query := fmt.Sprintf(
		"SELECT pipeline, stage_name, tested, correct, errors, accuracy_pct, passed, ts, run_id "+
			"FROM %s ORDER BY id",
		m.tables.StageResults,
	)
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query stage results: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var results []*resultstore.StageResult
	for rows.Next() {
		result := &resultstore.StageResult{}
		if err := rows.Scan(
			&result.Pipeline,
			&result.StageName,
			&result.Tested,
			&result.Correct,
			&result.Errors,
			&result.AccuracyPct,
			&result.Passed,
			&result.Timestamp,
			&result.RunID,
		); err != nil {
			return nil, fmt.Errorf("scan stage result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage results: %w", err)
	}
	return results, nil
}

// Close closes the underlying database handle.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}
