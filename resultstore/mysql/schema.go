//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	// tableNameRuns is the base table name for recorded runs.
	tableNameRuns = "ragmark_runs"
	// tableNameStageResults is the base table name for stage outcome summaries.
	tableNameStageResults = "ragmark_stage_results"
)

// tables holds fully qualified table names with the configured prefix applied.
type tables struct {
	Runs         string
	StageResults string
}

// buildTables applies the prefix to the base table names.
func buildTables(prefix string) tables {
	return tables{
		Runs:         prefix + tableNameRuns,
		StageResults: prefix + tableNameStageResults,
	}
}

const sqlCreateRunsTable = `CREATE TABLE IF NOT EXISTS %s (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  pipeline VARCHAR(128) NOT NULL,
  question_id VARCHAR(255) NOT NULL,
  sequence BIGINT NOT NULL,
  run_id VARCHAR(64) NOT NULL DEFAULT '',
  ts TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  produced_answer MEDIUMTEXT,
  latency_ms BIGINT NOT NULL DEFAULT 0,
  http_status INT NULL,
  error_kind VARCHAR(32) NOT NULL DEFAULT '',
  correct TINYINT(1) NOT NULL DEFAULT 0,
  score DOUBLE NOT NULL DEFAULT 0,
  method VARCHAR(16) NOT NULL DEFAULT '',
  overlap DOUBLE NOT NULL DEFAULT 0,
  PRIMARY KEY (id),
  UNIQUE KEY uniq_runs_pipeline_sequence (pipeline, sequence),
  KEY idx_runs_pipeline_question (pipeline, question_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const sqlCreateStageResultsTable = `CREATE TABLE IF NOT EXISTS %s (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  pipeline VARCHAR(128) NOT NULL,
  stage_name VARCHAR(128) NOT NULL,
  tested INT NOT NULL DEFAULT 0,
  correct INT NOT NULL DEFAULT 0,
  errors INT NOT NULL DEFAULT 0,
  accuracy_pct DOUBLE NOT NULL DEFAULT 0,
  passed TINYINT(1) NOT NULL DEFAULT 0,
  ts TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  run_id VARCHAR(64) NOT NULL DEFAULT '',
  PRIMARY KEY (id),
  KEY idx_stage_results_pipeline (pipeline, id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// ensureSchema creates the evaluation tables when they do not exist.
func ensureSchema(ctx context.Context, db *sql.DB, t tables) error {
	statements := []struct {
		table    string
		template string
	}{
		{t.Runs, sqlCreateRunsTable},
		{t.StageResults, sqlCreateStageResultsTable},
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, fmt.Sprintf(stmt.template, stmt.table)); err != nil {
			return fmt.Errorf("create table %s: %w", stmt.table, err)
		}
	}
	return nil
}
