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
	"database/sql"
	"time"
)

const defaultInitTimeout = 10 * time.Second

// options configure the MySQL-backed result store manager.
type options struct {
	dsn         string
	db          *sql.DB
	tablePrefix string
	skipDBInit  bool
	initTimeout time.Duration
}

func newOptions(opt ...Option) *options {
	opts := &options{
		initTimeout: defaultInitTimeout,
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures the MySQL result store manager.
type Option func(*options)

// WithDSN sets the MySQL data source name used to open the connection.
func WithDSN(dsn string) Option {
	return func(o *options) {
		o.dsn = dsn
	}
}

// WithDB injects an existing database handle instead of opening one from the
// DSN. The manager takes ownership and closes it on Close.
func WithDB(db *sql.DB) Option {
	return func(o *options) {
		o.db = db
	}
}

// WithTablePrefix prefixes the evaluation table names.
func WithTablePrefix(prefix string) Option {
	return func(o *options) {
		o.tablePrefix = prefix
	}
}

// WithSkipDBInit skips the schema bootstrap on construction.
func WithSkipDBInit(skip bool) Option {
	return func(o *options) {
		o.skipDBInit = skip
	}
}

// WithInitTimeout bounds the schema bootstrap on construction.
func WithInitTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.initTimeout = timeout
	}
}
