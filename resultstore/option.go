//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

package resultstore

import "path/filepath"

const (
	defaultBaseDir   = "ragmark_results"
	defaultStateFile = "state.json"
)

// Options configure the local result store.
type Options struct {
	Path string
}

// NewOptions constructs Options with the default values.
func NewOptions(opt ...Option) *Options {
	opts := &Options{
		Path: filepath.Join(defaultBaseDir, defaultStateFile),
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures Options.
type Option func(*Options)

// WithPath overrides the state document path.
func WithPath(path string) Option {
	return func(o *Options) {
		o.Path = path
	}
}
