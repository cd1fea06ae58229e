//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

package caller

import (
	"net/http"
	"time"
)

const (
	defaultTimeout       = 60 * time.Second
	defaultMaxAttempts   = 4
	defaultBackoffBase   = 2 * time.Second
	defaultBackoffCap    = 30 * time.Second
	defaultQuestionField = "query"
)

// defaultAnswerFields is the ordered list of response field paths tried when
// extracting an answer. New pipelines register additional paths through
// WithAnswerFields instead of branching logic changes.
var defaultAnswerFields = []string{
	"answer",
	"output.answer",
	"response",
	"result",
	"data.answer",
}

// Options configure an HTTP endpoint caller.
type Options struct {
	Timeout        time.Duration
	LatencyCeiling time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffCap     time.Duration
	QuestionField  string
	AnswerFields   []string
	Metadata       map[string]any
	HTTPClient     *http.Client
}

// NewOptions constructs Options with the default values.
func NewOptions(opt ...Option) *Options {
	opts := &Options{
		Timeout:       defaultTimeout,
		MaxAttempts:   defaultMaxAttempts,
		BackoffBase:   defaultBackoffBase,
		BackoffCap:    defaultBackoffCap,
		QuestionField: defaultQuestionField,
		AnswerFields:  defaultAnswerFields,
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures Options.
type Option func(*Options)

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithLatencyCeiling sets a hard latency ceiling above which a nominally
// successful call is reclassified as a timeout. Zero means the request
// timeout is the only deadline.
func WithLatencyCeiling(ceiling time.Duration) Option {
	return func(o *Options) {
		o.LatencyCeiling = ceiling
	}
}

// WithMaxAttempts sets the retry budget, counting the first attempt.
func WithMaxAttempts(attempts int) Option {
	return func(o *Options) {
		o.MaxAttempts = attempts
	}
}

// WithBackoff sets the exponential backoff base interval and cap.
func WithBackoff(base, cap time.Duration) Option {
	return func(o *Options) {
		o.BackoffBase = base
		o.BackoffCap = cap
	}
}

// WithQuestionField overrides the JSON field name carrying the question text.
func WithQuestionField(field string) Option {
	return func(o *Options) {
		o.QuestionField = field
	}
}

// WithAnswerFields overrides the ordered response field paths tried during
// answer extraction.
func WithAnswerFields(fields ...string) Option {
	return func(o *Options) {
		o.AnswerFields = fields
	}
}

// WithMetadata attaches pipeline-routing metadata (tenant scoping, sampling
// flags) to every request body.
func WithMetadata(metadata map[string]any) Option {
	return func(o *Options) {
		o.Metadata = metadata
	}
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = client
	}
}
