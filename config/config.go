//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads the evaluation harness configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/trpc-ragmark-go/stage"
)

// Store backend kinds.
const (
	StoreKindLocal  = "local"
	StoreKindMemory = "memory"
	StoreKindMySQL  = "mysql"
)

const (
	defaultOverallTargetPct = 70.0
	defaultPipelineTarget   = 70.0
)

// Duration wraps time.Duration so YAML values like "30s" decode directly.
type Duration time.Duration

// UnmarshalYAML decodes a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Pipeline configures one RAG pipeline under test.
type Pipeline struct {
	// Endpoint is the pipeline's HTTP URL.
	Endpoint string `yaml:"endpoint"`
	// TargetPct is the accuracy the pipeline must reach at its final stage.
	TargetPct float64 `yaml:"target_pct"`
	// Metadata carries routing fields merged into every request body,
	// such as the tenant id and sampling flags.
	Metadata map[string]any `yaml:"metadata,omitempty"`
	// QuestionField overrides the request body field carrying the question.
	QuestionField string `yaml:"question_field,omitempty"`
	// AnswerFields overrides the ordered response paths searched for the answer.
	AnswerFields []string `yaml:"answer_fields,omitempty"`
}

// Caller tunes the endpoint caller.
type Caller struct {
	// Timeout bounds each call attempt.
	Timeout Duration `yaml:"timeout,omitempty"`
	// LatencyCeiling reclassifies slower successes as timeouts.
	LatencyCeiling Duration `yaml:"latency_ceiling,omitempty"`
	// MaxAttempts is the total attempt budget per question.
	MaxAttempts int `yaml:"max_attempts,omitempty"`
	// BackoffBase is the first retry delay.
	BackoffBase Duration `yaml:"backoff_base,omitempty"`
	// BackoffCap bounds the retry delay.
	BackoffCap Duration `yaml:"backoff_cap,omitempty"`
}

// Store selects and configures the result store backend.
type Store struct {
	// Kind is local, memory or mysql.
	Kind string `yaml:"kind,omitempty"`
	// Path is the state file path for the local backend.
	Path string `yaml:"path,omitempty"`
	// DSN is the MySQL data source name for the mysql backend.
	DSN string `yaml:"dsn,omitempty"`
	// TablePrefix prefixes the mysql table names.
	TablePrefix string `yaml:"table_prefix,omitempty"`
}

// Config is the root harness configuration.
type Config struct {
	// Dataset is the path of the question corpus file.
	Dataset string `yaml:"dataset"`
	// Pipelines maps pipeline name to its configuration.
	Pipelines map[string]Pipeline `yaml:"pipelines"`
	// Stages overrides the default stage ladder. The final stage's zero
	// threshold is replaced per pipeline by its target.
	Stages []stage.Stage `yaml:"stages,omitempty"`
	// OverallTargetPct is the mean-accuracy gate across pipelines.
	OverallTargetPct float64 `yaml:"overall_target_pct,omitempty"`
	// Caller tunes timeouts and retries.
	Caller Caller `yaml:"caller,omitempty"`
	// Store selects the result store backend.
	Store Store `yaml:"store,omitempty"`
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.OverallTargetPct == 0 {
		c.OverallTargetPct = defaultOverallTargetPct
	}
	if c.Store.Kind == "" {
		c.Store.Kind = StoreKindLocal
	}
	for name, p := range c.Pipelines {
		if p.TargetPct == 0 {
			p.TargetPct = defaultPipelineTarget
			c.Pipelines[name] = p
		}
	}
}

// Validate checks the configuration is runnable.
func (c *Config) Validate() error {
	if len(c.Pipelines) == 0 {
		return errors.New("config has no pipelines")
	}
	for name, p := range c.Pipelines {
		if name == "" {
			return errors.New("pipeline name is empty")
		}
		if p.Endpoint == "" {
			return fmt.Errorf("pipeline %s has no endpoint", name)
		}
		if p.TargetPct < 0 || p.TargetPct > 100 {
			return fmt.Errorf("pipeline %s target must be within [0, 100], got %v", name, p.TargetPct)
		}
	}
	if c.OverallTargetPct < 0 || c.OverallTargetPct > 100 {
		return fmt.Errorf("overall target must be within [0, 100], got %v", c.OverallTargetPct)
	}
	if len(c.Stages) > 0 {
		if err := stage.ValidateLadder(c.StagesFor(defaultPipelineTarget)); err != nil {
			return err
		}
	}
	switch c.Store.Kind {
	case StoreKindLocal, StoreKindMemory:
	case StoreKindMySQL:
		if c.Store.DSN == "" {
			return errors.New("mysql store requires a dsn")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	return nil
}

// StagesFor returns the stage ladder for a pipeline with the given target.
// A configured ladder is used as-is, except a final stage with a zero
// threshold inherits the pipeline's target; otherwise the default ladder
// applies.
func (c *Config) StagesFor(targetPct float64) []stage.Stage {
	if len(c.Stages) == 0 {
		return stage.DefaultLadder(targetPct)
	}
	ladder := make([]stage.Stage, len(c.Stages))
	copy(ladder, c.Stages)
	last := len(ladder) - 1
	if ladder[last].PassThresholdPct == 0 {
		ladder[last].PassThresholdPct = targetPct
	}
	return ladder
}
