//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

package runcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeneratesUniqueRunID(t *testing.T) {
	first := New()
	second := New()
	require.NotEmpty(t, first.RunID)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.False(t, first.StartTime.IsZero())
}

func TestWithRunID(t *testing.T) {
	rc := New(WithRunID("session-42"))
	assert.Equal(t, "session-42", rc.RunID)
}

func TestWithLabel(t *testing.T) {
	rc := New(WithLabel("dataset", "golden"), WithLabel("operator", "ci"))
	assert.Equal(t, "golden", rc.Labels["dataset"])
	assert.Equal(t, "ci", rc.Labels["operator"])
}
