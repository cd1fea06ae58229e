//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

package callback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testArgs struct {
	Pipeline string
}

type testCallback func(context.Context, *testArgs) error

func TestRunInvokesInOrder(t *testing.T) {
	var order []string
	callbacks := []Named[testCallback]{
		{Name: "first", Callback: func(ctx context.Context, args *testArgs) error {
			order = append(order, "first:"+args.Pipeline)
			return nil
		}},
		{Name: "second", Callback: func(ctx context.Context, args *testArgs) error {
			order = append(order, "second:"+args.Pipeline)
			return nil
		}},
	}
	err := Run(context.Background(), "AfterStage", callbacks, &testArgs{Pipeline: "qa"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:qa", "second:qa"}, order)
}

func TestRunWrapsError(t *testing.T) {
	sentinel := errors.New("hook failed")
	callbacks := []Named[testCallback]{
		{Name: "broken", Callback: func(ctx context.Context, args *testArgs) error {
			return sentinel
		}},
		{Name: "unreached", Callback: func(ctx context.Context, args *testArgs) error {
			t.Fatal("must not run after a failing callback")
			return nil
		}},
	}
	err := Run(context.Background(), "AfterStage", callbacks, &testArgs{})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "broken")
}

func TestRunRecoversPanic(t *testing.T) {
	callbacks := []Named[testCallback]{
		{Name: "panicky", Callback: func(ctx context.Context, args *testArgs) error {
			panic("boom")
		}},
	}
	err := Run(context.Background(), "AfterStage", callbacks, &testArgs{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "callback panic")
}

func TestRunEmpty(t *testing.T) {
	assert.NoError(t, Run(context.Background(), "AfterStage", []Named[testCallback](nil), &testArgs{}))
}
