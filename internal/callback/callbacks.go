//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package callback runs registered diagnostic callbacks with panic recovery,
// so a misbehaving hook can fail its invocation but never crash an
// evaluation worker.
package callback

import (
	"context"
	"fmt"
	"runtime/debug"

	"trpc.group/trpc-go/trpc-ragmark-go/log"
)

// Named binds a callback function with a component name for diagnostics.
type Named[T any] struct {
	// Name is the component name for the callback.
	Name string
	// Callback is the callback function.
	Callback T
}

func wrapCallbackError(point string, idx int, name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s callback[%d] (%s): %w", point, idx, name, err)
}

func callWithRecovery[Args any, CallbackFn ~func(context.Context, *Args) error](
	ctx context.Context,
	point string,
	idx int,
	name string,
	callback CallbackFn,
	args *Args,
) (err error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		stack := debug.Stack()
		log.Errorf("%s (callback: %s, idx: %d): %v\n%s", point, name, idx, recovered, string(stack))
		err = fmt.Errorf("callback panic: %v", recovered)
	}()
	return callback(ctx, args)
}

// Run invokes each callback in registration order. A callback error or panic
// stops the chain and is returned wrapped with the failing callback's name.
func Run[Args any, CallbackFn ~func(context.Context, *Args) error](
	ctx context.Context,
	point string,
	callbacks []Named[CallbackFn],
	args *Args,
) error {
	for idx, named := range callbacks {
		if err := callWithRecovery(ctx, point, idx, named.Name, named.Callback, args); err != nil {
			return wrapCallbackError(point, idx, named.Name, err)
		}
	}
	return nil
}
