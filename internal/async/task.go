// Copyright (c) 2025 Vladimer Grigalashvili
// SPDX-License-Identifier: MIT

package async

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Func is the body of a background task.
type Func func(ctx context.Context) (any, error)

// PanicError is returned by Wait when a task was rejected with a value that is not an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task rejected with non-error value: %v", e.Value)
}

// Task is the handle of a function started with Runtime.Go.
type Task struct {
	id   uuid.UUID
	done chan struct{}

	// written once before done is closed
	value     any
	reason    any
	rejected  bool
	settledAt time.Time

	consumed atomic.Bool
}

func newTask() *Task {
	return &Task{
		id:   uuid.New(),
		done: make(chan struct{}),
	}
}

// ID returns the task identifier used in warnings.
func (t *Task) ID() uuid.UUID {
	return t.id
}

// Done is closed once the task has settled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task settles and consumes its outcome.
func (t *Task) Wait(ctx context.Context) (any, error) {
	t.consumed.Store(true)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
	}

	if !t.rejected {
		return t.value, nil
	}
	if err, ok := t.reason.(error); ok {
		return nil, err
	}
	return nil, &PanicError{Value: t.reason}
}

// Catch consumes the outcome and calls handler with the reason if the task is rejected.
// The handler runs on its own goroutine once the task settles.
func (t *Task) Catch(handler func(reason any)) {
	t.consumed.Store(true)

	go func() {
		<-t.done
		if t.rejected {
			handler(t.reason)
		}
	}()
}

func (t *Task) run(ctx context.Context, fn Func) {
	defer func() {
		if rec := recover(); rec != nil {
			t.rejected = true
			t.reason = rec
		}
		t.settledAt = time.Now()
		close(t.done)
	}()

	value, err := fn(ctx)
	if err != nil {
		t.rejected = true
		t.reason = err
		return
	}
	t.value = value
}

func (t *Task) settled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
