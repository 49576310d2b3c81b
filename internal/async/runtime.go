// Copyright (c) 2025 Vladimer Grigalashvili
// SPDX-License-Identifier: MIT

// Package async runs background tasks and reports failures nobody consumed.
package async

import (
	"context"
	"slices"
	"sync"
	"time"
)

const (
	defaultGracePeriod = time.Second
	minCheckInterval   = 100 * time.Millisecond
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithGracePeriod sets how long a settled task may stay unconsumed before Check reports it.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Runtime) {
		r.grace = d
	}
}

// WithWarningHandler replaces the default zerolog warning output.
func WithWarningHandler(fn func(Warning)) Option {
	return func(r *Runtime) {
		r.warn = fn
	}
}

// Runtime tracks tasks started with Go until their outcome has been checked.
type Runtime struct {
	grace time.Duration
	warn  func(Warning)

	mu       sync.Mutex
	warnings Warnings
	handlers []func(reason any)
	pending  []*Task

	wg sync.WaitGroup
}

var (
	defaultRuntime     *Runtime
	defaultRuntimeOnce sync.Once
)

// Default returns the process-wide runtime.
func Default() *Runtime {
	defaultRuntimeOnce.Do(func() {
		defaultRuntime = New()
	})
	return defaultRuntime
}

func New(opts ...Option) *Runtime {
	r := &Runtime{
		grace:    defaultGracePeriod,
		warn:     logWarning,
		warnings: DefaultWarnings(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configure replaces the enabled warning categories.
func (r *Runtime) Configure(w Warnings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = w
}

// OnUnhandledRejection adds a listener for rejected tasks whose outcome was never consumed.
// Listeners cannot be removed.
func (r *Runtime) OnUnhandledRejection(handler func(reason any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handler)
}

// Go starts fn on a new goroutine. A returned error or a panic rejects the task.
func (r *Runtime) Go(ctx context.Context, fn Func) *Task {
	t := newTask()

	r.mu.Lock()
	r.pending = append(r.pending, t)
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t.run(ctx, fn)

		if t.rejected {
			if _, ok := t.reason.(error); !ok {
				r.emit(Warning{Kind: NonErrorRejection, TaskID: t.id, Value: t.reason})
			}
		}
	}()

	return t
}

// Check reports every task settled for at least the grace period and not yet checked.
func (r *Runtime) Check() {
	r.check(time.Now(), r.grace)
}

// Run calls Check periodically until ctx is done.
func (r *Runtime) Run(ctx context.Context) {
	interval := max(r.grace, minCheckInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Check()
		}
	}
}

// Drain waits for every started task and checks all of them.
// It must not run concurrently with Go.
func (r *Runtime) Drain(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-finished:
	}

	r.check(time.Now(), 0)
	return nil
}

func (r *Runtime) check(now time.Time, grace time.Duration) {
	r.mu.Lock()
	var due []*Task
	remaining := make([]*Task, 0, len(r.pending))
	for _, t := range r.pending {
		if t.settled() && now.Sub(t.settledAt) >= grace {
			due = append(due, t)
			continue
		}
		remaining = append(remaining, t)
	}
	r.pending = remaining
	handlers := slices.Clone(r.handlers)
	r.mu.Unlock()

	for _, t := range due {
		if t.consumed.Load() {
			continue
		}

		if t.rejected {
			for _, handler := range handlers {
				handler(t.reason)
			}
			continue
		}

		if t.value != nil {
			r.emit(Warning{Kind: ForgottenReturn, TaskID: t.id, Value: t.value})
		}
	}
}

func (r *Runtime) emit(w Warning) {
	r.mu.Lock()
	enabled := r.warnings.enabled(w.Kind)
	r.mu.Unlock()

	if enabled && r.warn != nil {
		r.warn(w)
	}
}
