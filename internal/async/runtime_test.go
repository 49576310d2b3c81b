// Copyright (c) 2025 Vladimer Grigalashvili
// SPDX-License-Identifier: MIT

package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	reasons  []any
	warnings []Warning
}

func (r *recorder) rejection(reason any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *recorder) warning(w Warning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, w)
}

func (r *recorder) snapshot() ([]any, []Warning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.reasons...), append([]Warning(nil), r.warnings...)
}

func newTestRuntime(t *testing.T, opts ...Option) (*Runtime, *recorder) {
	t.Helper()

	rec := &recorder{}
	rt := New(append([]Option{WithGracePeriod(0), WithWarningHandler(rec.warning)}, opts...)...)
	rt.OnUnhandledRejection(rec.rejection)
	return rt, rec
}

func TestUnhandledRejection(t *testing.T) {
	t.Parallel()

	rt, rec := newTestRuntime(t)
	reason := errors.New("x")

	rt.Go(t.Context(), func(context.Context) (any, error) {
		return nil, reason
	})
	require.NoError(t, rt.Drain(t.Context()))

	reasons, warnings := rec.snapshot()
	require.Len(t, reasons, 1)
	assert.Same(t, reason, reasons[0])
	assert.Empty(t, warnings)

	rt.Check()
	reasons, _ = rec.snapshot()
	assert.Len(t, reasons, 1, "a task is reported only once")
}

func TestConsumedRejectionIsNotReported(t *testing.T) {
	t.Parallel()

	t.Run("wait", func(t *testing.T) {
		t.Parallel()

		rt, rec := newTestRuntime(t)
		reason := errors.New("handled")
		task := rt.Go(t.Context(), func(context.Context) (any, error) {
			return nil, reason
		})

		_, err := task.Wait(t.Context())
		require.ErrorIs(t, err, reason)
		require.NoError(t, rt.Drain(t.Context()))

		reasons, _ := rec.snapshot()
		assert.Empty(t, reasons)
	})

	t.Run("catch", func(t *testing.T) {
		t.Parallel()

		rt, rec := newTestRuntime(t)
		caught := make(chan any, 1)
		task := rt.Go(t.Context(), func(context.Context) (any, error) {
			return nil, errors.New("caught")
		})
		task.Catch(func(reason any) { caught <- reason })

		require.NoError(t, rt.Drain(t.Context()))

		select {
		case reason := <-caught:
			assert.EqualError(t, reason.(error), "caught")
		case <-time.After(time.Second):
			t.Fatal("catch handler was not called")
		}

		reasons, _ := rec.snapshot()
		assert.Empty(t, reasons)
	})
}

func TestPanicRejectsTask(t *testing.T) {
	t.Parallel()

	t.Run("error value", func(t *testing.T) {
		t.Parallel()

		rt, rec := newTestRuntime(t)
		reason := errors.New("panicked")
		rt.Go(t.Context(), func(context.Context) (any, error) {
			panic(reason)
		})
		require.NoError(t, rt.Drain(t.Context()))

		reasons, warnings := rec.snapshot()
		require.Len(t, reasons, 1)
		assert.Same(t, reason, reasons[0])
		assert.Empty(t, warnings)
	})

	t.Run("non-error value", func(t *testing.T) {
		t.Parallel()

		rt, rec := newTestRuntime(t)
		task := rt.Go(t.Context(), func(context.Context) (any, error) {
			panic("boom")
		})
		require.NoError(t, rt.Drain(t.Context()))

		reasons, warnings := rec.snapshot()
		require.Len(t, reasons, 1)
		assert.Equal(t, "boom", reasons[0])
		require.Len(t, warnings, 1)
		assert.Equal(t, NonErrorRejection, warnings[0].Kind)
		assert.Equal(t, task.ID(), warnings[0].TaskID)

		_, err := task.Wait(t.Context())
		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "boom", panicErr.Value)
	})
}

func TestForgottenReturn(t *testing.T) {
	t.Parallel()

	t.Run("reported by default", func(t *testing.T) {
		t.Parallel()

		rt, rec := newTestRuntime(t)
		task := rt.Go(t.Context(), func(context.Context) (any, error) {
			return 42, nil
		})
		require.NoError(t, rt.Drain(t.Context()))

		_, warnings := rec.snapshot()
		require.Len(t, warnings, 1)
		assert.Equal(t, ForgottenReturn, warnings[0].Kind)
		assert.Equal(t, task.ID(), warnings[0].TaskID)
		assert.Equal(t, 42, warnings[0].Value)
	})

	t.Run("suppressed while other warnings stay enabled", func(t *testing.T) {
		t.Parallel()

		rt, rec := newTestRuntime(t)
		warnings := DefaultWarnings()
		warnings.ForgottenReturn = false
		rt.Configure(warnings)

		rt.Go(t.Context(), func(context.Context) (any, error) {
			return 42, nil
		})
		rt.Go(t.Context(), func(context.Context) (any, error) {
			panic("boom")
		})
		require.NoError(t, rt.Drain(t.Context()))

		_, got := rec.snapshot()
		require.Len(t, got, 1)
		assert.Equal(t, NonErrorRejection, got[0].Kind)
	})

	t.Run("waited value is not reported", func(t *testing.T) {
		t.Parallel()

		rt, rec := newTestRuntime(t)
		task := rt.Go(t.Context(), func(context.Context) (any, error) {
			return "value", nil
		})
		value, err := task.Wait(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "value", value)
		require.NoError(t, rt.Drain(t.Context()))

		_, warnings := rec.snapshot()
		assert.Empty(t, warnings)
	})
}

func TestGracePeriod(t *testing.T) {
	t.Parallel()

	rt, rec := newTestRuntime(t, WithGracePeriod(time.Hour))
	task := rt.Go(t.Context(), func(context.Context) (any, error) {
		return nil, errors.New("late")
	})
	<-task.Done()

	rt.Check()
	reasons, _ := rec.snapshot()
	assert.Empty(t, reasons, "task settled less than a grace period ago")

	require.NoError(t, rt.Drain(t.Context()))
	reasons, _ = rec.snapshot()
	assert.Len(t, reasons, 1)
}

func TestWaitHonoursContext(t *testing.T) {
	t.Parallel()

	rt, _ := newTestRuntime(t)
	release := make(chan struct{})
	task := rt.Go(t.Context(), func(context.Context) (any, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := task.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, rt.Drain(t.Context()))
}

func TestDefaultRuntimeIsShared(t *testing.T) {
	t.Parallel()

	assert.Same(t, Default(), Default())
}

func TestWarningKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "forgotten_return", ForgottenReturn.String())
	assert.Equal(t, "non_error_rejection", NonErrorRejection.String())
	assert.Equal(t, "unknown", WarningKind(99).String())
}

func TestRun(t *testing.T) {
	t.Parallel()

	rt, rec := newTestRuntime(t, WithGracePeriod(10*time.Millisecond))
	reason := errors.New("unconsumed")
	rt.Go(t.Context(), func(context.Context) (any, error) {
		return nil, reason
	})

	ctx, cancel := context.WithCancel(t.Context())
	stopped := make(chan struct{})
	go func() {
		rt.Run(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool {
		reasons, _ := rec.snapshot()
		return len(reasons) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// let a few more check intervals pass
	time.Sleep(3 * minCheckInterval)
	reasons, _ := rec.snapshot()
	require.Len(t, reasons, 1)
	assert.Same(t, reason, reasons[0])

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
