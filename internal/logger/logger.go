// Copyright (c) 2025 Vladimer Grigalashvili
// SPDX-License-Identifier: MIT

// Package logger is the application-wide log facade.
// It picks the console sink from the mode flags and normalizes error logging.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/vgrigalashvili/logfacade/internal/async"
	"github.com/vgrigalashvili/logfacade/internal/config"
)

// FullErrorKey is the context field that receives the original error.
const FullErrorKey = "fullError"

// Option configures New.
type Option func(*options)

type options struct {
	out  io.Writer
	sink Sink
}

// WithOutput sets where the console sink writes. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithSink replaces the console sink whenever the mode flags call for one.
func WithSink(s Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// Logger forwards records to at most one sink, chosen once at construction.
type Logger struct {
	sink Sink
}

// observedRuntimes holds every runtime that already has a rejection observer.
var observedRuntimes sync.Map

func New(cfg config.Config, opts ...Option) *Logger {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	l := &Logger{}
	if !consoleEnabled(cfg) {
		return l
	}

	l.sink = o.sink
	if l.sink == nil {
		l.sink = NewConsoleSink(o.out, ConsoleOptions{Colorize: true, PrettyPrint: true})
	}
	return l
}

// Init builds the Logger and installs it as the unhandled-rejection observer of rt.
func Init(cfg config.Config, rt *async.Runtime, opts ...Option) *Logger {
	l := New(cfg, opts...)
	l.Observe(rt)
	return l
}

func consoleEnabled(cfg config.Config) bool {
	switch {
	case cfg.IsProd:
		return cfg.ConsoleInProd()
	case cfg.IsTest:
		return false
	default:
		return true
	}
}

// Sinks returns the names of the attached sinks.
func (l *Logger) Sinks() []string {
	if l.sink == nil {
		return nil
	}
	return []string{l.sink.Name()}
}

// Info forwards the record unchanged.
func (l *Logger) Info(msg string, data Fields, extra ...any) {
	defer l.absorb()
	l.forward(InfoLevel, msg, data, extra)
}

// Error logs v at error level.
//
// When v is an error the message becomes its stack trace (or its text) and the
// original error is stored under FullErrorKey in data, which is modified in place.
// An existing FullErrorKey is left untouched, whatever its value. Any other v is forwarded as is.
func (l *Logger) Error(v any, data Fields, extra ...any) {
	defer l.absorb()

	err, ok := v.(error)
	if !ok {
		l.forward(ErrorLevel, v, data, extra)
		return
	}

	if data == nil {
		data = Fields{}
	}
	if _, set := data[FullErrorKey]; !set {
		data[FullErrorKey] = err
	}
	l.forward(ErrorLevel, describe(err), data, extra)
}

// Observe configures rt and logs every rejection it reports through Error.
// A runtime gets a single observer: once any Logger observes rt, later calls
// for the same rt have no effect.
func (l *Logger) Observe(rt *async.Runtime) {
	if _, loaded := observedRuntimes.LoadOrStore(rt, struct{}{}); loaded {
		return
	}

	warnings := async.DefaultWarnings()
	warnings.ForgottenReturn = false
	rt.Configure(warnings)

	rt.OnUnhandledRejection(func(reason any) {
		l.Error(reason, nil)
	})
}

func (l *Logger) forward(level Level, msg any, data Fields, extra []any) {
	if l == nil || l.sink == nil {
		return
	}
	l.sink.Log(level, msg, data, extra)
}

func (l *Logger) absorb() {
	if rec := recover(); rec != nil {
		fmt.Fprintf(os.Stderr, "logger: dropped record: %v\n", rec)
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// describe prefers the stack trace, then the message, then the error type.
// Errors whose methods panic, such as typed nil pointers, fall back to the type.
func describe(err error) (text string) {
	defer func() {
		if recover() != nil {
			text = fmt.Sprintf("%T", err)
		}
	}()

	var tracer stackTracer
	if errors.As(err, &tracer) {
		return fmt.Sprintf("%s%+v", err.Error(), tracer.StackTrace())
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fmt.Sprintf("%T", err)
}
