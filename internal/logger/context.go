// Copyright (c) 2025 Vladimer Grigalashvili
// SPDX-License-Identifier: MIT

package logger

import (
	"context"
)

// nullLogger has no sink and discards every record.
var nullLogger = &Logger{}

// Unexported new type so that our context key never collides with another.
type contextKeyType struct{}

var contextKey = contextKeyType{}

// WithContext returns a new context carrying l.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey, l)
}

// FromContext returns the stored logger, or one without sinks if none is found.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey).(*Logger); ok && l != nil {
			return l
		}
	}
	return nullLogger
}
