// Copyright (c) 2025 Vladimer Grigalashvili
// SPDX-License-Identifier: MIT

package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

const consoleSinkName = "console"

type Level int8

const (
	InfoLevel Level = iota
	ErrorLevel
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Fields is the additional-context mapping passed alongside a log message.
type Fields map[string]any

// Sink receives log records from the Logger.
type Sink interface {
	Name() string
	Log(level Level, msg any, data Fields, extra []any)
}

// ConsoleOptions mirrors the console transport settings.
type ConsoleOptions struct {
	// Colorize colors the level indicators. Only applies with PrettyPrint.
	Colorize bool
	// PrettyPrint writes human-readable lines instead of JSON.
	PrettyPrint bool
}

type consoleSink struct {
	log zerolog.Logger
}

// NewConsoleSink builds a zerolog-backed sink writing to out.
func NewConsoleSink(out io.Writer, opts ConsoleOptions) Sink {
	w := out
	if opts.PrettyPrint {
		w = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    !opts.Colorize,
			TimeFormat: time.RFC3339,
		}
	}

	return &consoleSink{
		log: zerolog.New(w).With().Timestamp().Logger(),
	}
}

func (s *consoleSink) Name() string {
	return consoleSinkName
}

func (s *consoleSink) Log(level Level, msg any, data Fields, extra []any) {
	event := s.log.WithLevel(level.zerolog())
	if len(data) > 0 {
		event = event.Fields(map[string]any(data))
	}
	if len(extra) > 0 {
		event = event.Interface("extra", extra)
	}

	if text, ok := msg.(string); ok {
		event.Msg(text)
		return
	}
	event.Interface("value", msg).Send()
}
