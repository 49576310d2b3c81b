// Copyright (c) 2025 Vladimer Grigalashvili
// SPDX-License-Identifier: MIT

package async

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type WarningKind int

const (
	// ForgottenReturn: a task produced a value that nobody waited for.
	ForgottenReturn WarningKind = iota
	// NonErrorRejection: a task was rejected with a value that is not an error.
	NonErrorRejection
)

func (k WarningKind) String() string {
	switch k {
	case ForgottenReturn:
		return "forgotten_return"
	case NonErrorRejection:
		return "non_error_rejection"
	default:
		return "unknown"
	}
}

// Warnings selects which diagnostic categories the runtime reports.
type Warnings struct {
	ForgottenReturn   bool
	NonErrorRejection bool
}

// DefaultWarnings enables every category.
func DefaultWarnings() Warnings {
	return Warnings{
		ForgottenReturn:   true,
		NonErrorRejection: true,
	}
}

func (w Warnings) enabled(kind WarningKind) bool {
	switch kind {
	case ForgottenReturn:
		return w.ForgottenReturn
	case NonErrorRejection:
		return w.NonErrorRejection
	default:
		return false
	}
}

// Warning is a single diagnostic emitted by the runtime.
type Warning struct {
	Kind   WarningKind
	TaskID uuid.UUID
	// Value is the discarded result or the non-error rejection reason.
	Value any
}

func logWarning(w Warning) {
	log.Warn().
		Str("warning", w.Kind.String()).
		Str("task", w.TaskID.String()).
		Interface("value", w.Value).
		Msg("async runtime warning")
}
