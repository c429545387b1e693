// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package inference

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind classifies backend failures.
type ErrorKind int

const (
	KindBackendUnavailable ErrorKind = iota + 1
	KindModelNotFound
	KindStreamInterrupted
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindBackendUnavailable:
		return "backend unavailable"
	case KindModelNotFound:
		return "model not found"
	case KindStreamInterrupted:
		return "stream interrupted"
	default:
		return "unknown"
	}
}

// Error is a backend failure of a known kind.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrBackendUnavailable = &Error{Kind: KindBackendUnavailable}
	ErrModelNotFound      = &Error{Kind: KindModelNotFound}
	ErrStreamInterrupted  = &Error{Kind: KindStreamInterrupted}
)

// Unavailable reports that the backend could not be reached.
func Unavailable(backend string, cause error) error {
	return &Error{Kind: KindBackendUnavailable, Message: backend, Cause: cause}
}

// ModelNotFound reports that the backend does not serve model.
func ModelNotFound(model string, cause error) error {
	return &Error{Kind: KindModelNotFound, Message: fmt.Sprintf("%q", model), Cause: cause}
}

// Interrupted wraps a failure that happened after streaming began. Errors
// that already carry the kind are returned unchanged.
func Interrupted(cause error) error {
	if errors.Is(cause, ErrStreamInterrupted) {
		return cause
	}
	msg := ""
	if errors.Is(cause, context.Canceled) {
		msg = "cancelled"
	}
	return &Error{Kind: KindStreamInterrupted, Message: msg, Cause: cause}
}

// Describe returns a one-line, user-facing explanation of err.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrModelNotFound):
		return "Model not found. Pull it first or choose another with /model."
	case errors.Is(err, ErrBackendUnavailable):
		return "Backend unavailable. Is the model server running?"
	case errors.Is(err, context.Canceled):
		return "Reply cancelled."
	case errors.Is(err, ErrStreamInterrupted):
		return "Reply interrupted: " + err.Error()
	default:
		return err.Error()
	}
}
