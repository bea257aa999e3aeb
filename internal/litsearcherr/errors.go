// Package litsearcherr defines the error-kind taxonomy shared across the
// search pipeline engine, matching the seven kinds in the system design:
// InvalidInput, NotFound, Upstream, Transient, Cancelled, Conflict, Internal.
package litsearcherr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the seven design-level buckets.
type Kind string

const (
	InvalidInput Kind = "invalid_input"
	NotFound     Kind = "not_found"
	Upstream     Kind = "upstream"
	Transient    Kind = "transient"
	Cancelled    Kind = "cancelled"
	Conflict     Kind = "conflict"
	Internal     Kind = "internal"
)

// Error wraps an underlying cause with a Kind and optional source/context
// fields so callers can branch on Kind without string matching.
type Error struct {
	Kind    Kind
	Source  string // e.g. adapter name, empty if not source-specific
	Status  int    // last HTTP status observed, 0 if not applicable
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Source)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a plain Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WrapSource builds a source-attributed Error (used by adapters/gateway).
func WrapSource(kind Kind, source, message string, status int, err error) *Error {
	return &Error{Kind: kind, Source: source, Status: status, Message: message, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, defaulting to Internal if err is not a
// *Error (an untyped error escaping the design's taxonomy is itself a defect,
// but callers at the tool-facade boundary still need a single kind to surface).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
