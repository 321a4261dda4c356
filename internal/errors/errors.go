// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure surfaced by the CLI carries a machine-readable Kind and an
// HTTP-status-like code so the top-level command handler can turn it into an
// exit code and an error payload without inspecting message text.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// UnknownEntity indicates an entity name that is not in the registry.
	UnknownEntity Kind = "unknown_entity"
	// Validation indicates malformed user input (id, limit, offset, entity for fields).
	Validation Kind = "validation"
	// Parse indicates a where clause that could not be parsed. It is a validation error.
	Parse Kind = "parse"
	// NotFound indicates that the requested record or field does not exist.
	NotFound Kind = "not_found"
	// Unclassified covers any failure surfaced by the CRM adapter or transport.
	Unclassified Kind = "unclassified"
)

// Code returns the HTTP-like status code for the kind.
func (k Kind) Code() int {
	switch k {
	case UnknownEntity, Validation, Parse:
		return 400
	case NotFound:
		return 404
	default:
		return 500
	}
}

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error

	// Entity and Available are set for UnknownEntity errors.
	Entity    string
	Available []string
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *E) Unwrap() error { return e.Err }

// Code returns the HTTP-like status code of the error.
func (e *E) Code() int { return e.Kind.Code() }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// UnknownEntityError reports an entity name that is not registered.
func UnknownEntityError(entity string, available []string) *E {
	return &E{
		Kind:      UnknownEntity,
		Message:   fmt.Sprintf("Unknown entity '%s'. Available: %s", entity, strings.Join(available, ", ")),
		Entity:    entity,
		Available: available,
	}
}

// RecordNotFound reports a missing record for an entity.
func RecordNotFound(entity string, id any) *E {
	return Newf(NotFound, "Record not found: %s #%v", entity, id)
}

// As returns the first *E in err's chain.
func As(err error) (*E, bool) {
	var e *E
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, Unclassified for foreign errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Unclassified
}

// CodeOf returns the status code for err. Errors that are not *E map to 500.
func CodeOf(err error) int {
	return KindOf(err).Code()
}

// IsKind reports whether err carries the given kind.
// Parse errors also report as Validation.
func IsKind(err error, kind Kind) bool {
	k := KindOf(err)
	if k == kind {
		return true
	}
	return kind == Validation && k == Parse
}
