// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package output renders command results and failures either as JSON
// envelopes or as human-readable text and tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	clierrors "onoffice/cli/internal/errors"
	"onoffice/cli/internal/httperrors"
	"onoffice/cli/internal/logging"
)

// Mode selects how results are rendered.
type Mode int

const (
	// Human renders text and tables.
	Human Mode = iota
	// JSON renders machine-readable envelopes.
	JSON
)

// ModeFor returns JSON when asJSON is set, Human otherwise.
func ModeFor(asJSON bool) Mode {
	if asJSON {
		return JSON
	}
	return Human
}

// Envelope wraps successful JSON output.
type Envelope struct {
	Data any `json:"data"`
	Meta any `json:"meta"`
}

// ErrorPayload is the JSON body of a failure.
type ErrorPayload struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// EntityInfo describes one configured entity for the entities command.
type EntityInfo struct {
	Name     string `json:"name"`
	Resource string `json:"resource"`
}

// EntitiesMeta accompanies the entity list.
type EntitiesMeta struct {
	Count int `json:"count"`
}

// Formatter writes results to Writer and human-mode failures to ErrWriter.
type Formatter struct {
	Mode      Mode
	Writer    io.Writer
	ErrWriter io.Writer
}

// NewFormatter creates a formatter writing results to out and human-mode
// failures to errOut.
func NewFormatter(mode Mode, out, errOut io.Writer) *Formatter {
	return &Formatter{
		Mode:      mode,
		Writer:    out,
		ErrWriter: errOut,
	}
}

// Success renders data with its metadata.
func (f *Formatter) Success(data, meta any) error {
	if f.Mode == JSON {
		return f.printJSON(Envelope{Data: data, Meta: meta})
	}
	return f.renderHuman(data, meta)
}

// Failure renders err. JSON failures go to Writer so scripts can parse them.
func (f *Formatter) Failure(err error) error {
	if err == nil {
		return nil
	}
	payload := Payload(err)
	if f.Mode == JSON {
		return f.printJSON(payload)
	}

	if _, werr := fmt.Fprintf(f.ErrWriter, "Error: %s\n", payload.Message); werr != nil {
		return werr
	}
	if clierrors.KindOf(err) == clierrors.Unclassified {
		if hint := httperrors.Hint(err); hint != "" {
			_, werr := fmt.Fprintf(f.ErrWriter, "\n%s\n", hint)
			return werr
		}
	}
	return nil
}

// Payload returns the JSON failure body for err.
func Payload(err error) ErrorPayload {
	return ErrorPayload{
		Error:   true,
		Message: logging.Mask(err.Error()),
		Code:    clierrors.CodeOf(err),
	}
}

func (f *Formatter) printJSON(v any) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
