// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package query

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"onoffice/cli/internal/crm"
	clierrors "onoffice/cli/internal/errors"
	"onoffice/cli/internal/registry"
)

// FieldDescriptor describes one field of a module.
type FieldDescriptor struct {
	Name            string `json:"name"`
	Type            any    `json:"type"`
	Length          any    `json:"length"`
	PermittedValues any    `json:"permittedValues"`
	Default         any    `json:"default"`
}

// FieldSummary is the compact projection of a FieldDescriptor.
type FieldSummary struct {
	Name string `json:"name"`
	Type any    `json:"type"`
}

// FieldsOptions control the fields lookup.
type FieldsOptions struct {
	// Filter selects fields by name: a case-insensitive substring, or a
	// wildcard pattern when it contains '*'.
	Filter string
	// Field requests a single field by name.
	Field string
	// Full returns complete descriptors instead of summaries.
	Full bool
}

// FieldsMeta accompanies fields results. Count is omitted for single-field lookups.
type FieldsMeta struct {
	Entity string `json:"entity"`
	Module string `json:"module"`
	Count  *int   `json:"count,omitempty"`
}

// FieldsResult is the outcome of Fields. Data holds a FieldDescriptor,
// a []FieldDescriptor or a []FieldSummary.
type FieldsResult struct {
	Data any
	Meta FieldsMeta
}

// FieldEntities returns the entities field lookups are available for, sorted.
func (d *Dispatcher) FieldEntities() []string {
	names := make([]string, 0, len(d.modules))
	for name := range d.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fields lists the fields of an entity's module.
func (d *Dispatcher) Fields(ctx context.Context, entity string, opts FieldsOptions) (*FieldsResult, error) {
	name := registry.Normalize(entity)
	module, ok := d.modules[name]
	if !ok {
		return nil, clierrors.Newf(clierrors.Validation,
			"Fields are not available for '%s'. Supported: %s", name, strings.Join(d.FieldEntities(), ", "))
	}

	d.log.Debug().Str("entity", name).Str("module", module).Msg("fetching field metadata")

	raw, err := d.fields.FieldMetadata(ctx, module)
	if err != nil {
		return nil, unclassified(err)
	}
	fields := FlattenFields(raw)

	if opts.Field != "" {
		f, ok := LookupField(fields, opts.Field)
		if !ok {
			return nil, clierrors.Newf(clierrors.NotFound, "Field '%s' not found for %s", opts.Field, name)
		}
		return &FieldsResult{Data: f, Meta: FieldsMeta{Entity: name, Module: module}}, nil
	}

	if opts.Filter != "" {
		fields, err = FilterFields(fields, opts.Filter)
		if err != nil {
			return nil, err
		}
	}

	count := len(fields)
	meta := FieldsMeta{Entity: name, Module: module, Count: &count}
	if opts.Full {
		return &FieldsResult{Data: fields, Meta: meta}, nil
	}

	compact := make([]FieldSummary, len(fields))
	for i, f := range fields {
		compact[i] = FieldSummary{Name: f.Name, Type: f.Type}
	}
	return &FieldsResult{Data: compact, Meta: meta}, nil
}

// FlattenFields turns module → field → attributes records into descriptors
// sorted by name. Elements that are not attribute maps are skipped.
func FlattenFields(records []crm.Record) []FieldDescriptor {
	out := make([]FieldDescriptor, 0)
	for _, rec := range records {
		for name, raw := range rec.Elements {
			attrs, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, FieldDescriptor{
				Name:            name,
				Type:            attrs["type"],
				Length:          attrs["length"],
				PermittedValues: attrs["permittedvalues"],
				Default:         attrs["default"],
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupField finds a field by exact name, falling back to a case-insensitive match.
func LookupField(fields []FieldDescriptor, name string) (FieldDescriptor, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// FilterFields keeps the fields whose names match filter.
func FilterFields(fields []FieldDescriptor, filter string) ([]FieldDescriptor, error) {
	out := make([]FieldDescriptor, 0, len(fields))

	if !strings.Contains(filter, "*") {
		needle := strings.ToLower(filter)
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f.Name), needle) {
				out = append(out, f)
			}
		}
		return out, nil
	}

	re, err := wildcardRegexp(filter)
	if err != nil {
		return nil, clierrors.Wrap(clierrors.Validation, fmt.Sprintf("Invalid filter '%s'", filter), err)
	}
	for _, f := range fields {
		if re.MatchString(f.Name) {
			out = append(out, f)
		}
	}
	return out, nil
}

// wildcardRegexp compiles a '*' wildcard pattern into an anchored,
// case-insensitive expression.
func wildcardRegexp(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.Compile("(?i)^" + strings.Join(parts, ".*") + "$")
}
