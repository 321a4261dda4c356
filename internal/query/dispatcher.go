// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package query builds and executes CRM queries for the search, get and fields
// commands. Inputs are validated before any capability call is made.
package query

import (
	"context"

	"github.com/rs/zerolog"

	"onoffice/cli/internal/crm"
	clierrors "onoffice/cli/internal/errors"
	"onoffice/cli/internal/registry"
	"onoffice/cli/internal/where"
)

// Options are the structured parameters of a search.
type Options struct {
	Select      []string
	Where       []where.Clause
	OrderBy     string
	OrderByDesc string
	Limit       *int
	Offset      *int
}

// SearchMeta accompanies search results. Total is the size of the returned
// page, not a server-side count.
type SearchMeta struct {
	Total  int    `json:"total"`
	Limit  *int   `json:"limit"`
	Offset int    `json:"offset"`
	Entity string `json:"entity"`
}

// SearchResult is the outcome of Search.
type SearchResult struct {
	Records []crm.Record
	Meta    SearchMeta
}

// RecordMeta accompanies a single record.
type RecordMeta struct {
	Entity string `json:"entity"`
}

// GetResult is the outcome of Get.
type GetResult struct {
	Record crm.Record
	Meta   RecordMeta
}

// Dispatcher routes validated requests to the capability resolved from the
// entity registry.
type Dispatcher struct {
	registry *registry.Registry
	fields   crm.FieldSource
	modules  map[string]string
	log      zerolog.Logger
}

// New creates a dispatcher. modules maps entity names to field-metadata modules.
func New(reg *registry.Registry, fields crm.FieldSource, modules map[string]string, log zerolog.Logger) *Dispatcher {
	normalized := make(map[string]string, len(modules))
	for name, module := range modules {
		normalized[registry.Normalize(name)] = module
	}
	return &Dispatcher{
		registry: reg,
		fields:   fields,
		modules:  normalized,
		log:      log,
	}
}

// Search validates opts, applies them to a fresh query for entity and executes it.
func (d *Dispatcher) Search(ctx context.Context, entity string, opts Options) (*SearchResult, error) {
	repo, err := d.registry.Resolve(entity)
	if err != nil {
		return nil, err
	}
	if opts.Limit != nil && *opts.Limit < 1 {
		return nil, clierrors.New(clierrors.Validation, "Limit must be a positive integer")
	}
	if opts.Offset != nil && *opts.Offset < 0 {
		return nil, clierrors.New(clierrors.Validation, "Offset must be a non-negative integer")
	}

	name := registry.Normalize(entity)
	q := repo.Query()

	if len(opts.Select) > 0 {
		q = q.Select(opts.Select...)
	}
	for _, c := range opts.Where {
		q = q.Where(c.Field, string(c.Operator), c.Value.Any())
	}
	if opts.OrderBy != "" {
		q = q.OrderBy(opts.OrderBy)
	}
	if opts.OrderByDesc != "" {
		q = q.OrderByDesc(opts.OrderByDesc)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	d.log.Debug().
		Str("entity", name).
		Strs("select", opts.Select).
		Int("clauses", len(opts.Where)).
		Msg("executing search")

	records, err := q.Get(ctx)
	if err != nil {
		return nil, unclassified(err)
	}
	if records == nil {
		records = []crm.Record{}
	}

	meta := SearchMeta{
		Total:  len(records),
		Limit:  opts.Limit,
		Entity: name,
	}
	if opts.Offset != nil {
		meta.Offset = *opts.Offset
	}

	return &SearchResult{Records: records, Meta: meta}, nil
}

// Get fetches a single record of entity by its numeric id.
func (d *Dispatcher) Get(ctx context.Context, entity, id string, selects []string) (*GetResult, error) {
	repo, err := d.registry.Resolve(entity)
	if err != nil {
		return nil, err
	}
	n, ok := where.ParseID(id)
	if !ok {
		return nil, clierrors.Newf(clierrors.Validation, "ID must be numeric, got '%s'", id)
	}

	name := registry.Normalize(entity)
	q := repo.Query()
	if len(selects) > 0 {
		q = q.Select(selects...)
	}

	d.log.Debug().Str("entity", name).Int64("id", n).Msg("fetching record")

	rec, err := q.Find(ctx, n)
	if err != nil {
		return nil, unclassified(err)
	}
	if rec == nil {
		return nil, clierrors.RecordNotFound(name, n)
	}

	return &GetResult{Record: *rec, Meta: RecordMeta{Entity: name}}, nil
}

// unclassified tags adapter failures that carry no kind of their own.
func unclassified(err error) error {
	if _, ok := clierrors.As(err); ok {
		return err
	}
	return clierrors.Wrap(clierrors.Unclassified, "CRM request failed", err)
}
