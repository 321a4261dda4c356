// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package crm defines the capability contract the CLI consumes from the CRM
// adapter. Implementations may call the real API or provide fakes for tests.
package crm

import "context"

// Repository is the capability handle for one entity type.
type Repository interface {
	// Query starts a new query against the repository's resource.
	Query() Query
}

// Query builds and executes a read against one resource. Builder methods
// return the receiver so calls can be chained.
type Query interface {
	Select(fields ...string) Query
	Where(field, operator string, value any) Query
	OrderBy(field string) Query
	OrderByDesc(field string) Query
	Limit(n int) Query
	Offset(n int) Query

	// Get executes the query and returns the matching records.
	Get(ctx context.Context) ([]Record, error)
	// Find fetches a single record by id. A missing record yields (nil, nil).
	Find(ctx context.Context, id int64) (*Record, error)
}

// FieldSource returns the raw field metadata for a module. Each record's
// elements map field names to attribute maps (type, length, permittedvalues,
// default, ...).
type FieldSource interface {
	FieldMetadata(ctx context.Context, module string) ([]Record, error)
}
