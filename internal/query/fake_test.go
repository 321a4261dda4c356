// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package query

import (
	"context"
	"fmt"

	"onoffice/cli/internal/crm"
)

// fakeRepo records every builder call made against it.
type fakeRepo struct {
	calls   []string
	records []crm.Record
	found   *crm.Record
	err     error
	queries int
}

func (r *fakeRepo) Query() crm.Query {
	r.queries++
	return &fakeQuery{repo: r}
}

type fakeQuery struct {
	repo *fakeRepo
}

func (q *fakeQuery) record(format string, args ...any) {
	q.repo.calls = append(q.repo.calls, fmt.Sprintf(format, args...))
}

func (q *fakeQuery) Select(fields ...string) crm.Query {
	q.record("select %v", fields)
	return q
}

func (q *fakeQuery) Where(field, operator string, value any) crm.Query {
	q.record("where %s %s %#v", field, operator, value)
	return q
}

func (q *fakeQuery) OrderBy(field string) crm.Query {
	q.record("orderBy %s", field)
	return q
}

func (q *fakeQuery) OrderByDesc(field string) crm.Query {
	q.record("orderByDesc %s", field)
	return q
}

func (q *fakeQuery) Limit(n int) crm.Query {
	q.record("limit %d", n)
	return q
}

func (q *fakeQuery) Offset(n int) crm.Query {
	q.record("offset %d", n)
	return q
}

func (q *fakeQuery) Get(ctx context.Context) ([]crm.Record, error) {
	q.record("get")
	return q.repo.records, q.repo.err
}

func (q *fakeQuery) Find(ctx context.Context, id int64) (*crm.Record, error) {
	q.record("find %d", id)
	return q.repo.found, q.repo.err
}

type fakeFields struct {
	module  string
	records []crm.Record
	err     error
}

func (f *fakeFields) FieldMetadata(ctx context.Context, module string) ([]crm.Record, error) {
	f.module = module
	return f.records, f.err
}
