// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package onoffice

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"onoffice/cli/internal/crm"
)

type repository struct {
	client   *Client
	resource string
}

func (r *repository) Query() crm.Query {
	return &builder{client: r.client, resource: r.resource}
}

type condition struct {
	Op  string `json:"op"`
	Val any    `json:"val"`
}

type sortField struct {
	field     string
	direction string
}

// sortBy keeps insertion order when encoded as a JSON object.
type sortBy []sortField

func (s sortBy) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.field)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(strconv.Quote(f.direction))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// builder accumulates read parameters for one resource.
type builder struct {
	client   *Client
	resource string

	fields []string
	filter map[string][]condition
	sort   sortBy
	limit  *int
	offset *int
}

func (b *builder) Select(fields ...string) crm.Query {
	b.fields = append(b.fields, fields...)
	return b
}

func (b *builder) Where(field, operator string, value any) crm.Query {
	if b.filter == nil {
		b.filter = make(map[string][]condition)
	}
	b.filter[field] = append(b.filter[field], condition{Op: operator, Val: value})
	return b
}

func (b *builder) OrderBy(field string) crm.Query {
	b.sort = append(b.sort, sortField{field: field, direction: "ASC"})
	return b
}

func (b *builder) OrderByDesc(field string) crm.Query {
	b.sort = append(b.sort, sortField{field: field, direction: "DESC"})
	return b
}

func (b *builder) Limit(n int) crm.Query {
	b.limit = &n
	return b
}

func (b *builder) Offset(n int) crm.Query {
	b.offset = &n
	return b
}

// parameters renders the read parameters of the query.
func (b *builder) parameters() map[string]any {
	params := map[string]any{}
	if len(b.fields) > 0 {
		params["data"] = b.fields
	}
	if len(b.filter) > 0 {
		params["filter"] = b.filter
	}
	if len(b.sort) > 0 {
		params["sortby"] = b.sort
	}
	if b.limit != nil {
		params["listlimit"] = *b.limit
	}
	if b.offset != nil {
		params["listoffset"] = *b.offset
	}
	b.client.addClaim(params)
	return params
}

func (b *builder) Get(ctx context.Context) ([]crm.Record, error) {
	records, err := b.client.execute(ctx, ActionRead, b.resource, "", b.parameters())
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []crm.Record{}
	}
	return records, nil
}

func (b *builder) Find(ctx context.Context, id int64) (*crm.Record, error) {
	records, err := b.client.execute(ctx, ActionRead, b.resource, strconv.FormatInt(id, 10), b.parameters())
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}
