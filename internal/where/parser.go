// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package where parses --where filter expressions of the form "field op value"
// into structured clauses with typed values.
//
// Operators are located with an ordered scan: the word operators "not like"
// and "like" only match when surrounded by whitespace, and the two-character
// comparisons are tried before their one-character prefixes.
package where

import (
	"fmt"
	"regexp"
	"strings"

	clierrors "onoffice/cli/internal/errors"
)

// Operator is a comparison operator of a where clause.
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpLessThan       Operator = "<"
	OpGreaterThan    Operator = ">"
	OpLessOrEqual    Operator = "<="
	OpGreaterOrEqual Operator = ">="
	OpLike           Operator = "like"
	OpNotLike        Operator = "not like"
)

// Clause is one parsed filter condition. Clauses of a query are AND-ed.
type Clause struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    Value    `json:"value"`
}

func (c Clause) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Operator, c.Value)
}

type operatorPattern struct {
	re *regexp.Regexp
	op Operator
}

// Order matters: most specific first.
var operatorPatterns = []operatorPattern{
	{regexp.MustCompile(`(?i)\s+not\s+like\s+`), OpNotLike},
	{regexp.MustCompile(`(?i)\s+like\s+`), OpLike},
	{regexp.MustCompile(`!=`), OpNotEqual},
	{regexp.MustCompile(`>=`), OpGreaterOrEqual},
	{regexp.MustCompile(`<=`), OpLessOrEqual},
	{regexp.MustCompile(`>`), OpGreaterThan},
	{regexp.MustCompile(`<`), OpLessThan},
	{regexp.MustCompile(`=`), OpEqual},
}

// Operators lists the supported operators in display order.
func Operators() []Operator {
	return []Operator{OpEqual, OpNotEqual, OpLessThan, OpGreaterThan, OpLessOrEqual, OpGreaterOrEqual, OpLike, OpNotLike}
}

func supportedOperators() string {
	ops := Operators()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}

// Parse splits a clause into field, operator and value.
func Parse(clause string) (Clause, error) {
	clause = strings.TrimSpace(clause)

	for _, p := range operatorPatterns {
		loc := p.re.FindStringIndex(clause)
		if loc == nil {
			continue
		}

		field := strings.TrimSpace(clause[:loc[0]])
		value := strings.TrimSpace(clause[loc[1]:])

		if field == "" {
			return Clause{}, clierrors.Newf(clierrors.Parse, "Invalid where clause '%s': field name is required", clause)
		}
		if value == "" {
			return Clause{}, clierrors.Newf(clierrors.Parse, "Invalid where clause '%s': value is required", clause)
		}

		return Clause{Field: field, Operator: p.op, Value: CastValue(value)}, nil
	}

	return Clause{}, clierrors.Newf(clierrors.Parse,
		"Invalid where clause '%s': no valid operator found. Supported operators: %s", clause, supportedOperators())
}

// ParseMany parses clauses in input order. It stops at the first invalid
// clause and returns no partial result.
func ParseMany(clauses []string) ([]Clause, error) {
	out := make([]Clause, 0, len(clauses))
	for _, c := range clauses {
		parsed, err := Parse(c)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}
