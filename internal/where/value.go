// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package where

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ValueKind tags the concrete type held by a Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindBool
	KindNull
	KindInt
	KindFloat
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// Value is a typed scalar cast from a where-clause token.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

// String returns a String value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bool returns a Bool value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Null returns the Null value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an Int value.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float returns a Float value.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// Any returns the value as a plain Go value: bool, nil, int64, float64 or string.
func (v Value) Any() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNull:
		return nil
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	default:
		return v.Str
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	default:
		return v.Str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// numericRe follows the usual "is numeric" grammar: optional sign, digits with
// an optional fraction or a bare fraction, optional exponent.
var numericRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// IsNumeric reports whether s is a numeric literal.
func IsNumeric(s string) bool {
	return numericRe.MatchString(s)
}

// CastValue converts a raw token into a typed scalar. It never fails: tokens
// that are neither keywords nor numbers come back as strings, unchanged.
func CastValue(token string) Value {
	switch strings.ToLower(token) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "null":
		return Null()
	}

	if !IsNumeric(token) {
		return String(token)
	}

	if strings.Contains(token, ".") {
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return String(token)
		}
		return Float(f)
	}

	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return Int(i)
	}

	// exponent form or int64 overflow
	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return String(token)
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return Int(int64(f))
	}
	return Float(f)
}

// ParseID converts a numeric token into an integer id, truncating any fraction.
func ParseID(token string) (int64, bool) {
	if !IsNumeric(token) {
		return 0, false
	}
	switch v := CastValue(token); v.Kind {
	case KindInt:
		return v.Int, true
	case KindFloat:
		if math.IsInf(v.Float, 0) || v.Float >= math.MaxInt64 || v.Float < math.MinInt64 {
			return 0, false
		}
		return int64(v.Float), true
	}
	return 0, false
}
