// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package crm

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Record is a single entity record as returned by the CRM.
type Record struct {
	ID       RecordID       `json:"id"`
	Type     string         `json:"type,omitempty"`
	Elements map[string]any `json:"elements"`
}

// RecordID holds a record identifier that may arrive as a JSON number or a
// JSON string. Identifiers in canonical integer form are written back as
// numbers; everything else, including "007" and "+5", stays a string.
type RecordID string

func (id RecordID) String() string { return string(id) }

func (id RecordID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *RecordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = RecordID(n.String())
	return nil
}
