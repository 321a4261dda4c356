// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"onoffice/cli/internal/crm"
	"onoffice/cli/internal/query"
)

// MaxCellWidth is the rune limit of a record table cell.
const MaxCellWidth = 50

// maxPermittedValues is how many permitted values a field table row lists.
const maxPermittedValues = 3

func (f *Formatter) renderHuman(data, meta any) error {
	var b strings.Builder
	var err error

	switch v := data.(type) {
	case []crm.Record:
		err = renderRecords(&b, v)
	case crm.Record:
		renderRecord(&b, v)
	case *crm.Record:
		renderRecord(&b, *v)
	case []query.FieldSummary:
		err = renderFieldSummaries(&b, v, meta)
	case []query.FieldDescriptor:
		err = renderFieldDescriptors(&b, v, meta)
	case query.FieldDescriptor:
		renderField(&b, v)
	case []EntityInfo:
		err = renderEntities(&b, v)
	default:
		return f.printJSON(data)
	}
	if err != nil {
		return err
	}

	_, err = io.WriteString(f.Writer, b.String())
	return err
}

func renderRecords(b *strings.Builder, records []crm.Record) error {
	if len(records) == 0 {
		b.WriteString("No results found.\n")
		return nil
	}

	fmt.Fprintf(b, "Found %d record(s)\n\n", len(records))

	keys := sortedKeys(records[0].Elements)
	header := append([]string{"ID"}, keys...)
	rows := pterm.TableData{header}
	for _, rec := range records {
		row := make([]string, 0, len(header))
		row = append(row, recordID(rec))
		for _, k := range keys {
			row = append(row, Truncate(Cell(rec.Elements[k]), MaxCellWidth))
		}
		rows = append(rows, row)
	}
	return writeTable(b, rows)
}

func renderRecord(b *strings.Builder, rec crm.Record) {
	fmt.Fprintf(b, "Record ID: %s\n\n", recordID(rec))
	for _, k := range sortedKeys(rec.Elements) {
		fmt.Fprintf(b, "  %s: %s\n", k, Cell(rec.Elements[k]))
	}
}

func renderFieldSummaries(b *strings.Builder, fields []query.FieldSummary, meta any) error {
	if len(fields) == 0 {
		b.WriteString("No fields found.\n")
		return nil
	}
	writeFieldsHeading(b, meta, len(fields))

	rows := pterm.TableData{{"Name", "Type"}}
	for _, field := range fields {
		rows = append(rows, []string{field.Name, orDash(field.Type)})
	}
	return writeTable(b, rows)
}

func renderFieldDescriptors(b *strings.Builder, fields []query.FieldDescriptor, meta any) error {
	if len(fields) == 0 {
		b.WriteString("No fields found.\n")
		return nil
	}
	writeFieldsHeading(b, meta, len(fields))

	rows := pterm.TableData{{"Name", "Type", "Length", "Default", "Permitted Values"}}
	for _, field := range fields {
		rows = append(rows, []string{
			field.Name,
			orDash(field.Type),
			orDash(field.Length),
			orDash(field.Default),
			PermittedValues(field.PermittedValues, maxPermittedValues),
		})
	}
	return writeTable(b, rows)
}

func renderField(b *strings.Builder, field query.FieldDescriptor) {
	fmt.Fprintf(b, "Field: %s\n\n", field.Name)
	fmt.Fprintf(b, "  type: %s\n", orDash(field.Type))
	fmt.Fprintf(b, "  length: %s\n", orDash(field.Length))
	fmt.Fprintf(b, "  default: %s\n", orDash(field.Default))
	fmt.Fprintf(b, "  permitted values: %s\n", PermittedValues(field.PermittedValues, 0))
}

func renderEntities(b *strings.Builder, entities []EntityInfo) error {
	if len(entities) == 0 {
		b.WriteString("No entities configured.\n")
		return nil
	}
	rows := pterm.TableData{{"Entity", "Resource"}}
	for _, e := range entities {
		rows = append(rows, []string{e.Name, e.Resource})
	}
	return writeTable(b, rows)
}

func writeFieldsHeading(b *strings.Builder, meta any, count int) {
	entity := ""
	switch m := meta.(type) {
	case query.FieldsMeta:
		entity = m.Entity
	case *query.FieldsMeta:
		entity = m.Entity
	}
	fmt.Fprintf(b, "Fields for %s (%d total)\n\n", entity, count)
}

func writeTable(b *strings.Builder, rows pterm.TableData) error {
	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	b.WriteString(table)
	b.WriteString("\n")
	return nil
}

func recordID(rec crm.Record) string {
	if rec.ID == "" {
		return "-"
	}
	return string(rec.ID)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Cell formats a value for display. Nested values are JSON-encoded.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case map[string]any, []any:
		raw, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(raw)
	default:
		return fmt.Sprint(x)
	}
}

// Truncate shortens s to max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func orDash(v any) string {
	s := Cell(v)
	if s == "" {
		return "-"
	}
	return s
}

// PermittedValues lists the labels of a permitted-values attribute. Maps are
// listed in key order. When limit is positive and exceeded, only the first
// limit entries are listed, followed by "(+N more)" where N is the total count.
func PermittedValues(v any, limit int) string {
	var labels []string
	switch x := v.(type) {
	case nil:
		return "-"
	case map[string]any:
		for _, k := range sortedKeys(x) {
			labels = append(labels, Cell(x[k]))
		}
	case []any:
		for _, item := range x {
			labels = append(labels, Cell(item))
		}
	default:
		return orDash(x)
	}

	if len(labels) == 0 {
		return "-"
	}
	if limit > 0 && len(labels) > limit {
		return fmt.Sprintf("%s (+%d more)", strings.Join(labels[:limit], ", "), len(labels))
	}
	return strings.Join(labels, ", ")
}
