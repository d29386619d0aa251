// Package dataset loads and validates BEIR-style dataset directories:
// corpus.jsonl, queries.jsonl and qrels/<split>.tsv.
package dataset

import (
	"fmt"
	"sort"
	"strconv"
)

// Recognized identifier fields, checked in priority order.
var idKeys = []string{"_id", "id"}

// Recognized text-bearing fields normalized into every record.
var textKeys = []string{"text", "contents", "body", "passage", "question", "query"}

// Ordered candidates for resolving the primary text of a document.
var DocTextFields = []string{"text", "contents", "body", "passage"}

// Ordered candidates for resolving the text of a query.
var QueryTextFields = []string{"text", "question", "query"}

// Record is a single corpus document or query, keyed by its string id.
// Fields holds the recognized text fields plus every field from the
// source object. Records are immutable after load.
type Record struct {
	ID     string
	Fields map[string]any
}

// newRecord builds a Record from a parsed JSON object: recognized text
// fields are populated first, then every original field is overlaid so
// originals always win and are always present.
func newRecord(id string, obj map[string]any) Record {
	fields := make(map[string]any, len(obj))
	for _, k := range textKeys {
		if v, ok := obj[k]; ok {
			fields[k] = v
		}
	}
	for k, v := range obj {
		fields[k] = v
	}
	return Record{ID: id, Fields: fields}
}

// FieldNames returns the record's field names in sorted order.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Title returns the record's title, or the empty string if absent.
func (r Record) Title() string {
	if v, ok := r.Fields["title"].(string); ok {
		return v
	}
	return ""
}

// ResolveText returns the first non-empty string value among the given
// candidate fields, checked in order, or the empty string.
func (r Record) ResolveText(candidates []string) string {
	for _, k := range candidates {
		if v, ok := r.Fields[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Text returns the record's primary document text.
func (r Record) Text() string {
	return r.ResolveText(DocTextFields)
}

// QueryText returns the record's query text.
func (r Record) QueryText() string {
	return r.ResolveText(QueryTextFields)
}

// coerceID converts an identifier value to its string key form. Returns
// an error for values that do not identify a record: nil, empty strings,
// zero numbers and booleans.
func coerceID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", fmt.Errorf("empty id")
		}
		return id, nil
	case float64:
		if id == 0 {
			return "", fmt.Errorf("zero id")
		}
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	case bool:
		return "", fmt.Errorf("boolean id")
	case nil:
		return "", fmt.Errorf("null id")
	default:
		return fmt.Sprintf("%v", id), nil
	}
}
