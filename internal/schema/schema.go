package schema

import "strings"

// Row is one source record, positionally aligned to its Header. Rows may be
// shorter than the header; use Cell for bounds-safe access.
type Row []string

// Cell returns the trimmed value at idx, or "" when the row is ragged.
func (r Row) Cell(idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[idx])
}

// RawCell returns the untrimmed value at idx, or "" when the row is ragged.
func (r Row) RawCell(idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return r[idx]
}

// Header is the ordered column-name schema of one source file. Lookups are
// case-insensitive and alias-tolerant: column names vary across exports, so
// every logical column is resolved through an ordered candidate list.
type Header struct {
	columns    []string
	normalized map[string]int
}

// NewHeader builds a Header from the raw column names as they appear in the
// source. When the same normalized name occurs twice the first occurrence
// wins, matching positional semantics.
func NewHeader(columns []string) Header {
	normalized := make(map[string]int, len(columns))
	for i, col := range columns {
		key := strings.ToLower(strings.TrimSpace(col))
		if _, exists := normalized[key]; !exists {
			normalized[key] = i
		}
	}
	return Header{columns: columns, normalized: normalized}
}

// Columns returns the column names in source order.
func (h Header) Columns() []string {
	return h.columns
}

// Len returns the number of columns.
func (h Header) Len() int {
	return len(h.columns)
}

// Index resolves the first matching candidate to its column position.
// Candidates are tried in order; the first one present wins.
func (h Header) Index(candidates ...string) (int, bool) {
	for _, cand := range candidates {
		if idx, ok := h.normalized[strings.ToLower(strings.TrimSpace(cand))]; ok {
			return idx, true
		}
	}
	return 0, false
}
