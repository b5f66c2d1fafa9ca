package filter

import (
	"context"
	"iter"

	"regpulse/internal/schema"
)

// Stream is a lazy, forward-only row sequence. Filters transform streams
// without buffering; each filter keeps at most O(1) state.
type Stream = iter.Seq[schema.Row]

// Kind describes how a filter's selection is rendered and encoded.
type Kind string

const (
	KindMultiselect Kind = "multiselect"
	KindNumber      Kind = "number"
	KindGroup       Kind = "group"
	KindCodes       Kind = "codes"
)

// Selection is one filter's decoded constraint. The wire payload is decoded
// into a typed selection once at the request boundary; an inactive selection
// always passes rows through.
type Selection interface {
	// Active reports whether the selection constrains anything at all.
	Active() bool
}

// Filter is one independent selection dimension over the registry stream.
//
// Apply is a pure, lazy transform. Its behavior when a required column is
// missing is filter-specific and deliberate: some families produce no rows
// (fail closed), others pass everything through (fail open). Each
// implementation documents its own policy.
type Filter interface {
	// Name is the stable wire key of the filter.
	Name() string
	// Label is the human-facing display name.
	Label() string
	// Kind tells the UI how to render the filter's controls.
	Kind() Kind
	// DistinctValues enumerates the selectable discrete values when finite,
	// or returns nil for free-form selections.
	DistinctValues(ctx context.Context) ([]string, error)
	// Decode parses this filter's raw wire selection into its typed form.
	Decode(raw any) (Selection, error)
	// Apply transforms the row stream, keeping only rows matching sel.
	Apply(rows Stream, header schema.Header, sel Selection) Stream
}

// Registry holds the closed set of filters in display order.
type Registry struct {
	order   []string
	filters map[string]Filter
}

// NewRegistry builds a registry preserving registration order.
func NewRegistry(filters ...Filter) *Registry {
	r := &Registry{filters: make(map[string]Filter, len(filters))}
	for _, f := range filters {
		if _, dup := r.filters[f.Name()]; dup {
			continue
		}
		r.order = append(r.order, f.Name())
		r.filters[f.Name()] = f
	}
	return r
}

// Get returns the filter registered under name.
func (r *Registry) Get(name string) (Filter, bool) {
	f, ok := r.filters[name]
	return f, ok
}

// All returns the filters in display order.
func (r *Registry) All() []Filter {
	out := make([]Filter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.filters[name])
	}
	return out
}

// passthrough yields the stream unchanged.
func passthrough(rows Stream) Stream {
	return rows
}

// nothing is the empty stream, used by fail-closed filters when a required
// column is absent.
func nothing(func(schema.Row) bool) {}
