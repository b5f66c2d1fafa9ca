package filter

import (
	"fmt"
	"strings"
)

// DecodeSelections turns the request's raw selection map (filter name to
// wire value) into typed selections, using each registered filter's decoder.
// Unknown filter names are rejected so a typo never silently widens a
// result set.
func (r *Registry) DecodeSelections(raw map[string]any) (map[string]Selection, error) {
	out := make(map[string]Selection, len(raw))
	for name, value := range raw {
		f, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown filter: %q", name)
		}
		sel, err := f.Decode(value)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", name, err)
		}
		if sel != nil && sel.Active() {
			out[name] = sel
		}
	}
	return out, nil
}

// ValueSet is the selection of a categorical multiselect or token filter.
type ValueSet struct {
	values map[string]struct{}
}

// NewValueSet builds a ValueSet from trimmed, non-empty values.
func NewValueSet(values ...string) ValueSet {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return ValueSet{values: set}
}

// Active reports whether any value is selected.
func (s ValueSet) Active() bool { return len(s.values) > 0 }

// Contains reports membership of value.
func (s ValueSet) Contains(value string) bool {
	_, ok := s.values[value]
	return ok
}

// Values returns the selected values in unspecified order.
func (s ValueSet) Values() []string {
	out := make([]string, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	return out
}

// Len returns the number of selected values.
func (s ValueSet) Len() int { return len(s.values) }

// decodeStrings coerces a wire value ([]any of strings, or []string) into a
// string slice. nil decodes to an empty slice.
func decodeStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", raw)
	}
}

// triState folds a set of wanted booleans into an optional constraint:
// wanting both TRUE and FALSE for one field cancels the constraint.
func triState(wantTrue, wantFalse bool) *bool {
	if wantTrue == wantFalse {
		return nil
	}
	v := wantTrue
	return &v
}
