package filter

import "regpulse/internal/schema"

// Chain is a composed pipeline: the registry's filters applied in display
// order, each constrained by its decoded selection, with an optional
// duplicate filter as the final stage.
type Chain struct {
	registry   *Registry
	selections map[string]Selection
	duplicates *DuplicateFilter
}

// NewChain composes the active selections over a registry. The duplicate
// filter may be nil.
func NewChain(registry *Registry, selections map[string]Selection, duplicates *DuplicateFilter) *Chain {
	return &Chain{registry: registry, selections: selections, duplicates: duplicates}
}

// Apply threads the stream through every active filter. Inactive filters
// cost nothing; the duplicate filter, when present, runs last so upstream
// filters see the raw ordering.
func (c *Chain) Apply(rows Stream, header schema.Header) Stream {
	for _, f := range c.registry.All() {
		sel, ok := c.selections[f.Name()]
		if !ok || !sel.Active() {
			continue
		}
		rows = f.Apply(rows, header, sel)
	}
	if c.duplicates != nil {
		rows = c.duplicates.Apply(rows, header)
	}
	return rows
}
