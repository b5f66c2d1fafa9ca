// Package filter implements the selection dimensions over the registry
// stream: categorical value sets, presence flags, numeric and date ranges,
// activity-code sets, geographic containment and duplicate exclusion.
//
// Every filter is a lazy stream transform. Selections arrive as untyped
// wire payloads, are decoded once into typed values, and are applied in a
// single pass with constant per-filter state. Missing source columns are
// handled per filter: most constraint families drop all rows, a few pass
// everything through, matching what each constraint can still promise.
package filter
