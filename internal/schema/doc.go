// Package schema resolves the registry table's column layout and streams its
// rows.
//
// Source exports of the registry table do not agree on column spellings, so
// Header lookups are case-insensitive and walk an ordered list of alias
// candidates per logical column. Rows may be ragged; Row.Cell tolerates
// missing trailing cells and returns "" for them.
//
// Source.Stream performs one lazy forward pass per call. Each call opens its
// own file handle, making concurrent requests independent of each other.
package schema
