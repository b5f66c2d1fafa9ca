// Package http exposes the query engine over a chi route tree: filter
// metadata, row previews, streamed downloads, multi-destination saves,
// baseline analysis, and management of custom areas and code lists.
package http
