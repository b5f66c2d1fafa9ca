// Package geo resolves coordinates to named regions.
//
// Store is the process-wide polygon cache (administrative regions plus
// uploaded custom areas); it loads lazily, collapses concurrent first-touch
// into one loader, and is invalidated explicitly after uploads or deletes.
// Resolver is a per-request point-in-polygon index over an arbitrary active
// subset of the store's polygons.
package geo
