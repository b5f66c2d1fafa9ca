package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// Resolver answers point-in-polygon queries over a fixed set of named
// polygons. Build one per request over exactly the active subset (all
// regions for aggregation, only the selected names for filtering).
//
// The r-tree is an acceleration structure only: every candidate hit is
// verified with an exact containment test before it counts.
type Resolver struct {
	polygons []NamedPolygon
	index    rtree.RTreeG[int]
}

// NewResolver builds a query index over the given polygons. Order matters:
// when a point falls inside several polygons the earliest one wins.
func NewResolver(polygons []NamedPolygon) *Resolver {
	r := &Resolver{polygons: polygons}
	for i, p := range polygons {
		bound := p.Geometry.Bound()
		r.index.Insert(
			[2]float64{bound.Min[0], bound.Min[1]},
			[2]float64{bound.Max[0], bound.Max[1]},
			i,
		)
	}
	return r
}

// Empty reports whether the resolver has no polygons at all.
func (r *Resolver) Empty() bool {
	return len(r.polygons) == 0
}

// Resolve returns the name of the first polygon containing the coordinate,
// or "" and false when no polygon contains it.
func (r *Resolver) Resolve(lon, lat float64) (string, bool) {
	point := orb.Point{lon, lat}

	best := -1
	r.index.Search(
		[2]float64{lon, lat},
		[2]float64{lon, lat},
		func(_, _ [2]float64, idx int) bool {
			if !contains(r.polygons[idx].Geometry, point) {
				return true
			}
			if best == -1 || idx < best {
				best = idx
			}
			return true
		},
	)
	if best == -1 {
		return "", false
	}
	return r.polygons[best].Name, true
}

func contains(g orb.Geometry, point orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, point)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, point)
	default:
		return false
	}
}
