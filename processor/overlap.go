package processor

import (
	"math"

	"github.com/ctessum/geom"

	"github.com/oresund-atlas/bathyprep/utils"
)

// Overlaps reports whether the vertex envelope of g intersects bbox. Edges
// touching counts as overlap; a geometry with no vertices never overlaps.
func Overlaps(g geom.Geom, bbox utils.BoundingBox) bool {
	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	found := false

	visit := func(p geom.Point) {
		found = true
		if p.X < minLon {
			minLon = p.X
		}
		if p.X > maxLon {
			maxLon = p.X
		}
		if p.Y < minLat {
			minLat = p.Y
		}
		if p.Y > maxLat {
			maxLat = p.Y
		}
	}

	switch t := g.(type) {
	case geom.Point:
		visit(t)
	case geom.MultiPoint:
		for _, p := range t {
			visit(p)
		}
	case geom.LineString:
		for _, p := range t {
			visit(p)
		}
	case geom.Polygon:
		visitPolygon(t, visit)
	case geom.MultiPolygon:
		for _, p := range t {
			visitPolygon(p, visit)
		}
	default:
		return false
	}

	if !found {
		return false
	}
	env := utils.BoundingBox{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}
	return env.Intersects(bbox)
}

func visitPolygon(p geom.Polygon, visit func(geom.Point)) {
	for _, ring := range p {
		for _, v := range ring {
			visit(v)
		}
	}
}
