package processor

import (
	"testing"

	"github.com/ctessum/geom"

	"github.com/oresund-atlas/bathyprep/utils"
)

var overlapBBox = utils.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 10, MaxLat: 10}

func TestOverlapsPoint(t *testing.T) {
	if !Overlaps(geom.Point{X: 5, Y: 5}, overlapBBox) {
		t.Errorf("interior point should overlap")
	}
	if !Overlaps(geom.Point{X: 10, Y: 10}, overlapBBox) {
		t.Errorf("point on the edge should overlap")
	}
	if Overlaps(geom.Point{X: 11, Y: 5}, overlapBBox) {
		t.Errorf("exterior point should not overlap")
	}
}

func TestOverlapsPolygon(t *testing.T) {
	crossing := geom.Polygon{{
		{X: 8, Y: 8}, {X: 15, Y: 8}, {X: 15, Y: 15}, {X: 8, Y: 15}, {X: 8, Y: 8},
	}}
	if !Overlaps(crossing, overlapBBox) {
		t.Errorf("polygon crossing the bbox should overlap")
	}

	outside := geom.Polygon{{
		{X: 20, Y: 20}, {X: 25, Y: 20}, {X: 25, Y: 25}, {X: 20, Y: 25}, {X: 20, Y: 20},
	}}
	if Overlaps(outside, overlapBBox) {
		t.Errorf("disjoint polygon should not overlap")
	}

	// An envelope overlapping the bbox counts even when the polygon
	// interior does not reach it.
	lShaped := geom.Polygon{{
		{X: -5, Y: -5}, {X: 15, Y: -5}, {X: 15, Y: -1}, {X: -5, Y: -1}, {X: -5, Y: -5},
	}}
	if Overlaps(lShaped, overlapBBox) {
		t.Errorf("polygon south of the bbox should not overlap")
	}
}

func TestOverlapsMultiPolygon(t *testing.T) {
	mp := geom.MultiPolygon{
		{{{X: 20, Y: 20}, {X: 25, Y: 20}, {X: 25, Y: 25}, {X: 20, Y: 20}}},
		{{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: 1}}},
	}
	if !Overlaps(mp, overlapBBox) {
		t.Errorf("multipolygon with one part inside should overlap")
	}
}

func TestOverlapsDegenerate(t *testing.T) {
	if Overlaps(geom.Polygon{}, overlapBBox) {
		t.Errorf("polygon with no vertices should not overlap")
	}
	if Overlaps(geom.MultiPolygon{}, overlapBBox) {
		t.Errorf("empty multipolygon should not overlap")
	}
}
