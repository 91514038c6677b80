package processor

import (
	"testing"

	"github.com/oresund-atlas/bathyprep/utils"
)

func TestToPoints(t *testing.T) {
	bbox := utils.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 2, MaxLat: 2}
	r := utils.NewFlexRaster(2, 2, bbox, -9999)
	r.Data = []float32{1, 2, -9999, 4}

	points := ToPoints(r)
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}

	first := points[0]
	if first.Lon != 0.5 || first.Lat != 1.5 || first.Value != 1 {
		t.Errorf("first point: got %+v, want (0.5, 1.5, 1)", first)
	}

	// Row-major order: the nodata cell at row 1 col 0 is skipped.
	if points[1].Value != 2 || points[2].Value != 4 {
		t.Errorf("wrong point order: %+v", points)
	}
	if points[2].Lon != 1.5 || points[2].Lat != 0.5 {
		t.Errorf("last point location: got %+v, want (1.5, 0.5)", points[2])
	}
}

func TestToPointsAllNoData(t *testing.T) {
	bbox := utils.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 2, MaxLat: 2}
	r := utils.NewFlexRaster(2, 2, bbox, -9999)
	for i := range r.Data {
		r.Data[i] = -9999
	}
	if points := ToPoints(r); len(points) != 0 {
		t.Errorf("got %d points from all-nodata raster, want 0", len(points))
	}
}
