package utils

import (
	"testing"
)

func TestParseBBox(t *testing.T) {
	bbox, err := ParseBBox("11.95,54.90,13.35,56.50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bbox.MinLon != 11.95 || bbox.MinLat != 54.90 || bbox.MaxLon != 13.35 || bbox.MaxLat != 56.50 {
		t.Errorf("wrong bbox parsed: %+v", bbox)
	}
}

func TestParseBBoxErrors(t *testing.T) {
	badInputs := []string{
		"",
		"1,2,3",
		"1,2,3,4,5",
		"a,2,3,4",
		"3,2,1,4",
		"1,4,3,2",
		"1,2,1,4",
	}
	for _, input := range badInputs {
		if _, err := ParseBBox(input); err == nil {
			t.Errorf("ParseBBox(%q) should have failed", input)
		}
	}
}

func TestBBoxContains(t *testing.T) {
	bbox := BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 2, MaxLat: 2}
	if !bbox.Contains(1, 1) {
		t.Errorf("interior point should be contained")
	}
	if !bbox.Contains(0, 2) {
		t.Errorf("edge point should be contained")
	}
	if bbox.Contains(3, 1) {
		t.Errorf("exterior point should not be contained")
	}
}

func TestBBoxIntersects(t *testing.T) {
	a := BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 2, MaxLat: 2}
	b := BoundingBox{MinLon: 1, MinLat: 1, MaxLon: 3, MaxLat: 3}
	c := BoundingBox{MinLon: 2, MinLat: 2, MaxLon: 4, MaxLat: 4}
	d := BoundingBox{MinLon: 5, MinLat: 5, MaxLon: 6, MaxLat: 6}

	if !a.Intersects(b) || !b.Intersects(a) {
		t.Errorf("overlapping boxes should intersect")
	}
	if !a.Intersects(c) {
		t.Errorf("boxes touching at a corner should intersect")
	}
	if a.Intersects(d) {
		t.Errorf("disjoint boxes should not intersect")
	}
}
