package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// BoundingBox is an axis-aligned geographic rectangle in lon/lat degrees.
// It is a plain value: construct it once, pass it around, never mutate it.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// ParseBBox parses the OGC "minx,miny,maxx,maxy" form.
func ParseBBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("bbox must have 4 comma-separated values, got %q", s)
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("bbox component %d of %q: %v", i, s, err)
		}
		vals[i] = v
	}
	bbox := BoundingBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if err := bbox.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return bbox, nil
}

func (b BoundingBox) Validate() error {
	if b.MinLon >= b.MaxLon {
		return fmt.Errorf("bbox min_lon %v must be less than max_lon %v", b.MinLon, b.MaxLon)
	}
	if b.MinLat >= b.MaxLat {
		return fmt.Errorf("bbox min_lat %v must be less than max_lat %v", b.MinLat, b.MaxLat)
	}
	return nil
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

func (b BoundingBox) Width() float64 {
	return b.MaxLon - b.MinLon
}

func (b BoundingBox) Height() float64 {
	return b.MaxLat - b.MinLat
}

// Contains reports whether the coordinate lies within the box, edges included.
func (b BoundingBox) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.MaxLon >= o.MinLon && b.MinLon <= o.MaxLon &&
		b.MaxLat >= o.MinLat && b.MinLat <= o.MaxLat
}
