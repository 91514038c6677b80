package processor

import (
	"log"
	"math"
	"sort"

	"github.com/ctessum/geom"

	"github.com/oresund-atlas/bathyprep/utils"
)

// MaskPolygons blanks the cells of r on the discarded side of the polygon
// set and crops the result to the minimal window still containing kept
// cells. Cell membership is decided at cell centers with even-odd scanline
// rasterisation, so holes in polygons are honoured. A keep-outside call with
// no polygons is a no-op copy; keep-inside with no polygons is an error
// because it would discard the whole raster.
func MaskPolygons(r *utils.FlexRaster, polys []geom.Geom, keep KeepMode, noData float64) (*utils.FlexRaster, error) {
	if len(polys) == 0 {
		if keep == KeepInside {
			return nil, &EmptyPolygonSetError{}
		}
		log.Printf("mask: no polygons supplied, keeping raster unchanged")
		return r.Copy(), nil
	}

	inside := rasterizeUnion(r, polys)

	minRow, minCol := r.Height, r.Width
	maxRow, maxCol := -1, -1
	kept := make([]bool, len(inside))
	for row := 0; row < r.Height; row++ {
		for col := 0; col < r.Width; col++ {
			idx := row*r.Width + col
			if inside[idx] == (keep == KeepInside) {
				kept[idx] = true
				if row < minRow {
					minRow = row
				}
				if row > maxRow {
					maxRow = row
				}
				if col < minCol {
					minCol = col
				}
				if col > maxCol {
					maxCol = col
				}
			}
		}
	}
	if maxRow < 0 {
		// Nothing kept, keep the full window of nodata rather than an
		// empty raster.
		minRow, minCol, maxRow, maxCol = 0, 0, r.Height-1, r.Width-1
	}

	outWidth := maxCol - minCol + 1
	outHeight := maxRow - minRow + 1
	out := &utils.FlexRaster{
		Data:   make([]float32, outWidth*outHeight),
		Width:  outWidth,
		Height: outHeight,
		GeoTransform: [6]float64{
			r.GeoTransform[0] + float64(minCol)*r.GeoTransform[1],
			r.GeoTransform[1],
			0,
			r.GeoTransform[3] + float64(minRow)*r.GeoTransform[5],
			0,
			r.GeoTransform[5],
		},
		NoData: noData,
	}

	for row := 0; row < outHeight; row++ {
		for col := 0; col < outWidth; col++ {
			srcIdx := (row+minRow)*r.Width + (col + minCol)
			if kept[srcIdx] {
				out.Data[row*outWidth+col] = r.Data[srcIdx]
			} else {
				out.Data[row*outWidth+col] = float32(noData)
			}
		}
	}
	return out, nil
}

// rasterizeUnion marks every cell whose center lies inside any of the
// polygons.
func rasterizeUnion(r *utils.FlexRaster, polys []geom.Geom) []bool {
	inside := make([]bool, r.Width*r.Height)
	for _, g := range polys {
		switch t := g.(type) {
		case geom.Polygon:
			rasterizePolygon(r, t, inside)
		case geom.MultiPolygon:
			for _, p := range t {
				rasterizePolygon(r, p, inside)
			}
		}
	}
	return inside
}

func rasterizePolygon(r *utils.FlexRaster, poly geom.Polygon, inside []bool) {
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	for _, ring := range poly {
		for _, v := range ring {
			if v.Y < minLat {
				minLat = v.Y
			}
			if v.Y > maxLat {
				maxLat = v.Y
			}
		}
	}
	if minLat > maxLat {
		return
	}

	originX := r.GeoTransform[0]
	xres := r.GeoTransform[1]
	originY := r.GeoTransform[3]
	yres := r.GeoTransform[5]

	// Row index range whose centers can fall inside the polygon, with a
	// row of slop on either side. The strict per-edge test below filters
	// the extras.
	firstRow := clampIndex(int((maxLat-originY)/yres-0.5)-1, r.Height)
	lastRow := clampIndex(int((minLat-originY)/yres-0.5)+1, r.Height)

	var crossings []float64
	for row := firstRow; row <= lastRow; row++ {
		lat := originY + (float64(row)+0.5)*yres
		crossings = crossings[:0]
		for _, ring := range poly {
			n := len(ring)
			for j := 0; j < n; j++ {
				a := ring[j]
				b := ring[(j+1)%n]
				if (a.Y <= lat && lat < b.Y) || (b.Y <= lat && lat < a.Y) {
					crossings = append(crossings, a.X+(lat-a.Y)*(b.X-a.X)/(b.Y-a.Y))
				}
			}
		}
		if len(crossings) < 2 {
			continue
		}
		sort.Float64s(crossings)

		for c := 0; c+1 < len(crossings); c += 2 {
			x1, x2 := crossings[c], crossings[c+1]
			// Cell centers in [x1, x2), half open so shared edges
			// never double fill.
			colStart := int(math.Ceil((x1-originX)/xres - 0.5))
			colEnd := int(math.Ceil((x2-originX)/xres-0.5)) - 1
			if colStart < 0 {
				colStart = 0
			}
			if colEnd >= r.Width {
				colEnd = r.Width - 1
			}
			for col := colStart; col <= colEnd; col++ {
				inside[row*r.Width+col] = true
			}
		}
	}
}
