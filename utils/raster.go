package utils

import (
	"math"
)

// FlexRaster is a single-band raster of row-major float32 samples together
// with the six-parameter geotransform that places it on the globe. The
// transform follows the GDAL convention: {originX, xres, 0, originY, 0,
// -yres} with the origin at the top-left corner of the top-left cell.
// Pipeline stages treat a FlexRaster as immutable and produce a fresh one.
type FlexRaster struct {
	Data          []float32
	Height, Width int
	GeoTransform  [6]float64
	NoData        float64
}

func (r *FlexRaster) GetNoData() float64 {
	return r.NoData
}

// NewFlexRaster allocates a zeroed raster covering bbox at the given grid size.
func NewFlexRaster(width, height int, bbox BoundingBox, noData float64) *FlexRaster {
	xRes := bbox.Width() / float64(width)
	yRes := bbox.Height() / float64(height)
	return &FlexRaster{
		Data:         make([]float32, width*height),
		Width:        width,
		Height:       height,
		GeoTransform: [6]float64{bbox.MinLon, xRes, 0, bbox.MaxLat, 0, -yRes},
		NoData:       noData,
	}
}

// BBox reconstructs the geographic extent from the transform and grid size.
func (r *FlexRaster) BBox() BoundingBox {
	gt := r.GeoTransform
	return BoundingBox{
		MinLon: gt[0],
		MaxLon: gt[0] + float64(r.Width)*gt[1],
		MaxLat: gt[3],
		MinLat: gt[3] + float64(r.Height)*gt[5],
	}
}

// CellCenter returns the geographic coordinate of the centre of cell
// (row, col). Row 0 is the northernmost row.
func (r *FlexRaster) CellCenter(row, col int) (float64, float64) {
	gt := r.GeoTransform
	lon := gt[0] + (float64(col)+0.5)*gt[1]
	lat := gt[3] + (float64(row)+0.5)*gt[5]
	return lon, lat
}

// Copy returns a deep copy sharing no sample storage with the receiver.
func (r *FlexRaster) Copy() *FlexRaster {
	data := make([]float32, len(r.Data))
	copy(data, r.Data)
	return &FlexRaster{
		Data:         data,
		Width:        r.Width,
		Height:       r.Height,
		GeoTransform: r.GeoTransform,
		NoData:       r.NoData,
	}
}

// IsNoData reports whether a sample holds the nodata sentinel. Resampling can
// perturb the sentinel, so the comparison is epsilon-aware rather than exact.
// NaN always counts as nodata (rasters without an explicit sentinel use NaN).
func IsNoData(v float32, noData float64) bool {
	if math.IsNaN(float64(v)) {
		return true
	}
	if math.IsNaN(noData) {
		return false
	}
	eps := 1e-6 * math.Max(1, math.Abs(noData))
	return math.Abs(float64(v)-noData) <= eps
}

// PointRecord is one row of the raster-to-table projection.
type PointRecord struct {
	Lon   float64
	Lat   float64
	Value float32
}
