package processor

import (
	"github.com/oresund-atlas/bathyprep/utils"
)

// ToPoints flattens a raster into lon/lat/value records at cell centers,
// row-major from the north-west corner, skipping nodata cells.
func ToPoints(r *utils.FlexRaster) []utils.PointRecord {
	points := make([]utils.PointRecord, 0, len(r.Data))
	for row := 0; row < r.Height; row++ {
		for col := 0; col < r.Width; col++ {
			v := r.Data[row*r.Width+col]
			if utils.IsNoData(v, r.NoData) {
				continue
			}
			lon, lat := r.CellCenter(row, col)
			points = append(points, utils.PointRecord{Lon: lon, Lat: lat, Value: v})
		}
	}
	return points
}
