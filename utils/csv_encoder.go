package utils

import (
	"encoding/csv"
	"io"
	"strconv"
)

// EncodeCSV writes the point table as lon,lat,depth_m rows. Coordinates keep
// six decimals, values two; row order is whatever the caller produced
// (row-major for rasters).
func EncodeCSV(w io.Writer, points []PointRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"lon", "lat", "depth_m"}); err != nil {
		return err
	}
	record := make([]string, 3)
	for _, p := range points {
		record[0] = strconv.FormatFloat(p.Lon, 'f', 6, 64)
		record[1] = strconv.FormatFloat(p.Lat, 'f', 6, 64)
		record[2] = strconv.FormatFloat(float64(p.Value), 'f', 2, 64)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
