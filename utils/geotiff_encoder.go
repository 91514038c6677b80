package utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// EncodeGeoTIFF serialises a FlexRaster as a little endian classic GeoTIFF
// with a single uncompressed float32 strip. The GeoKeyDirectory pins the CRS
// to the given EPSG geographic code and GDAL_NODATA carries the nodata value
// so GDAL based consumers pick it up without side files.
func EncodeGeoTIFF(r *FlexRaster, epsg int) ([]byte, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("GeoTIFF: degenerate raster size %dx%d", r.Width, r.Height)
	}
	if len(r.Data) != r.Width*r.Height {
		return nil, fmt.Errorf("GeoTIFF: data length %d does not match %dx%d grid",
			len(r.Data), r.Width, r.Height)
	}

	noDataASCII := append([]byte(strconv.FormatFloat(r.NoData, 'g', -1, 64)), 0)
	if len(noDataASCII)%2 != 0 {
		noDataASCII = append(noDataASCII, 0)
	}

	dataOffset := uint32(8)
	dataSize := uint32(r.Width * r.Height * 4)
	scaleOffset := dataOffset + dataSize
	tiepointOffset := scaleOffset + 3*8
	geoKeyOffset := tiepointOffset + 6*8
	noDataOffset := geoKeyOffset + 16*2
	ifdOffset := noDataOffset + uint32(len(noDataASCII))

	buf := bytes.NewBuffer(make([]byte, 0, int(ifdOffset)+2+15*12+4))
	le := binary.LittleEndian

	buf.WriteString("II")
	binary.Write(buf, le, uint16(42))
	binary.Write(buf, le, ifdOffset)

	for _, v := range r.Data {
		binary.Write(buf, le, math.Float32bits(v))
	}

	binary.Write(buf, le, []float64{r.GeoTransform[1], -r.GeoTransform[5], 0})
	binary.Write(buf, le, []float64{0, 0, 0, r.GeoTransform[0], r.GeoTransform[3], 0})

	// GeoKeyDirectory: version header then ModelTypeGeographic, RasterPixelIsArea
	// and the geographic CRS code.
	binary.Write(buf, le, []uint16{
		1, 1, 0, 3,
		1024, 0, 1, 2,
		1025, 0, 1, 1,
		2048, 0, 1, uint16(epsg),
	})
	buf.Write(noDataASCII)

	type ifdEntry struct {
		tag       uint16
		fieldType uint16
		count     uint32
		value     uint32
	}
	entries := []ifdEntry{
		{tagImageWidth, 3, 1, uint32(r.Width)},
		{tagImageLength, 3, 1, uint32(r.Height)},
		{tagBitsPerSample, 3, 1, 32},
		{tagCompression, 3, 1, compressionNone},
		{262, 3, 1, 1}, // PhotometricInterpretation BlackIsZero
		{tagStripOffsets, 4, 1, dataOffset},
		{277, 3, 1, 1}, // SamplesPerPixel
		{tagRowsPerStrip, 3, 1, uint32(r.Height)},
		{tagStripByteCounts, 4, 1, dataSize},
		{284, 3, 1, 1}, // PlanarConfiguration chunky
		{tagSampleFormat, 3, 1, sampleFormatFloat},
		{tagModelPixelScale, 12, 3, scaleOffset},
		{tagModelTiepoint, 12, 6, tiepointOffset},
		{tagGeoKeyDirectory, 3, 16, geoKeyOffset},
		{tagGDALNoData, 2, uint32(len(noDataASCII)), noDataOffset},
	}

	binary.Write(buf, le, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(buf, le, e.tag)
		binary.Write(buf, le, e.fieldType)
		binary.Write(buf, le, e.count)
		binary.Write(buf, le, e.value)
	}
	binary.Write(buf, le, uint32(0))

	return buf.Bytes(), nil
}
