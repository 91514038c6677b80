package utils

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"math"
	"strconv"
	"strings"
)

// TIFF tags this decoder cares about.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagStripOffsets    = 273
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPredictor       = 317
	tagTileWidth       = 322
	tagTileLength      = 323
	tagTileOffsets     = 324
	tagTileByteCounts  = 325
	tagSampleFormat    = 339
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagGeoKeyDirectory = 34735
	tagGDALNoData      = 42113
)

const (
	compressionNone       = 1
	compressionDeflate    = 8
	compressionOldDeflate = 32946

	predictorNone       = 1
	predictorHorizontal = 2

	sampleFormatUint  = 1
	sampleFormatInt   = 2
	sampleFormatFloat = 3
)

type tiffTag struct {
	fieldType uint16
	ints      []uint64
	doubles   []float64
	ascii     string
}

type tiffFile struct {
	byteOrder binary.ByteOrder
	tags      map[uint16]tiffTag
}

func (t *tiffFile) uintVal(tag uint16) (uint64, bool) {
	v, ok := t.tags[tag]
	if !ok || len(v.ints) == 0 {
		return 0, false
	}
	return v.ints[0], true
}

func (t *tiffFile) uintSlice(tag uint16) ([]uint64, bool) {
	v, ok := t.tags[tag]
	if !ok || len(v.ints) == 0 {
		return nil, false
	}
	return v.ints, true
}

// DecodeGeoTIFF parses a classic TIFF buffer into a FlexRaster. Both byte
// orders, strip and tile layouts, no and DEFLATE compression, and 16 or 32
// bit integer and float samples are accepted. The geotransform comes from the
// ModelPixelScale and ModelTiepoint tags; GDAL_NODATA fills NoData, with NaN
// as the fallback when the tag is absent.
func DecodeGeoTIFF(buf []byte) (*FlexRaster, error) {
	tf, err := parseTIFF(buf)
	if err != nil {
		return nil, err
	}

	width, ok := tf.uintVal(tagImageWidth)
	if !ok {
		return nil, fmt.Errorf("GeoTIFF: missing ImageWidth tag")
	}
	height, ok := tf.uintVal(tagImageLength)
	if !ok {
		return nil, fmt.Errorf("GeoTIFF: missing ImageLength tag")
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("GeoTIFF: degenerate image size %dx%d", width, height)
	}

	bits, ok := tf.uintVal(tagBitsPerSample)
	if !ok {
		bits = 32
	}
	format, ok := tf.uintVal(tagSampleFormat)
	if !ok {
		format = sampleFormatUint
	}
	compression, ok := tf.uintVal(tagCompression)
	if !ok {
		compression = compressionNone
	}
	predictor, ok := tf.uintVal(tagPredictor)
	if !ok {
		predictor = predictorNone
	}

	data := make([]float32, width*height)
	if _, tiled := tf.tags[tagTileOffsets]; tiled {
		err = readTiles(tf, buf, data, int(width), int(height), int(bits), int(format), int(compression), int(predictor))
	} else {
		err = readStrips(tf, buf, data, int(width), int(height), int(bits), int(format), int(compression), int(predictor))
	}
	if err != nil {
		return nil, err
	}

	gt, err := geoTransform(tf)
	if err != nil {
		return nil, err
	}

	noData := math.NaN()
	if nd, ok := tf.tags[tagGDALNoData]; ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(nd.ascii), 64); err == nil {
			noData = v
		}
	}

	return &FlexRaster{
		Data:         data,
		Width:        int(width),
		Height:       int(height),
		GeoTransform: gt,
		NoData:       noData,
	}, nil
}

func parseTIFF(buf []byte) (*tiffFile, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("GeoTIFF: truncated header")
	}

	var byteOrder binary.ByteOrder
	switch {
	case buf[0] == 'I' && buf[1] == 'I':
		byteOrder = binary.LittleEndian
	case buf[0] == 'M' && buf[1] == 'M':
		byteOrder = binary.BigEndian
	default:
		return nil, fmt.Errorf("GeoTIFF: invalid byte order mark %q", buf[:2])
	}

	switch ident := byteOrder.Uint16(buf[2:4]); ident {
	case 42:
	case 43:
		return nil, fmt.Errorf("GeoTIFF: BigTIFF is not supported")
	default:
		return nil, fmt.Errorf("GeoTIFF: invalid identifier %d", ident)
	}

	ifdOffset := byteOrder.Uint32(buf[4:8])
	if ifdOffset == 0 || int(ifdOffset)+2 > len(buf) {
		return nil, fmt.Errorf("GeoTIFF: invalid IFD offset %d", ifdOffset)
	}

	numEntries := int(byteOrder.Uint16(buf[ifdOffset : ifdOffset+2]))
	entriesEnd := int(ifdOffset) + 2 + numEntries*12
	if entriesEnd > len(buf) {
		return nil, fmt.Errorf("GeoTIFF: truncated IFD")
	}

	tf := &tiffFile{byteOrder: byteOrder, tags: map[uint16]tiffTag{}}
	for i := 0; i < numEntries; i++ {
		entry := buf[int(ifdOffset)+2+i*12:]
		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		count := byteOrder.Uint32(entry[4:8])

		size := fieldTypeSize(fieldType)
		if size == 0 {
			continue
		}
		total := int(size) * int(count)

		var value []byte
		if total <= 4 {
			value = entry[8 : 8+total]
		} else {
			offset := byteOrder.Uint32(entry[8:12])
			if int(offset)+total > len(buf) {
				return nil, fmt.Errorf("GeoTIFF: tag %d value out of bounds", tag)
			}
			value = buf[offset : int(offset)+total]
		}

		parsed, err := parseTagValue(fieldType, count, value, byteOrder)
		if err != nil {
			return nil, fmt.Errorf("GeoTIFF: tag %d: %v", tag, err)
		}
		tf.tags[tag] = parsed
	}
	return tf, nil
}

func fieldTypeSize(fieldType uint16) uint32 {
	switch fieldType {
	case 1, 2, 6, 7:
		return 1
	case 3, 8:
		return 2
	case 4, 9, 11:
		return 4
	case 5, 10, 12:
		return 8
	}
	return 0
}

func parseTagValue(fieldType uint16, count uint32, value []byte, byteOrder binary.ByteOrder) (tiffTag, error) {
	tag := tiffTag{fieldType: fieldType}
	switch fieldType {
	case 1, 7:
		tag.ints = make([]uint64, count)
		for i := range tag.ints {
			tag.ints[i] = uint64(value[i])
		}
	case 2:
		tag.ascii = string(bytes.TrimRight(value, "\x00"))
	case 3:
		tag.ints = make([]uint64, count)
		for i := range tag.ints {
			tag.ints[i] = uint64(byteOrder.Uint16(value[i*2:]))
		}
	case 4:
		tag.ints = make([]uint64, count)
		for i := range tag.ints {
			tag.ints[i] = uint64(byteOrder.Uint32(value[i*4:]))
		}
	case 12:
		tag.doubles = make([]float64, count)
		for i := range tag.doubles {
			tag.doubles[i] = math.Float64frombits(byteOrder.Uint64(value[i*8:]))
		}
	}
	// Other field types (rationals, floats) only occur on ancillary tags
	// this decoder never reads, so they are carried empty.
	return tag, nil
}

func geoTransform(tf *tiffFile) ([6]float64, error) {
	var gt [6]float64
	scale, ok := tf.tags[tagModelPixelScale]
	if !ok || len(scale.doubles) < 2 {
		return gt, fmt.Errorf("GeoTIFF: missing or invalid ModelPixelScale tag")
	}
	tiepoint, ok := tf.tags[tagModelTiepoint]
	if !ok || len(tiepoint.doubles) < 6 {
		return gt, fmt.Errorf("GeoTIFF: missing or invalid ModelTiepoint tag")
	}

	xres := scale.doubles[0]
	yres := scale.doubles[1]
	if yres < 0 {
		yres = -yres
	}

	// Anchor the transform at pixel (0,0) from the tiepoint raster location.
	gt[0] = tiepoint.doubles[3] - tiepoint.doubles[0]*xres
	gt[1] = xres
	gt[2] = 0
	gt[3] = tiepoint.doubles[4] + tiepoint.doubles[1]*yres
	gt[4] = 0
	gt[5] = -yres
	return gt, nil
}

func readStrips(tf *tiffFile, buf []byte, data []float32, width, height, bits, format, compression, predictor int) error {
	offsets, ok := tf.uintSlice(tagStripOffsets)
	if !ok {
		return fmt.Errorf("GeoTIFF: missing StripOffsets tag")
	}
	counts, ok := tf.uintSlice(tagStripByteCounts)
	if !ok || len(counts) != len(offsets) {
		return fmt.Errorf("GeoTIFF: missing or mismatched StripByteCounts tag")
	}
	rowsPerStrip, ok := tf.uintVal(tagRowsPerStrip)
	if !ok || rowsPerStrip == 0 {
		rowsPerStrip = uint64(height)
	}

	for s := range offsets {
		block, err := decompressBlock(buf, offsets[s], counts[s], compression)
		if err != nil {
			return fmt.Errorf("GeoTIFF: strip %d: %v", s, err)
		}
		startRow := s * int(rowsPerStrip)
		numRows := int(rowsPerStrip)
		if startRow+numRows > height {
			numRows = height - startRow
		}
		samples, err := convertSamples(block, width, numRows, bits, format, predictor, tf.byteOrder)
		if err != nil {
			return fmt.Errorf("GeoTIFF: strip %d: %v", s, err)
		}
		copy(data[startRow*width:], samples[:numRows*width])
	}
	return nil
}

func readTiles(tf *tiffFile, buf []byte, data []float32, width, height, bits, format, compression, predictor int) error {
	offsets, _ := tf.uintSlice(tagTileOffsets)
	counts, ok := tf.uintSlice(tagTileByteCounts)
	if !ok || len(counts) != len(offsets) {
		return fmt.Errorf("GeoTIFF: missing or mismatched TileByteCounts tag")
	}
	tileWidth, ok := tf.uintVal(tagTileWidth)
	if !ok || tileWidth == 0 {
		return fmt.Errorf("GeoTIFF: missing TileWidth tag")
	}
	tileLength, ok := tf.uintVal(tagTileLength)
	if !ok || tileLength == 0 {
		return fmt.Errorf("GeoTIFF: missing TileLength tag")
	}

	tw, th := int(tileWidth), int(tileLength)
	tilesAcross := (width + tw - 1) / tw

	for t := range offsets {
		block, err := decompressBlock(buf, offsets[t], counts[t], compression)
		if err != nil {
			return fmt.Errorf("GeoTIFF: tile %d: %v", t, err)
		}
		samples, err := convertSamples(block, tw, th, bits, format, predictor, tf.byteOrder)
		if err != nil {
			return fmt.Errorf("GeoTIFF: tile %d: %v", t, err)
		}

		tileRow := t / tilesAcross
		tileCol := t % tilesAcross
		for y := 0; y < th; y++ {
			dstRow := tileRow*th + y
			if dstRow >= height {
				break
			}
			for x := 0; x < tw; x++ {
				dstCol := tileCol*tw + x
				if dstCol >= width {
					break
				}
				data[dstRow*width+dstCol] = samples[y*tw+x]
			}
		}
	}
	return nil
}

func decompressBlock(buf []byte, offset, count uint64, compression int) ([]byte, error) {
	if offset+count > uint64(len(buf)) {
		return nil, fmt.Errorf("block out of bounds at offset %d", offset)
	}
	raw := buf[offset : offset+count]

	switch compression {
	case compressionNone:
		return raw, nil
	case compressionDeflate, compressionOldDeflate:
		z, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer z.Close()
		return ioutil.ReadAll(z)
	}
	return nil, fmt.Errorf("unsupported compression scheme %d", compression)
}

func convertSamples(block []byte, width, height, bits, format, predictor int, byteOrder binary.ByteOrder) ([]float32, error) {
	bytesPerSample := bits / 8
	numSamples := len(block) / bytesPerSample
	if numSamples < width*height {
		height = numSamples / width
	}
	out := make([]float32, width*height)

	switch format {
	case sampleFormatFloat:
		if bits != 32 {
			return nil, fmt.Errorf("unsupported float sample size %d bits", bits)
		}
		for i := range out {
			out[i] = math.Float32frombits(byteOrder.Uint32(block[i*4:]))
		}
		return out, nil
	case sampleFormatInt, sampleFormatUint:
		ints := make([]int64, width*height)
		switch bits {
		case 16:
			for i := range ints {
				v := byteOrder.Uint16(block[i*2:])
				if format == sampleFormatInt {
					ints[i] = int64(int16(v))
				} else {
					ints[i] = int64(v)
				}
			}
		case 32:
			for i := range ints {
				v := byteOrder.Uint32(block[i*4:])
				if format == sampleFormatInt {
					ints[i] = int64(int32(v))
				} else {
					ints[i] = int64(v)
				}
			}
		default:
			return nil, fmt.Errorf("unsupported integer sample size %d bits", bits)
		}
		if predictor == predictorHorizontal {
			for y := 0; y < height; y++ {
				row := ints[y*width : (y+1)*width]
				for x := 1; x < width; x++ {
					row[x] += row[x-1]
				}
			}
		}
		for i, v := range ints {
			out[i] = float32(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported sample format %d", format)
}
