package cog

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/robert-malhotra/go-cog/pkg/geo"
	"github.com/robert-malhotra/go-cog/pkg/raster"
)

// Info is a gdalinfo-style summary of a COG.
type Info struct {
	Type         string         `json:"type"`
	Size         [2]int         `json:"size"`
	GeoTransform [6]float64     `json:"geoTransform"`
	CRS          string         `json:"crs"`
	NoData       float64        `json:"noDataValue"`
	Overviews    []OverviewInfo `json:"overviews"`
}

// OverviewInfo describes one reduced-resolution level.
type OverviewInfo struct {
	Size [2]int `json:"size"`
}

// levelDesc captures the per-IFD image structure.
type levelDesc struct {
	subfileType    uint32
	width          uint32
	height         uint32
	tileWidth      uint32
	tileHeight     uint32
	photometric    uint16
	predictor      uint16
	compression    uint16
	samplesPerPix  uint16
	bitsPerSample  uint16
	sampleFormat   uint16
	tileOffsets    []uint32
	tileByteCounts []uint32
}

// Reader decodes Cloud-Optimized GeoTIFFs from any io.ReaderAt, local or
// remote.
type Reader struct {
	ra io.ReaderAt
	bo binary.ByteOrder

	levels    []levelDesc
	geoTrans  [6]float64
	noData    float64
	hasNoData bool
	keys      []keyEntry
}

// NewReader parses the TIFF header and IFD chain from ra.
func NewReader(ra io.ReaderAt) (*Reader, error) {
	header := make([]byte, 8)
	if _, err := ra.ReadAt(header, 0); err != nil {
		return nil, FormatError("short header")
	}

	r := &Reader{ra: ra}
	switch string(header[0:4]) {
	case leHeader:
		r.bo = binary.LittleEndian
	case beHeader:
		r.bo = binary.BigEndian
	default:
		return nil, FormatError("not a TIFF byte-order mark")
	}

	ifdOffset := int64(r.bo.Uint32(header[4:8]))
	seen := make(map[int64]bool)
	for ifdOffset != 0 {
		if seen[ifdOffset] {
			return nil, FormatError("cyclic IFD chain")
		}
		seen[ifdOffset] = true
		next, err := r.parseIFD(ifdOffset)
		if err != nil {
			return nil, err
		}
		ifdOffset = next
	}
	if len(r.levels) == 0 {
		return nil, FormatError("no image directories")
	}
	return r, nil
}

// FileReader is a Reader over a local file.
type FileReader struct {
	*Reader
	f *os.File
}

// OpenFile opens a COG on the local filesystem.
func OpenFile(path string) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileReader{Reader: r, f: f}, nil
}

// Close releases the underlying file handle.
func (r *FileReader) Close() error { return r.f.Close() }

func (r *Reader) parseIFD(ifdOffset int64) (int64, error) {
	var countBuf [2]byte
	if _, err := r.ra.ReadAt(countBuf[:], ifdOffset); err != nil {
		return 0, FormatError("error reading IFD")
	}
	numEntries := int(r.bo.Uint16(countBuf[:]))

	ifd := make([]byte, ifdEntryLen*numEntries)
	if _, err := r.ra.ReadAt(ifd, ifdOffset+2); err != nil {
		return 0, FormatError("error reading IFD")
	}

	var pixelScale, tiePoint []float64
	level := levelDesc{
		photometric:   pBlackIsZero,
		predictor:     1,
		compression:   cNone,
		samplesPerPix: 1,
		sampleFormat:  sfUint,
	}

	for i := 0; i < len(ifd); i += ifdEntryLen {
		tag := r.bo.Uint16(ifd[i : i+2])
		datatype := r.bo.Uint16(ifd[i+2 : i+4])
		count := r.bo.Uint32(ifd[i+4 : i+8])
		inline := ifd[i+8 : i+12]

		switch tag {
		case tNewSubfileType:
			v, err := r.scalarUint(tag, datatype, count, inline)
			if err != nil {
				return 0, err
			}
			level.subfileType = uint32(v)
		case tImageWidth, tImageLength, tTileWidth, tTileLength:
			v, err := r.scalarUint(tag, datatype, count, inline)
			if err != nil {
				return 0, err
			}
			switch tag {
			case tImageWidth:
				level.width = uint32(v)
			case tImageLength:
				level.height = uint32(v)
			case tTileWidth:
				level.tileWidth = uint32(v)
			case tTileLength:
				level.tileHeight = uint32(v)
			}
		case tBitsPerSample, tCompression, tPhotometricInterpr,
			tSamplesPerPixel, tPlanarConfiguration, tPredictor, tSampleFormat:
			v, err := r.firstShort(tag, datatype, count, inline)
			if err != nil {
				return 0, err
			}
			switch tag {
			case tBitsPerSample:
				level.bitsPerSample = v
			case tCompression:
				level.compression = v
			case tPhotometricInterpr:
				level.photometric = v
			case tSamplesPerPixel:
				level.samplesPerPix = v
			case tPlanarConfiguration:
				if v != 1 {
					return 0, UnsupportedError(fmt.Sprintf("planar configuration %d", v))
				}
			case tPredictor:
				if v != 1 && v != 2 {
					return 0, UnsupportedError(fmt.Sprintf("predictor %d", v))
				}
				level.predictor = v
			case tSampleFormat:
				level.sampleFormat = v
			}
		case tTileOffsets, tTileByteCounts:
			vs, err := r.uintSlice(tag, datatype, count, inline)
			if err != nil {
				return 0, err
			}
			if tag == tTileOffsets {
				level.tileOffsets = vs
			} else {
				level.tileByteCounts = vs
			}
		case tModelPixelScale, tModelTiepoint:
			vs, err := r.doubleSlice(tag, datatype, count, inline)
			if err != nil {
				return 0, err
			}
			if tag == tModelPixelScale {
				pixelScale = vs
			} else {
				tiePoint = vs
			}
		case tModelTransformation:
			return 0, UnsupportedError("ModelTransformation matrix")
		case tGeoKeyDirectory:
			vs, err := r.shortSlice(tag, datatype, count, inline)
			if err != nil {
				return 0, err
			}
			keys, err := decodeKeyDirectory(vs)
			if err != nil {
				return 0, err
			}
			r.keys = keys
		case tGDALNoData:
			s, err := r.asciiValue(tag, datatype, count, inline)
			if err != nil {
				return 0, err
			}
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				r.noData = v
				r.hasNoData = true
			}
		default:
			// Uninteresting tag, skip.
		}
	}

	// Base IFD carries the georeferencing.
	if len(r.levels) == 0 {
		if len(tiePoint) >= 6 {
			r.geoTrans[0] = tiePoint[3]
			r.geoTrans[3] = tiePoint[4]
		}
		if len(pixelScale) >= 2 {
			r.geoTrans[1] = pixelScale[0]
			r.geoTrans[5] = -pixelScale[1]
		}
	}

	if level.width == 0 || level.height == 0 {
		return 0, FormatError("image directory without dimensions")
	}
	if level.tileWidth == 0 || level.tileHeight == 0 {
		return 0, UnsupportedError("stripped TIFF (only tiled files are COGs)")
	}
	r.levels = append(r.levels, level)

	var nextBuf [4]byte
	nextOffset := ifdOffset + 2 + int64(numEntries*ifdEntryLen)
	if _, err := r.ra.ReadAt(nextBuf[:], nextOffset); err != nil {
		return 0, FormatError("error reading IFD chain")
	}
	return int64(r.bo.Uint32(nextBuf[:])), nil
}

// valueBytes fetches an entry's payload, following the offset indirection
// for values longer than four bytes.
func (r *Reader) valueBytes(datatype uint16, count uint32, inline []byte) ([]byte, error) {
	size, ok := typeSizes[datatype]
	if !ok {
		return nil, FormatError(fmt.Sprintf("field type %d not recognised", datatype))
	}
	total := int(size * count)
	if total <= 4 {
		return inline[:total], nil
	}
	raw := make([]byte, total)
	if _, err := r.ra.ReadAt(raw, int64(r.bo.Uint32(inline))); err != nil {
		return nil, FormatError("error reading tag value")
	}
	return raw, nil
}

func (r *Reader) scalarUint(tag, datatype uint16, count uint32, inline []byte) (uint64, error) {
	if count != 1 {
		return 0, FormatError(fmt.Sprintf("tag %d count %d not recognised", tag, count))
	}
	switch datatype {
	case dtShort:
		return uint64(r.bo.Uint16(inline[:2])), nil
	case dtLong:
		return uint64(r.bo.Uint32(inline[:4])), nil
	default:
		return 0, FormatError(fmt.Sprintf("tag %d type %d not recognised", tag, datatype))
	}
}

func (r *Reader) firstShort(tag, datatype uint16, count uint32, inline []byte) (uint16, error) {
	if datatype != dtShort || count < 1 {
		return 0, FormatError(fmt.Sprintf("tag %d type %d not recognised", tag, datatype))
	}
	raw, err := r.valueBytes(datatype, count, inline)
	if err != nil {
		return 0, err
	}
	return r.bo.Uint16(raw[:2]), nil
}

func (r *Reader) uintSlice(tag, datatype uint16, count uint32, inline []byte) ([]uint32, error) {
	if datatype != dtLong && datatype != dtShort {
		return nil, FormatError(fmt.Sprintf("tag %d type %d not recognised", tag, datatype))
	}
	raw, err := r.valueBytes(datatype, count, inline)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		if datatype == dtShort {
			out[i] = uint32(r.bo.Uint16(raw[2*i : 2*i+2]))
		} else {
			out[i] = r.bo.Uint32(raw[4*i : 4*i+4])
		}
	}
	return out, nil
}

func (r *Reader) shortSlice(tag, datatype uint16, count uint32, inline []byte) ([]uint16, error) {
	if datatype != dtShort {
		return nil, FormatError(fmt.Sprintf("tag %d type %d not recognised", tag, datatype))
	}
	raw, err := r.valueBytes(datatype, count, inline)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	for i := uint32(0); i < count; i++ {
		out[i] = r.bo.Uint16(raw[2*i : 2*i+2])
	}
	return out, nil
}

func (r *Reader) doubleSlice(tag, datatype uint16, count uint32, inline []byte) ([]float64, error) {
	if datatype != dtFloat64 {
		return nil, FormatError(fmt.Sprintf("tag %d type %d not recognised", tag, datatype))
	}
	raw, err := r.valueBytes(datatype, count, inline)
	if err != nil {
		return nil, err
	}
	out := make([]float64, count)
	for i := uint32(0); i < count; i++ {
		out[i] = math.Float64frombits(r.bo.Uint64(raw[8*i : 8*i+8]))
	}
	return out, nil
}

func (r *Reader) asciiValue(tag, datatype uint16, count uint32, inline []byte) (string, error) {
	if datatype != dtASCII {
		return "", FormatError(fmt.Sprintf("tag %d type %d not recognised", tag, datatype))
	}
	raw, err := r.valueBytes(datatype, count, inline)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(raw, "\x00")), nil
}

// Levels returns the number of resolution levels, the base image included.
func (r *Reader) Levels() int { return len(r.levels) }

// NoData returns the no-data sentinel and whether the file declared one.
func (r *Reader) NoData() (float64, bool) { return r.noData, r.hasNoData }

// CRS returns the coordinate reference system as an "EPSG:<code>" string.
func (r *Reader) CRS() (string, error) {
	if r.keys == nil {
		return "", FormatError("no GeoKeyDirectory present")
	}
	code, err := epsgFromKeys(r.keys)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("EPSG:%d", code), nil
}

// SampleType names the on-disk sample encoding of the base image.
func (r *Reader) SampleType() (string, error) {
	level := r.levels[0]
	switch level.sampleFormat {
	case sfUint:
		switch level.bitsPerSample {
		case 8:
			return "UInt8", nil
		case 16:
			return "UInt16", nil
		}
	case sfInt:
		switch level.bitsPerSample {
		case 8:
			return "Int8", nil
		case 16:
			return "Int16", nil
		}
	case sfFloat:
		switch level.bitsPerSample {
		case 32:
			return "Float32", nil
		case 64:
			return "Float64", nil
		}
	}
	return "", UnsupportedError(fmt.Sprintf("sample format %d with %d bits", level.sampleFormat, level.bitsPerSample))
}

// Transform returns the pixel-to-world transform of a level. Overview
// transforms are the base transform scaled by the resolution ratio.
func (r *Reader) Transform(level int) (geo.Affine, error) {
	if level < 0 || level >= len(r.levels) {
		return geo.Affine{}, ErrLevelRange
	}
	base := geo.FromGeoTransform(r.geoTrans)
	if level == 0 {
		return base, nil
	}
	factor := float64(r.levels[0].width) / float64(r.levels[level].width)
	return base.Scale(factor), nil
}

// Info summarises the file.
func (r *Reader) Info() (Info, error) {
	sampleType, err := r.SampleType()
	if err != nil {
		return Info{}, err
	}
	crs, err := r.CRS()
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Type:         sampleType,
		Size:         [2]int{int(r.levels[0].width), int(r.levels[0].height)},
		GeoTransform: r.geoTrans,
		CRS:          crs,
		NoData:       r.noData,
	}
	for _, level := range r.levels {
		info.Overviews = append(info.Overviews, OverviewInfo{
			Size: [2]int{int(level.width), int(level.height)},
		})
	}
	return info, nil
}

// ReadLevel reads an entire resolution level into a grid.
func (r *Reader) ReadLevel(level int) (*raster.Grid, error) {
	if level < 0 || level >= len(r.levels) {
		return nil, ErrLevelRange
	}
	desc := r.levels[level]
	return r.ReadWindow(level, image.Rect(0, 0, int(desc.width), int(desc.height)))
}

// ReadWindow reads the pixels of a level that fall inside rect. The returned
// grid has the dimensions of the clipped window.
func (r *Reader) ReadWindow(level int, rect image.Rectangle) (*raster.Grid, error) {
	if level < 0 || level >= len(r.levels) {
		return nil, ErrLevelRange
	}
	desc := r.levels[level]

	if desc.samplesPerPix != 1 {
		return nil, UnsupportedError(fmt.Sprintf("%d samples per pixel", desc.samplesPerPix))
	}

	full := image.Rect(0, 0, int(desc.width), int(desc.height))
	rect = rect.Intersect(full)
	if rect.Empty() {
		return nil, fmt.Errorf("cog: window does not intersect level %d", level)
	}

	grid, err := raster.New(rect.Dx(), rect.Dy())
	if err != nil {
		return nil, err
	}
	if r.hasNoData {
		grid.NoData = r.noData
	}

	tw, th := int(desc.tileWidth), int(desc.tileHeight)
	across := (int(desc.width) + tw - 1) / tw
	down := (int(desc.height) + th - 1) / th
	if n := across * down; len(desc.tileOffsets) < n || len(desc.tileByteCounts) < n {
		return nil, FormatError("inconsistent tile index")
	}

	for ty := rect.Min.Y / th; ty <= (rect.Max.Y-1)/th; ty++ {
		for tx := rect.Min.X / tw; tx <= (rect.Max.X-1)/tw; tx++ {
			idx := ty*across + tx
			buf, err := r.readTile(desc, idx)
			if err != nil {
				return nil, err
			}
			if err := r.copyTile(grid, desc, buf, tx, ty, rect); err != nil {
				return nil, err
			}
		}
	}
	return grid, nil
}

// readTile fetches and decompresses one tile.
func (r *Reader) readTile(desc levelDesc, idx int) ([]byte, error) {
	offset := int64(desc.tileOffsets[idx])
	n := int64(desc.tileByteCounts[idx])

	var buf []byte
	switch desc.compression {
	// Compression has no default in the spec but a missing value is
	// conventionally treated as none.
	case cNone, 0:
		buf = make([]byte, n)
		if _, err := r.ra.ReadAt(buf, offset); err != nil {
			return nil, err
		}
	case cDeflate, cDeflateOld:
		zr, err := zlib.NewReader(io.NewSectionReader(r.ra, offset, n))
		if err != nil {
			return nil, err
		}
		buf, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, err
		}
	case cPackBits:
		raw := make([]byte, n)
		if _, err := r.ra.ReadAt(raw, offset); err != nil {
			return nil, err
		}
		buf = unpackBits(raw)
	case cLZW:
		// The TIFF early-change LZW variant is not what compress/lzw
		// implements; rewriting it is not worth it for files we never
		// produce.
		return nil, UnsupportedError("LZW compression")
	default:
		return nil, UnsupportedError(fmt.Sprintf("compression value %d", desc.compression))
	}

	if desc.predictor == 2 {
		if err := undoPredictor(buf, desc, r.bo); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// copyTile converts the decompressed tile samples to float64 and copies the
// cells overlapping rect into the destination grid.
func (r *Reader) copyTile(grid *raster.Grid, desc levelDesc, buf []byte, tx, ty int, rect image.Rectangle) error {
	tw, th := int(desc.tileWidth), int(desc.tileHeight)
	sampleBytes := int(desc.bitsPerSample) / 8
	if len(buf) < tw*th*sampleBytes {
		return FormatError("not enough pixel data")
	}

	tileRect := image.Rect(tx*tw, ty*th, (tx+1)*tw, (ty+1)*th).Intersect(rect)
	for row := tileRect.Min.Y; row < tileRect.Max.Y; row++ {
		for col := tileRect.Min.X; col < tileRect.Max.X; col++ {
			off := ((row-ty*th)*tw + (col - tx*tw)) * sampleBytes
			v, err := r.sampleAt(desc, buf, off)
			if err != nil {
				return err
			}
			grid.Set(col-rect.Min.X, row-rect.Min.Y, v)
		}
	}
	return nil
}

func (r *Reader) sampleAt(desc levelDesc, buf []byte, off int) (float64, error) {
	switch desc.sampleFormat {
	case sfUint:
		switch desc.bitsPerSample {
		case 8:
			return float64(buf[off]), nil
		case 16:
			return float64(r.bo.Uint16(buf[off : off+2])), nil
		}
	case sfInt:
		switch desc.bitsPerSample {
		case 8:
			return float64(int8(buf[off])), nil
		case 16:
			return float64(int16(r.bo.Uint16(buf[off : off+2]))), nil
		}
	case sfFloat:
		switch desc.bitsPerSample {
		case 32:
			return float64(math.Float32frombits(r.bo.Uint32(buf[off : off+4]))), nil
		case 64:
			return math.Float64frombits(r.bo.Uint64(buf[off : off+8])), nil
		}
	}
	return 0, UnsupportedError(fmt.Sprintf("sample format %d with %d bits", desc.sampleFormat, desc.bitsPerSample))
}

// undoPredictor reverses horizontal differencing in place. Only defined for
// 8 and 16 bit integer samples.
func undoPredictor(buf []byte, desc levelDesc, bo binary.ByteOrder) error {
	if desc.sampleFormat == sfFloat {
		return UnsupportedError("horizontal predictor on float samples")
	}
	tw, th := int(desc.tileWidth), int(desc.tileHeight)
	switch desc.bitsPerSample {
	case 8:
		for row := 0; row < th; row++ {
			base := row * tw
			for col := 1; col < tw; col++ {
				buf[base+col] += buf[base+col-1]
			}
		}
	case 16:
		for row := 0; row < th; row++ {
			base := row * tw * 2
			for col := 1; col < tw; col++ {
				prev := bo.Uint16(buf[base+2*(col-1):])
				cur := bo.Uint16(buf[base+2*col:])
				bo.PutUint16(buf[base+2*col:], cur+prev)
			}
		}
	default:
		return UnsupportedError(fmt.Sprintf("predictor on %d-bit samples", desc.bitsPerSample))
	}
	return nil
}

// unpackBits decodes PackBits run-length encoding.
func unpackBits(src []byte) []byte {
	var dst []byte
	for i := 0; i < len(src); {
		n := int8(src[i])
		i++
		switch {
		case n >= 0:
			count := int(n) + 1
			if i+count > len(src) {
				count = len(src) - i
			}
			dst = append(dst, src[i:i+count]...)
			i += count
		case n == -128:
			// no-op
		default:
			if i < len(src) {
				for j := 0; j < 1-int(n); j++ {
					dst = append(dst, src[i])
				}
				i++
			}
		}
	}
	return dst
}
