package cog

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/robert-malhotra/go-cog/pkg/geo"
	"github.com/robert-malhotra/go-cog/pkg/raster"
)

// Compression selects the tile compression scheme.
type Compression uint16

const (
	// CompressionDeflate zlib-compresses each tile (TIFF scheme 8).
	CompressionDeflate Compression = cDeflate
	// CompressionNone stores tiles raw.
	CompressionNone Compression = cNone
)

// SampleFormat selects the on-disk sample encoding.
type SampleFormat int

const (
	// Float32 stores samples as IEEE 754 single precision.
	Float32 SampleFormat = iota
	// Float64 stores samples as IEEE 754 double precision.
	Float64
)

// WriteMode selects the file write strategy.
type WriteMode string

const (
	// ModeDirect writes the target file in place.
	ModeDirect WriteMode = "direct"
	// ModeAtomic stages the output in a temp file and renames on success.
	ModeAtomic WriteMode = "atomic"
)

// WriteOption configures a write in the functional-option style.
type WriteOption func(*writeConfig) error

type writeConfig struct {
	crs          string
	transform    geo.Affine
	hasTransform bool
	noData       *float64
	tileSize     int
	compression  Compression
	overviews    bool
	minOverview  int
	sampleFormat SampleFormat
	mode         WriteMode
}

// WithCRS sets the coordinate reference system as an "EPSG:<code>" string.
func WithCRS(crs string) WriteOption {
	return func(c *writeConfig) error {
		if _, err := parseEPSG(crs); err != nil {
			return err
		}
		c.crs = crs
		return nil
	}
}

// WithTransform sets the pixel-to-world transform. Required.
func WithTransform(t geo.Affine) WriteOption {
	return func(c *writeConfig) error {
		c.transform = t
		c.hasTransform = true
		return nil
	}
}

// WithNoData overrides the grid's no-data sentinel in the output metadata.
func WithNoData(v float64) WriteOption {
	return func(c *writeConfig) error {
		c.noData = &v
		return nil
	}
}

// WithTileSize sets the tile edge length. TIFF requires a multiple of 16.
func WithTileSize(size int) WriteOption {
	return func(c *writeConfig) error {
		if size <= 0 || size%16 != 0 {
			return fmt.Errorf("cog: tile size %d must be a positive multiple of 16", size)
		}
		c.tileSize = size
		return nil
	}
}

// WithCompression selects the tile compression scheme.
func WithCompression(comp Compression) WriteOption {
	return func(c *writeConfig) error {
		switch comp {
		case CompressionDeflate, CompressionNone:
			c.compression = comp
			return nil
		default:
			return fmt.Errorf("cog: compression %d not supported by the writer", comp)
		}
	}
}

// WithOverviews toggles overview pyramid generation.
func WithOverviews(enabled bool) WriteOption {
	return func(c *writeConfig) error {
		c.overviews = enabled
		return nil
	}
}

// WithMinOverviewSize sets the dimension below which no further overview
// levels are generated.
func WithMinOverviewSize(size int) WriteOption {
	return func(c *writeConfig) error {
		if size < 1 {
			return fmt.Errorf("cog: min overview size %d must be positive", size)
		}
		c.minOverview = size
		return nil
	}
}

// WithSampleFormat selects the on-disk sample encoding.
func WithSampleFormat(sf SampleFormat) WriteOption {
	return func(c *writeConfig) error {
		switch sf {
		case Float32, Float64:
			c.sampleFormat = sf
			return nil
		default:
			return fmt.Errorf("cog: unknown sample format %d", sf)
		}
	}
}

// WithMode selects the file write strategy used by Write.
func WithMode(mode WriteMode) WriteOption {
	return func(c *writeConfig) error {
		switch mode {
		case ModeDirect, ModeAtomic:
			c.mode = mode
			return nil
		default:
			return fmt.Errorf("cog: unknown write mode %q", mode)
		}
	}
}

func newWriteConfig(opts []WriteOption) (*writeConfig, error) {
	c := &writeConfig{
		crs:         "EPSG:4326",
		tileSize:    256,
		compression: CompressionDeflate,
		overviews:   true,
		minOverview: 256,
		mode:        ModeDirect,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Write encodes the grid as a Cloud-Optimized GeoTIFF at path.
func Write(path string, g *raster.Grid, opts ...WriteOption) error {
	cfg, err := newWriteConfig(opts)
	if err != nil {
		return err
	}

	target := path
	if cfg.mode == ModeAtomic {
		tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
		if err != nil {
			return err
		}
		target = tmp.Name()
		tmp.Close()
	}

	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if err := encode(f, g, cfg); err != nil {
		f.Close()
		os.Remove(target)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return err
	}

	if cfg.mode == ModeAtomic {
		if err := os.Rename(target, path); err != nil {
			os.Remove(target)
			return err
		}
	}
	return nil
}

// Encode writes the grid as a Cloud-Optimized GeoTIFF to w. The write mode
// option is ignored here since there is no file to stage.
func Encode(w io.Writer, g *raster.Grid, opts ...WriteOption) error {
	cfg, err := newWriteConfig(opts)
	if err != nil {
		return err
	}
	return encode(w, g, cfg)
}

// ifdEntry is a single directory entry with its value already encoded in
// little-endian bytes. Values longer than four bytes spill to the out-of-line
// area during layout.
type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte

	offset uint32 // assigned during layout for out-of-line values
}

func entryShort(tag uint16, v uint16) ifdEntry {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return ifdEntry{tag: tag, typ: dtShort, count: 1, value: b}
}

func entryLong(tag uint16, v uint32) ifdEntry {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return ifdEntry{tag: tag, typ: dtLong, count: 1, value: b}
}

func entryLongs(tag uint16, vs []uint32) ifdEntry {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return ifdEntry{tag: tag, typ: dtLong, count: uint32(len(vs)), value: b}
}

func entryShorts(tag uint16, vs []uint16) ifdEntry {
	b := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}
	return ifdEntry{tag: tag, typ: dtShort, count: uint32(len(vs)), value: b}
}

func entryDoubles(tag uint16, vs []float64) ifdEntry {
	b := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(v))
	}
	return ifdEntry{tag: tag, typ: dtFloat64, count: uint32(len(vs)), value: b}
}

func entryASCII(tag uint16, s string) ifdEntry {
	b := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: dtASCII, count: uint32(len(b)), value: b}
}

// writerLevel holds the per-resolution state assembled before layout.
type writerLevel struct {
	grid    *raster.Grid
	tiles   [][]byte
	entries []ifdEntry
}

func encode(w io.Writer, g *raster.Grid, cfg *writeConfig) error {
	if g == nil || g.Width <= 0 || g.Height <= 0 {
		return ErrNilGrid
	}
	if !cfg.hasTransform {
		return ErrNoTransform
	}
	epsg, err := parseEPSG(cfg.crs)
	if err != nil {
		return err
	}

	noData := g.NoData
	if cfg.noData != nil {
		noData = *cfg.noData
	}

	// Resolution pyramid, base first.
	grids := []*raster.Grid{g}
	if cfg.overviews {
		cur := g
		for min(cur.Width, cur.Height) > cfg.minOverview {
			next, err := cur.Downsample(2)
			if err != nil {
				return err
			}
			grids = append(grids, next)
			cur = next
		}
	}

	levels := make([]*writerLevel, len(grids))
	for i, grid := range grids {
		tiles, err := encodeTiles(grid, noData, cfg)
		if err != nil {
			return err
		}
		levels[i] = &writerLevel{grid: grid, tiles: tiles}
	}

	for i, level := range levels {
		level.entries = levelEntries(level, i > 0, cfg)
		if i == 0 {
			level.entries = append(level.entries, geoEntries(cfg.transform, epsg, noData)...)
		}
		sort.Slice(level.entries, func(a, b int) bool {
			return level.entries[a].tag < level.entries[b].tag
		})
	}

	return writeLayout(w, levels)
}

// encodeTiles splits the grid into fixed-size tiles in row-major order, pads
// edge tiles with the no-data value and compresses each tile.
func encodeTiles(g *raster.Grid, noData float64, cfg *writeConfig) ([][]byte, error) {
	ts := cfg.tileSize
	across := (g.Width + ts - 1) / ts
	down := (g.Height + ts - 1) / ts

	sampleBytes := 4
	if cfg.sampleFormat == Float64 {
		sampleBytes = 8
	}

	tiles := make([][]byte, 0, across*down)
	raw := make([]byte, ts*ts*sampleBytes)
	for ty := 0; ty < down; ty++ {
		for tx := 0; tx < across; tx++ {
			off := 0
			for dy := 0; dy < ts; dy++ {
				for dx := 0; dx < ts; dx++ {
					col, row := tx*ts+dx, ty*ts+dy
					v := noData
					if col < g.Width && row < g.Height {
						v = g.At(col, row)
					}
					if cfg.sampleFormat == Float64 {
						binary.LittleEndian.PutUint64(raw[off:], math.Float64bits(v))
					} else {
						binary.LittleEndian.PutUint32(raw[off:], math.Float32bits(float32(v)))
					}
					off += sampleBytes
				}
			}

			switch cfg.compression {
			case CompressionDeflate:
				var buf bytes.Buffer
				zw := zlib.NewWriter(&buf)
				if _, err := zw.Write(raw); err != nil {
					return nil, err
				}
				if err := zw.Close(); err != nil {
					return nil, err
				}
				tiles = append(tiles, append([]byte(nil), buf.Bytes()...))
			default:
				tiles = append(tiles, append([]byte(nil), raw...))
			}
		}
	}
	return tiles, nil
}

func levelEntries(level *writerLevel, overview bool, cfg *writeConfig) []ifdEntry {
	bits := uint16(32)
	if cfg.sampleFormat == Float64 {
		bits = 64
	}
	subfile := uint32(0)
	if overview {
		subfile = 1
	}

	counts := make([]uint32, len(level.tiles))
	for i, tile := range level.tiles {
		counts[i] = uint32(len(tile))
	}

	return []ifdEntry{
		entryLong(tNewSubfileType, subfile),
		entryLong(tImageWidth, uint32(level.grid.Width)),
		entryLong(tImageLength, uint32(level.grid.Height)),
		entryShort(tBitsPerSample, bits),
		entryShort(tCompression, uint16(cfg.compression)),
		entryShort(tPhotometricInterpr, pBlackIsZero),
		entryShort(tSamplesPerPixel, 1),
		entryShort(tPlanarConfiguration, 1),
		entryShort(tTileWidth, uint16(cfg.tileSize)),
		entryShort(tTileLength, uint16(cfg.tileSize)),
		entryLongs(tTileOffsets, make([]uint32, len(level.tiles))),
		entryLongs(tTileByteCounts, counts),
		entryShort(tSampleFormat, sfFloat),
	}
}

// geoEntries emits the georeferencing tags carried only by the base IFD.
func geoEntries(t geo.Affine, epsg uint16, noData float64) []ifdEntry {
	keys, ascii := geoKeysForEPSG(epsg)
	return []ifdEntry{
		entryDoubles(tModelPixelScale, []float64{t.A, -t.E, 0}),
		entryDoubles(tModelTiepoint, []float64{0, 0, 0, t.C, t.F, 0}),
		entryShorts(tGeoKeyDirectory, encodeKeyDirectory(keys)),
		entryASCII(tGeoAsciiParams, ascii),
		entryASCII(tGDALNoData, strconv.FormatFloat(noData, 'g', -1, 64)),
	}
}

// writeLayout serialises header, IFD chain, out-of-line values and tile data.
// All structure lands at the head of the file so that remote readers can
// learn the full layout from a single leading fetch.
func writeLayout(w io.Writer, levels []*writerLevel) error {
	const headerLen = 8

	ifdSizes := make([]uint32, len(levels))
	var ifdTotal uint32
	for i, level := range levels {
		ifdSizes[i] = uint32(2 + ifdEntryLen*len(level.entries) + 4)
		ifdTotal += ifdSizes[i]
	}

	// Assign out-of-line value offsets.
	cursor := headerLen + ifdTotal
	for _, level := range levels {
		for i := range level.entries {
			e := &level.entries[i]
			if len(e.value) > 4 {
				if cursor%2 == 1 {
					cursor++
				}
				e.offset = cursor
				cursor += uint32(len(e.value))
			}
		}
	}
	if cursor%2 == 1 {
		cursor++
	}

	// Assign tile data offsets, base level first, and patch the TileOffsets
	// entries in place.
	tileStart := cursor
	for _, level := range levels {
		for i := range level.entries {
			e := &level.entries[i]
			if e.tag != tTileOffsets {
				continue
			}
			for ti, tile := range level.tiles {
				binary.LittleEndian.PutUint32(e.value[4*ti:], cursor)
				cursor += uint32(len(tile))
				if cursor%2 == 1 {
					cursor++
				}
			}
		}
	}

	buf := bytes.NewBuffer(make([]byte, 0, int(cursor)))

	// Header.
	buf.WriteString(leHeader[:2])
	le16 := func(v uint16) {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], v)
		buf.Write(b[:])
	}
	le32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	le16(42)
	le32(headerLen)

	// IFD chain.
	nextIFD := uint32(headerLen)
	for i, level := range levels {
		nextIFD += ifdSizes[i]
		le16(uint16(len(level.entries)))
		for _, e := range level.entries {
			le16(e.tag)
			le16(e.typ)
			le32(e.count)
			if len(e.value) > 4 {
				le32(e.offset)
			} else {
				var inline [4]byte
				copy(inline[:], e.value)
				buf.Write(inline[:])
			}
		}
		if i == len(levels)-1 {
			le32(0)
		} else {
			le32(nextIFD)
		}
	}

	// Out-of-line values.
	for _, level := range levels {
		for _, e := range level.entries {
			if len(e.value) > 4 {
				if buf.Len()%2 == 1 {
					buf.WriteByte(0)
				}
				if uint32(buf.Len()) != e.offset {
					return fmt.Errorf("cog: internal layout error at tag %d", e.tag)
				}
				buf.Write(e.value)
			}
		}
	}
	if buf.Len()%2 == 1 {
		buf.WriteByte(0)
	}

	// Tile data.
	if uint32(buf.Len()) != tileStart {
		return fmt.Errorf("cog: internal layout error at tile data")
	}
	for _, level := range levels {
		for _, tile := range level.tiles {
			buf.Write(tile)
			if buf.Len()%2 == 1 {
				buf.WriteByte(0)
			}
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}
