package cog

// TIFF header magic for the two byte orders.
const (
	leHeader = "II\x2A\x00"
	beHeader = "MM\x00\x2A"
)

// Baseline and GeoTIFF tag IDs used by the codec.
const (
	tNewSubfileType      = 254
	tImageWidth          = 256
	tImageLength         = 257
	tBitsPerSample       = 258
	tCompression         = 259
	tPhotometricInterpr  = 262
	tSamplesPerPixel     = 277
	tPlanarConfiguration = 284
	tPredictor           = 317
	tTileWidth           = 322
	tTileLength          = 323
	tTileOffsets         = 324
	tTileByteCounts      = 325
	tSampleFormat        = 339
	tModelPixelScale     = 33550
	tModelTiepoint       = 33922
	tModelTransformation = 34264
	tGeoKeyDirectory     = 34735
	tGeoDoubleParams     = 34736
	tGeoAsciiParams      = 34737
	tGDALMetadata        = 42112
	tGDALNoData          = 42113
)

// IFD entry field types.
const (
	dtByte     = 1
	dtASCII    = 2
	dtShort    = 3
	dtLong     = 4
	dtRational = 5
	dtFloat32  = 11
	dtFloat64  = 12
)

// typeSizes maps field types to their byte widths.
var typeSizes = map[uint16]uint32{
	dtByte:     1,
	dtASCII:    1,
	dtShort:    2,
	dtLong:     4,
	dtRational: 8,
	dtFloat32:  4,
	dtFloat64:  8,
}

// Compression schemes.
const (
	cNone       = 1
	cLZW        = 5
	cDeflateOld = 32946
	cDeflate    = 8
	cPackBits   = 32773
)

// Photometric interpretations.
const pBlackIsZero = 1

// Sample formats (tag 339).
const (
	sfUint  = 1
	sfInt   = 2
	sfFloat = 3
)

const ifdEntryLen = 12
