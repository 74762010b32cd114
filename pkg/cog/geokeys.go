package cog

import (
	"fmt"
	"strconv"
	"strings"
)

// GeoKey IDs from the GeoTIFF 1.0 key directory.
const (
	keyModelType       = 1024
	keyRasterType      = 1025
	keyCitation        = 1026
	keyGeographicType  = 2048
	keyProjectedCSType = 3072
)

// Model types for keyModelType.
const (
	modelProjected  = 1
	modelGeographic = 2
)

// rasterPixelIsArea marks pixels as areas rather than points.
const rasterPixelIsArea = 1

// keyEntry is one row of the GeoKeyDirectory: key ID, the TIFF tag holding
// the value (0 for inline shorts), value count and value/offset.
type keyEntry struct {
	KeyID    uint16
	Location uint16
	Count    uint16
	Value    uint16
}

// parseEPSG extracts the numeric code from a "EPSG:<code>" CRS string.
func parseEPSG(crs string) (uint16, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(crs), "EPSG:")
	if !ok {
		return 0, fmt.Errorf("cog: CRS %q is not an EPSG code", crs)
	}
	code, err := strconv.ParseUint(rest, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("cog: CRS %q is not an EPSG code: %w", crs, err)
	}
	return uint16(code), nil
}

// geoKeysForEPSG builds the key directory and ASCII params for an EPSG code.
// Geographic systems (4000-4999) reference GeographicTypeGeoKey, everything
// else is treated as a projected system.
func geoKeysForEPSG(code uint16) (entries []keyEntry, ascii string) {
	geographic := code >= 4000 && code < 5000

	citation := fmt.Sprintf("EPSG:%d|", code)
	entries = []keyEntry{
		{KeyID: keyRasterType, Count: 1, Value: rasterPixelIsArea},
		{KeyID: keyCitation, Location: tGeoAsciiParams, Count: uint16(len(citation)), Value: 0},
	}
	if geographic {
		entries = append([]keyEntry{{KeyID: keyModelType, Count: 1, Value: modelGeographic}}, entries...)
		entries = append(entries, keyEntry{KeyID: keyGeographicType, Count: 1, Value: code})
	} else {
		entries = append([]keyEntry{{KeyID: keyModelType, Count: 1, Value: modelProjected}}, entries...)
		entries = append(entries, keyEntry{KeyID: keyProjectedCSType, Count: 1, Value: code})
	}
	return entries, citation
}

// encodeKeyDirectory flattens entries into the SHORT array stored in tag
// 34735: a version header followed by one 4-short row per key.
func encodeKeyDirectory(entries []keyEntry) []uint16 {
	dir := make([]uint16, 0, 4*(len(entries)+1))
	dir = append(dir, 1, 1, 0, uint16(len(entries)))
	for _, e := range entries {
		dir = append(dir, e.KeyID, e.Location, e.Count, e.Value)
	}
	return dir
}

// decodeKeyDirectory parses the SHORT array of tag 34735.
func decodeKeyDirectory(dir []uint16) ([]keyEntry, error) {
	if len(dir) < 4 {
		return nil, FormatError("GeoKeyDirectory too short")
	}
	if dir[0] != 1 {
		return nil, FormatError(fmt.Sprintf("GeoKeyDirectory version %d not recognised", dir[0]))
	}
	numKeys := int(dir[3])
	if len(dir) < 4*(numKeys+1) {
		return nil, FormatError("GeoKeyDirectory truncated")
	}
	entries := make([]keyEntry, numKeys)
	for i := 0; i < numKeys; i++ {
		row := dir[4*(i+1) : 4*(i+2)]
		entries[i] = keyEntry{KeyID: row[0], Location: row[1], Count: row[2], Value: row[3]}
	}
	return entries, nil
}

// epsgFromKeys recovers the EPSG code from a parsed key directory. The model
// type key decides whether the geographic or projected CS key carries it.
func epsgFromKeys(entries []keyEntry) (uint16, error) {
	find := func(id uint16) (uint16, bool) {
		for _, e := range entries {
			if e.KeyID == id && e.Location == 0 {
				return e.Value, true
			}
		}
		return 0, false
	}

	model, ok := find(keyModelType)
	if !ok {
		return 0, FormatError("GeoKeyDirectory missing model type key")
	}
	switch model {
	case modelGeographic:
		if code, ok := find(keyGeographicType); ok {
			return code, nil
		}
		return 0, FormatError("geographic model without GeographicTypeGeoKey")
	case modelProjected:
		if code, ok := find(keyProjectedCSType); ok {
			return code, nil
		}
		return 0, FormatError("projected model without ProjectedCSTypeGeoKey")
	default:
		return 0, UnsupportedError(fmt.Sprintf("model type %d", model))
	}
}
