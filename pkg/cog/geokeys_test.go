package cog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEPSG(t *testing.T) {
	code, err := parseEPSG("EPSG:4326")
	require.NoError(t, err)
	assert.Equal(t, uint16(4326), code)

	code, err = parseEPSG(" EPSG:3857 ")
	require.NoError(t, err)
	assert.Equal(t, uint16(3857), code)

	_, err = parseEPSG("4326")
	assert.Error(t, err)
	_, err = parseEPSG("EPSG:WGS84")
	assert.Error(t, err)
	_, err = parseEPSG("EPSG:999999")
	assert.Error(t, err)
}

func TestGeoKeyDirectoryRoundTrip(t *testing.T) {
	keys, ascii := geoKeysForEPSG(4326)
	assert.Equal(t, "EPSG:4326|", ascii)

	dir := encodeKeyDirectory(keys)
	require.GreaterOrEqual(t, len(dir), 4)
	assert.Equal(t, uint16(1), dir[0])
	assert.Equal(t, uint16(len(keys)), dir[3])

	decoded, err := decodeKeyDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, keys, decoded)

	code, err := epsgFromKeys(decoded)
	require.NoError(t, err)
	assert.Equal(t, uint16(4326), code)
}

func TestGeoKeysModelSelection(t *testing.T) {
	keys, _ := geoKeysForEPSG(4326)
	code, err := epsgFromKeys(keys)
	require.NoError(t, err)
	assert.Equal(t, uint16(4326), code)
	assertHasKey(t, keys, keyGeographicType)

	keys, _ = geoKeysForEPSG(32633)
	code, err = epsgFromKeys(keys)
	require.NoError(t, err)
	assert.Equal(t, uint16(32633), code)
	assertHasKey(t, keys, keyProjectedCSType)
}

func TestGeoKeysSorted(t *testing.T) {
	for _, code := range []uint16{4326, 3857, 32633} {
		keys, _ := geoKeysForEPSG(code)
		for i := 1; i < len(keys); i++ {
			assert.Less(t, keys[i-1].KeyID, keys[i].KeyID)
		}
	}
}

func TestDecodeKeyDirectoryErrors(t *testing.T) {
	_, err := decodeKeyDirectory([]uint16{1, 1})
	assert.Error(t, err)

	_, err = decodeKeyDirectory([]uint16{2, 0, 0, 0})
	assert.Error(t, err)

	_, err = decodeKeyDirectory([]uint16{1, 1, 0, 2, 1024, 0, 1, 2})
	assert.Error(t, err)
}

func assertHasKey(t *testing.T, entries []keyEntry, id uint16) {
	t.Helper()
	for _, e := range entries {
		if e.KeyID == id {
			return
		}
	}
	t.Errorf("key %d not present in directory", id)
}
