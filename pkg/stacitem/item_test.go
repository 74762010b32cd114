package stacitem_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-cog/pkg/cog"
	"github.com/robert-malhotra/go-cog/pkg/stacitem"
)

func testInfo() cog.Info {
	return cog.Info{
		Type:         "Float32",
		Size:         [2]int{512, 512},
		GeoTransform: [6]float64{0, 10.0 / 512, 0, 10, 0, -10.0 / 512},
		CRS:          "EPSG:4326",
		NoData:       -9999,
		Overviews:    []cog.OverviewInfo{{Size: [2]int{256, 256}}},
	}
}

func TestFromInfo(t *testing.T) {
	item, err := stacitem.FromInfo("test-grid", "https://example.com/testfile.tiff", testInfo())
	require.NoError(t, err)

	assert.Equal(t, "test-grid", item.Id)
	assert.Equal(t, []float64{0, 0, 10, 10}, item.Bbox)

	// The GeoJSON type member is emitted by the item's own marshaler.
	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"Feature"`)

	assert.Equal(t, 4326, item.Properties["proj:epsg"])
	assert.Equal(t, []int{512, 512}, item.Properties["proj:shape"])
	assert.Equal(t, []float64{10.0 / 512, 0, 0, 0, -10.0 / 512, 10, 0, 0, 1},
		item.Properties["proj:transform"])
	assert.Contains(t, item.Properties, "datetime")

	bands, ok := item.Properties["raster:bands"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, bands, 1)
	assert.Equal(t, "float32", bands[0]["data_type"])
	assert.Equal(t, -9999.0, bands[0]["nodata"])
}

func TestFromInfoAsset(t *testing.T) {
	item, err := stacitem.FromInfo("test-grid", "s3://bucket/testfile.tiff", testInfo())
	require.NoError(t, err)

	asset, ok := item.Assets["data"]
	require.True(t, ok)
	assert.Equal(t, "s3://bucket/testfile.tiff", asset.Href)
	assert.Equal(t, stacitem.MediaTypeCOG, asset.Type)
	assert.Equal(t, []string{"data"}, asset.Roles)
}

func TestFromInfoGeometry(t *testing.T) {
	item, err := stacitem.FromInfo("test-grid", "f.tiff", testInfo())
	require.NoError(t, err)

	geom, ok := item.Geometry.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Polygon", geom["type"])

	rings, ok := geom["coordinates"].([][][]float64)
	require.True(t, ok)
	require.Len(t, rings, 1)
	require.Len(t, rings[0], 5)
	assert.Equal(t, rings[0][0], rings[0][4])
}

func TestFromInfoRejectsBadInput(t *testing.T) {
	_, err := stacitem.FromInfo("", "f.tiff", testInfo())
	assert.Error(t, err)

	info := testInfo()
	info.CRS = "urn:ogc:def:crs:OGC:1.3:CRS84"
	_, err = stacitem.FromInfo("test-grid", "f.tiff", info)
	assert.ErrorContains(t, err, "EPSG")
}
