package main

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-cog/pkg/cog"
	"github.com/robert-malhotra/go-cog/pkg/geo"
)

func TestParseBBox(t *testing.T) {
	bbox, err := parseBBox("0,0,10,10")
	require.NoError(t, err)
	assert.Equal(t, geo.BoundingBox{LatMin: 0, LonMin: 0, LatMax: 10, LonMax: 10}, bbox)

	bbox, err = parseBBox(" -5.5, 100 , 5.5 , 120 ")
	require.NoError(t, err)
	assert.Equal(t, geo.BoundingBox{LatMin: -5.5, LonMin: 100, LatMax: 5.5, LonMax: 120}, bbox)

	_, err = parseBBox("0,0,10")
	assert.Error(t, err)
	_, err = parseBBox("0,0,ten,10")
	assert.Error(t, err)
	_, err = parseBBox("10,10,0,0")
	assert.Error(t, err)
}

func TestParseRect(t *testing.T) {
	rect, err := parseRect("10,20,110,220")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 20, 110, 220), rect)

	_, err = parseRect("10,20,110")
	assert.Error(t, err)
	_, err = parseRect("10,20,10,220")
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	comp, err := parseCompression("deflate")
	require.NoError(t, err)
	assert.Equal(t, cog.CompressionDeflate, comp)

	comp, err = parseCompression("None")
	require.NoError(t, err)
	assert.Equal(t, cog.CompressionNone, comp)

	_, err = parseCompression("lzw")
	assert.Error(t, err)
}

func TestIsRemote(t *testing.T) {
	assert.True(t, isRemote("http://example.com/f.tiff"))
	assert.True(t, isRemote("https://example.com/f.tiff"))
	assert.False(t, isRemote("/tmp/f.tiff"))
	assert.False(t, isRemote("s3://bucket/f.tiff"))
}
