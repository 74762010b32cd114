package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-cog/pkg/cog"
	"github.com/robert-malhotra/go-cog/pkg/geo"
	"github.com/robert-malhotra/go-cog/pkg/raster"
)

func writeTestCOG(t *testing.T, path string) {
	t.Helper()
	grid, err := raster.Quadrants(64, 64)
	require.NoError(t, err)
	transform, err := geo.TransformFromBounds(64, 64, geo.BoundingBox{
		LatMin: 0, LonMin: 0, LatMax: 10, LonMax: 10,
	})
	require.NoError(t, err)
	require.NoError(t, cog.Write(path, grid,
		cog.WithTransform(transform),
		cog.WithTileSize(64),
		cog.WithOverviews(false)))
}

func TestWindowCommandWritesCOG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.tiff")
	out := filepath.Join(dir, "out.tiff")
	writeTestCOG(t, src)

	err := newRootCommand().Run(context.Background(),
		[]string{"cog", "window", "--rect", "16,16,48,48", "--out", out, src})
	require.NoError(t, err)

	r, err := cog.OpenFile(out)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	info, err := r.Info()
	require.NoError(t, err)
	assert.Equal(t, [2]int{32, 32}, info.Size)
	// Origin shifted by 16 pixels of 10/64 degrees each.
	assert.InDelta(t, 2.5, info.GeoTransform[0], 1e-12)
	assert.InDelta(t, 7.5, info.GeoTransform[3], 1e-12)
}

func TestWindowCommandClipsBeforeShift(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.tiff")
	out := filepath.Join(dir, "out.tiff")
	writeTestCOG(t, src)

	// A rect reaching past the top-left edge is clipped, so the output keeps
	// the source origin instead of extrapolating into the margin.
	err := newRootCommand().Run(context.Background(),
		[]string{"cog", "window", "--rect", "-16,-16,16,16", "--out", out, src})
	require.NoError(t, err)

	r, err := cog.OpenFile(out)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	info, err := r.Info()
	require.NoError(t, err)
	assert.Equal(t, [2]int{16, 16}, info.Size)
	assert.InDelta(t, 0.0, info.GeoTransform[0], 1e-12)
	assert.InDelta(t, 10.0, info.GeoTransform[3], 1e-12)
}
