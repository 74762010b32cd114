package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-cog/pkg/raster"
)

func TestLoadCreateSettingsDefaults(t *testing.T) {
	settings, err := loadCreateSettings("")
	require.NoError(t, err)
	assert.Equal(t, defaultCreateSettings(), settings)
	assert.Equal(t, 512, settings.Width)
	assert.Equal(t, "0,0,10,10", settings.BBox)
	assert.Equal(t, -9999.0, settings.NoData)
}

func TestLoadCreateSettingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"width: 1024\nbbox: \"40,-80,50,-70\"\nepsg: 3857\ncompression: none\n"), 0o644))

	settings, err := loadCreateSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 1024, settings.Width)
	assert.Equal(t, 512, settings.Height)
	assert.Equal(t, "40,-80,50,-70", settings.BBox)
	assert.Equal(t, 3857, settings.EPSG)
	assert.Equal(t, "none", settings.Compression)
	assert.Equal(t, "direct", settings.Mode)
}

func TestLoadCreateSettingsErrors(t *testing.T) {
	_, err := loadCreateSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: [not an int\n"), 0o644))
	_, err = loadCreateSettings(path)
	assert.Error(t, err)
}

func TestRenderShades(t *testing.T) {
	grid := mustQuadrants(t, 8, 8)
	out := renderShades(grid, 8, 8)
	lines := nonEmptyLines(out)
	require.Len(t, lines, 8)

	// Higher quadrant labels render as darker ramp characters.
	assert.NotEqual(t, lines[0][0], lines[0][7])
	assert.Equal(t, byte('@'), lines[0][7])
}

func TestRenderShadesClampsToGrid(t *testing.T) {
	grid := mustQuadrants(t, 4, 4)
	out := renderShades(grid, 100, 100)
	lines := nonEmptyLines(out)
	require.Len(t, lines, 4)
	assert.Len(t, lines[0], 4)
}

func mustQuadrants(t *testing.T, w, h int) *raster.Grid {
	t.Helper()
	grid, err := raster.Quadrants(w, h)
	require.NoError(t, err)
	return grid
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
