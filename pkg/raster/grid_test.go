package raster

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuadrants(t *testing.T) {
	g, err := Quadrants(512, 512)
	require.NoError(t, err)

	// Row 0 is north: NW=1, NE=4, SW=2, SE=3.
	assert.Equal(t, 1.0, g.At(0, 0))
	assert.Equal(t, 1.0, g.At(255, 255))
	assert.Equal(t, 4.0, g.At(256, 0))
	assert.Equal(t, 2.0, g.At(0, 256))
	assert.Equal(t, 3.0, g.At(511, 511))
}

func TestQuadrantsRejectsEmpty(t *testing.T) {
	_, err := Quadrants(0, 512)
	assert.Error(t, err)
}

func TestFillClips(t *testing.T) {
	g, err := New(4, 4)
	require.NoError(t, err)

	g.Fill(image.Rect(2, 2, 10, 10), 7)
	assert.Equal(t, 0.0, g.At(1, 1))
	assert.Equal(t, 7.0, g.At(2, 2))
	assert.Equal(t, 7.0, g.At(3, 3))
}

func TestDownsampleAverages(t *testing.T) {
	g, err := New(4, 4)
	require.NoError(t, err)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			g.Set(col, row, float64(row*4+col))
		}
	}

	out, err := g.Downsample(2)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Width)
	assert.Equal(t, 2, out.Height)
	// Top-left block holds 0,1,4,5.
	assert.InDelta(t, 2.5, out.At(0, 0), 1e-12)
	// Bottom-right block holds 10,11,14,15.
	assert.InDelta(t, 12.5, out.At(1, 1), 1e-12)
}

func TestDownsampleSkipsNoData(t *testing.T) {
	g, err := NewFilled(2, 2, DefaultNoData)
	require.NoError(t, err)
	g.Set(0, 0, 8)

	out, err := g.Downsample(2)
	require.NoError(t, err)
	assert.Equal(t, 8.0, out.At(0, 0))

	all, err := NewFilled(2, 2, DefaultNoData)
	require.NoError(t, err)
	out, err = all.Downsample(2)
	require.NoError(t, err)
	assert.Equal(t, float64(DefaultNoData), out.At(0, 0))
}

func TestDownsampleOddEdge(t *testing.T) {
	g, err := NewFilled(5, 3, 2)
	require.NoError(t, err)

	out, err := g.Downsample(2)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Width)
	assert.Equal(t, 2, out.Height)
	// Edge blocks average over present cells only.
	assert.Equal(t, 2.0, out.At(2, 1))
}

func TestStats(t *testing.T) {
	g, err := New(2, 2)
	require.NoError(t, err)
	g.Set(0, 0, 1)
	g.Set(1, 0, 3)
	g.Set(0, 1, DefaultNoData)
	g.Set(1, 1, math.NaN())

	s := g.Stats()
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.Equal(t, 2.0, s.Mean)
	assert.Equal(t, 2, s.Valid)

	empty, err := NewFilled(2, 2, DefaultNoData)
	require.NoError(t, err)
	s = empty.Stats()
	assert.Equal(t, 0, s.Valid)
	assert.True(t, math.IsNaN(s.Min))
}
