package cog_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/tiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-cog/pkg/cog"
)

// Writer output is cross-checked against an independent TIFF parser.
func TestWriterOutputParsesAsTIFF(t *testing.T) {
	grid, transform := quadrantFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cog.Encode(&buf, grid, cog.WithTransform(transform)))

	parsed, err := tiff.Parse(bytes.NewReader(buf.Bytes()), nil, nil)
	require.NoError(t, err)

	ifds := parsed.IFDs()
	require.Len(t, ifds, 2)

	base := ifds[0]
	for _, tag := range []uint16{256, 257, 258, 259, 322, 323, 324, 325, 339} {
		assert.True(t, base.HasField(tag), "base IFD missing tag %d", tag)
	}
	for _, tag := range []uint16{33550, 33922, 34735, 34737, 42113} {
		assert.True(t, base.HasField(tag), "base IFD missing geo tag %d", tag)
	}

	overview := ifds[1]
	assert.True(t, overview.HasField(322))
	assert.False(t, overview.HasField(34735))

	width := base.GetField(256)
	require.EqualValues(t, 1, width.Count())
	assert.EqualValues(t, 512, binary.LittleEndian.Uint32(width.Value().Bytes()))

	ovWidth := overview.GetField(256)
	assert.EqualValues(t, 256, binary.LittleEndian.Uint32(ovWidth.Value().Bytes()))

	scale := base.GetField(33550)
	require.EqualValues(t, 3, scale.Count())
	raw := scale.Value().Bytes()
	pixelWidth := math.Float64frombits(binary.LittleEndian.Uint64(raw[0:8]))
	assert.Equal(t, 10.0/512, pixelWidth)
}

// The IFD chain and tag payloads must precede every tile so a remote client
// can learn the layout from one leading range request.
func TestWriterTilesFollowHeader(t *testing.T) {
	grid, transform := quadrantFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cog.Encode(&buf, grid, cog.WithTransform(transform)))
	raw := buf.Bytes()

	// Walk the IFD chain from the header to find where structure ends.
	var lastIFDEnd uint32
	ifdCount := 0
	offset := binary.LittleEndian.Uint32(raw[4:8])
	for offset != 0 {
		ifdCount++
		entries := uint32(binary.LittleEndian.Uint16(raw[offset : offset+2]))
		nextPtr := offset + 2 + entries*12
		if end := nextPtr + 4; end > lastIFDEnd {
			lastIFDEnd = end
		}
		offset = binary.LittleEndian.Uint32(raw[nextPtr : nextPtr+4])
	}
	require.Equal(t, 2, ifdCount)

	parsed, err := tiff.Parse(bytes.NewReader(raw), nil, nil)
	require.NoError(t, err)

	var minTile uint32 = ^uint32(0)
	for _, ifd := range parsed.IFDs() {
		offsets := ifd.GetField(324)
		require.NotNil(t, offsets)
		payload := offsets.Value().Bytes()
		for i := uint32(0); i < uint32(offsets.Count()); i++ {
			if off := binary.LittleEndian.Uint32(payload[4*i:]); off < minTile {
				minTile = off
			}
		}
	}

	assert.Greater(t, minTile, lastIFDEnd)
}
