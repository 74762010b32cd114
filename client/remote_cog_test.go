package cogclient_test

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cogclient "github.com/robert-malhotra/go-cog/client"
	"github.com/robert-malhotra/go-cog/pkg/cog"
	"github.com/robert-malhotra/go-cog/pkg/geo"
	"github.com/robert-malhotra/go-cog/pkg/raster"
)

// End to end: encode a COG, serve it over HTTP with range support, and read a
// window through the block-caching remote reader without downloading the
// whole file.
func TestRemoteWindowRead(t *testing.T) {
	grid, err := raster.Quadrants(512, 512)
	require.NoError(t, err)
	transform, err := geo.TransformFromBounds(512, 512, geo.BoundingBox{
		LatMin: 0, LonMin: 0, LatMax: 10, LonMax: 10,
	})
	require.NoError(t, err)

	// Uncompressed tiles keep the file large enough that a full download
	// would need many blocks.
	var buf bytes.Buffer
	require.NoError(t, cog.Encode(&buf, grid,
		cog.WithTransform(transform),
		cog.WithCompression(cog.CompressionNone)))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "testfile.tiff", time.Time{}, bytes.NewReader(buf.Bytes()))
	}))
	t.Cleanup(server.Close)

	client, err := cogclient.New(cogclient.WithBlockSize(16 * 1024))
	require.NoError(t, err)

	remote, err := client.Open(context.Background(), server.URL+"/testfile.tiff")
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), remote.Size())

	reader, err := cog.NewReader(remote)
	require.NoError(t, err)

	info, err := reader.Info()
	require.NoError(t, err)
	assert.Equal(t, [2]int{512, 512}, info.Size)
	assert.Equal(t, "EPSG:4326", info.CRS)

	win, err := reader.ReadWindow(0, image.Rect(0, 0, 64, 64))
	require.NoError(t, err)
	assert.Equal(t, 1.0, win.At(0, 0))
	assert.Equal(t, 1.0, win.At(63, 63))

	// One window touches one base tile, so far fewer blocks than a full
	// download would take.
	totalBlocks := (buf.Len() + 16*1024 - 1) / (16 * 1024)
	assert.Less(t, remote.Requests(), totalBlocks/2)
}
