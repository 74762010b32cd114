package downloader_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-cog/pkg/downloader"
)

func TestDownloadHTTP(t *testing.T) {
	payload := []byte("not really a tiff but good enough")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "out.tiff")
	var lastDownloaded, lastTotal int64
	err := downloader.DownloadWithProgress(context.Background(), server.URL+"/f.tiff", dest,
		func(downloaded, total int64) {
			lastDownloaded, lastTotal = downloaded, total
		})
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, int64(len(payload)), lastDownloaded)
	assert.Equal(t, int64(len(payload)), lastTotal)
}

func TestDownloadCleansUpOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "out.tiff")
	err := downloader.Download(context.Background(), server.URL+"/f.tiff", dest)
	require.Error(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadRejectsUnknownScheme(t *testing.T) {
	err := downloader.Download(context.Background(), "ftp://example.com/f.tiff", "out.tiff")
	assert.ErrorContains(t, err, "unsupported URL scheme")
}
