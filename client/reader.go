package cogclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// RemoteReader is a block-cached io.ReaderAt / io.ReadSeeker over a remote
// resource. Blocks are fetched on demand with HTTP Range requests and kept
// for the lifetime of the reader, so re-reads of the TIFF head are free.
// Concurrent ReadAt calls are safe.
type RemoteReader struct {
	client *Client
	url    string
	size   int64

	mu     sync.Mutex
	blocks map[int64][]byte
	pos    int64
}

func newRemoteReader(c *Client, url string, size int64) *RemoteReader {
	return &RemoteReader{
		client: c,
		url:    url,
		size:   size,
		blocks: make(map[int64][]byte),
	}
}

// Size returns the total size of the remote resource.
func (r *RemoteReader) Size() int64 { return r.size }

// URL returns the resource URL the reader was opened with.
func (r *RemoteReader) URL() string { return r.url }

// Requests returns how many blocks have been fetched so far.
func (r *RemoteReader) Requests() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blocks)
}

// block returns the cached block starting at key, fetching it on a miss.
// Callers hold r.mu.
func (r *RemoteReader) block(ctx context.Context, key int64) ([]byte, error) {
	if data, ok := r.blocks[key]; ok {
		return data, nil
	}
	length := int64(r.client.blockSize)
	if key+length > r.size {
		length = r.size - key
	}
	data, err := r.client.fetchRange(ctx, r.url, key, length)
	if err != nil {
		return nil, err
	}
	r.blocks[key] = data
	return data, nil
}

// ReadAt implements io.ReaderAt over the block cache.
func (r *RemoteReader) ReadAt(p []byte, off int64) (int, error) {
	return r.ReadAtContext(context.Background(), p, off)
}

// ReadAtContext is ReadAt with request cancellation.
func (r *RemoteReader) ReadAtContext(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("cogclient: negative offset %d", off)
	}
	if off >= r.size {
		return 0, io.EOF
	}

	want := len(p)
	if off+int64(want) > r.size {
		want = int(r.size - off)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	blockSize := int64(r.client.blockSize)
	written := 0
	for written < want {
		cur := off + int64(written)
		key := blockSize * (cur / blockSize)
		data, err := r.block(ctx, key)
		if err != nil {
			return written, err
		}
		start := cur - key
		if start >= int64(len(data)) {
			return written, io.ErrUnexpectedEOF
		}
		written += copy(p[written:want], data[start:])
	}

	if want < len(p) {
		return want, io.EOF
	}
	return want, nil
}

// Read implements io.Reader at the current seek position.
func (r *RemoteReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker.
func (r *RemoteReader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += r.pos
	case io.SeekEnd:
		offset += r.size
	default:
		return 0, errors.New("cogclient: invalid seek whence")
	}
	if offset < 0 {
		return 0, errors.New("cogclient: negative seek offset")
	}
	r.pos = offset
	return offset, nil
}
