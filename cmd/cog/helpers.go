package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-cog/auth"
	cogclient "github.com/robert-malhotra/go-cog/client"
	"github.com/robert-malhotra/go-cog/pkg/cog"
	"github.com/robert-malhotra/go-cog/pkg/geo"
)

// rasterSource is what both local files and remote range readers provide.
type rasterSource interface {
	io.ReaderAt
	io.ReadSeeker
}

func isRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// newRangeClient assembles the range-request client from the global flags.
func newRangeClient(cmd *cli.Command) (*cogclient.Client, error) {
	logger, err := newLogger(cmd.Bool(verboseFlag.Name))
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{}
	switch {
	case cmd.String(bearerFlag.Name) != "":
		httpClient.Transport = &auth.BearerTokenTransport{Token: cmd.String(bearerFlag.Name)}
	case cmd.String(apiKeyFlag.Name) != "":
		httpClient.Transport = &auth.APIKeyTransport{Key: cmd.String(apiKeyFlag.Name)}
	}

	return cogclient.New(
		cogclient.WithHTTPClient(httpClient),
		cogclient.WithTimeout(cmd.Duration(timeoutFlag.Name)),
		cogclient.WithBlockSize(cmd.Int(blockSizeFlag.Name)),
		cogclient.WithLogger(logger),
	)
}

// openSource opens a local path or remote URL as a random-access source.
func openSource(ctx context.Context, cmd *cli.Command, target string) (rasterSource, func() error, error) {
	if isRemote(target) {
		client, err := newRangeClient(cmd)
		if err != nil {
			return nil, nil, err
		}
		remote, err := client.Open(ctx, target)
		if err != nil {
			return nil, nil, err
		}
		return remote, func() error { return nil }, nil
	}

	f, err := os.Open(target)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// openReader opens a COG reader over a local path or remote URL.
func openReader(ctx context.Context, cmd *cli.Command, target string) (*cog.Reader, func() error, error) {
	src, closer, err := openSource(ctx, cmd, target)
	if err != nil {
		return nil, nil, err
	}
	reader, err := cog.NewReader(src)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return reader, closer, nil
}

// parseBBox parses "latMin,lonMin,latMax,lonMax".
func parseBBox(s string) (geo.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.BoundingBox{}, fmt.Errorf("bbox %q must be latMin,lonMin,latMax,lonMax", s)
	}
	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geo.BoundingBox{}, fmt.Errorf("bbox component %q: %w", part, err)
		}
		vals[i] = v
	}
	bbox := geo.BoundingBox{LatMin: vals[0], LonMin: vals[1], LatMax: vals[2], LonMax: vals[3]}
	if !bbox.Valid() {
		return geo.BoundingBox{}, fmt.Errorf("bbox %q has no area", s)
	}
	return bbox, nil
}

func parseCompression(s string) (cog.Compression, error) {
	switch strings.ToLower(s) {
	case "deflate":
		return cog.CompressionDeflate, nil
	case "none":
		return cog.CompressionNone, nil
	default:
		return 0, fmt.Errorf("compression %q must be deflate or none", s)
	}
}
