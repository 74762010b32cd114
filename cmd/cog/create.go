package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-cog/pkg/cog"
	"github.com/robert-malhotra/go-cog/pkg/geo"
	"github.com/robert-malhotra/go-cog/pkg/raster"
	"github.com/robert-malhotra/go-cog/pkg/stacitem"
)

func newCreateCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Write a Cloud-Optimized GeoTIFF with generated data",
		ArgsUsage: "<out.tiff>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Usage: "raster width in pixels", Value: 512},
			&cli.IntFlag{Name: "height", Usage: "raster height in pixels", Value: 512},
			&cli.StringFlag{Name: "bbox", Usage: "extent as latMin,lonMin,latMax,lonMax", Value: "0,0,10,10"},
			&cli.IntFlag{Name: "epsg", Usage: "EPSG code of the CRS", Value: 4326},
			&cli.FloatFlag{Name: "nodata", Usage: "no-data sentinel value", Value: raster.DefaultNoData},
			&cli.FloatFlag{Name: "fill", Usage: "constant fill value instead of the quadrant pattern"},
			&cli.IntFlag{Name: "tile-size", Usage: "tile edge length (multiple of 16)", Value: 256},
			&cli.StringFlag{Name: "compression", Usage: "tile compression: deflate or none", Value: "deflate"},
			&cli.BoolFlag{Name: "no-overviews", Usage: "skip overview pyramid generation"},
			&cli.StringFlag{Name: "mode", Usage: "write strategy: direct or atomic", Value: string(cog.ModeDirect)},
			&cli.StringFlag{Name: "stac-item", Usage: "also write a STAC item JSON to this path"},
			&cli.StringFlag{Name: "href", Usage: "asset href recorded in the STAC item"},
		},
		Action: createAction,
	}
}

func createAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: output path")
	}
	out := cmd.Args().First()

	settings, err := createSettingsFromCommand(cmd)
	if err != nil {
		return err
	}

	var grid *raster.Grid
	if cmd.IsSet("fill") {
		grid, err = raster.NewFilled(settings.Width, settings.Height, cmd.Float("fill"))
	} else {
		grid, err = raster.Quadrants(settings.Width, settings.Height)
	}
	if err != nil {
		return err
	}
	grid.NoData = settings.NoData

	bbox, err := parseBBox(settings.BBox)
	if err != nil {
		return err
	}
	transform, err := geo.TransformFromBounds(settings.Width, settings.Height, bbox)
	if err != nil {
		return err
	}
	compression, err := parseCompression(settings.Compression)
	if err != nil {
		return err
	}

	err = cog.Write(out, grid,
		cog.WithTransform(transform),
		cog.WithCRS(fmt.Sprintf("EPSG:%d", settings.EPSG)),
		cog.WithNoData(settings.NoData),
		cog.WithTileSize(settings.TileSize),
		cog.WithCompression(compression),
		cog.WithOverviews(!cmd.Bool("no-overviews")),
		cog.WithMode(cog.WriteMode(settings.Mode)))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %s (%dx%d, EPSG:%d)\n", out, settings.Width, settings.Height, settings.EPSG)

	if itemPath := cmd.String("stac-item"); itemPath != "" {
		if err := writeStacItem(out, itemPath, cmd.String("href")); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", itemPath)
	}
	return nil
}

// writeStacItem reads back the freshly written file so the item reflects what
// actually landed on disk.
func writeStacItem(cogPath, itemPath, href string) error {
	r, err := cog.OpenFile(cogPath)
	if err != nil {
		return err
	}
	defer r.Close()

	info, err := r.Info()
	if err != nil {
		return err
	}

	if href == "" {
		href = cogPath
	}
	id := strings.TrimSuffix(filepath.Base(cogPath), filepath.Ext(cogPath))
	item, err := stacitem.FromInfo(id, href, info)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(itemPath, append(data, '\n'), 0o644)
}
