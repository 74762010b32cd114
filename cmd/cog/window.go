package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-cog/pkg/cog"
	"github.com/robert-malhotra/go-cog/pkg/raster"
)

func newWindowCommand() *cli.Command {
	return &cli.Command{
		Name:      "window",
		Usage:     "Read a pixel window from a COG",
		ArgsUsage: "<path-or-url>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "level", Usage: "resolution level, 0 is the base image"},
			&cli.StringFlag{Name: "rect", Usage: "pixel window as x0,y0,x1,y1 (defaults to the full level)"},
			&cli.StringFlag{Name: "out", Usage: "write the window as a new COG instead of printing stats"},
		},
		Action: windowAction,
	}
}

// windowSummary is the JSON stats record printed when no output file is set.
type windowSummary struct {
	Level  int          `json:"level"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	NoData float64      `json:"noDataValue"`
	Stats  raster.Stats `json:"stats"`
}

func windowAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: path or URL")
	}
	target := cmd.Args().First()
	level := cmd.Int("level")

	reader, closer, err := openReader(ctx, cmd, target)
	if err != nil {
		return err
	}
	defer closer()

	var grid *raster.Grid
	rect := image.Rectangle{}
	if rectStr := cmd.String("rect"); rectStr != "" {
		rect, err = parseRect(rectStr)
		if err != nil {
			return err
		}
		grid, err = reader.ReadWindow(level, rect)
	} else {
		grid, err = reader.ReadLevel(level)
	}
	if err != nil {
		return err
	}

	out := cmd.String("out")
	if out == "" {
		summary := windowSummary{
			Level:  level,
			Width:  grid.Width,
			Height: grid.Height,
			NoData: grid.NoData,
			Stats:  grid.Stats(),
		}
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	transform, err := reader.Transform(level)
	if err != nil {
		return err
	}
	info, err := reader.Info()
	if err != nil {
		return err
	}

	// Shift the origin to the window's top-left corner. The reader clips the
	// window to the level extent, so clip here too before shifting.
	full := image.Rect(0, 0, info.Overviews[level].Size[0], info.Overviews[level].Size[1])
	rect = rect.Intersect(full)
	transform.C, transform.F = transform.Apply(float64(rect.Min.X), float64(rect.Min.Y))

	opts := []cog.WriteOption{
		cog.WithTransform(transform),
		cog.WithCRS(info.CRS),
	}
	if noData, ok := reader.NoData(); ok {
		opts = append(opts, cog.WithNoData(noData))
	}
	if err := cog.Write(out, grid, opts...); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %s (%dx%d)\n", out, grid.Width, grid.Height)
	return nil
}

// parseRect parses "x0,y0,x1,y1".
func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("rect %q must be x0,y0,x1,y1", s)
	}
	vals := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("rect component %q: %w", part, err)
		}
		vals[i] = v
	}
	rect := image.Rect(vals[0], vals[1], vals[2], vals[3])
	if rect.Empty() {
		return image.Rectangle{}, fmt.Errorf("rect %q has no area", s)
	}
	return rect, nil
}
