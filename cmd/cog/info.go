package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/tiff"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-cog/pkg/cog"
)

func newInfoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print a JSON summary of a local or remote COG",
		ArgsUsage: "<path-or-url>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "also parse the file with an independent TIFF parser",
			},
		},
		Action: infoAction,
	}
}

func infoAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: path or URL")
	}
	target := cmd.Args().First()

	src, closer, err := openSource(ctx, cmd, target)
	if err != nil {
		return err
	}
	defer closer()

	reader, err := cog.NewReader(src)
	if err != nil {
		return err
	}

	info, err := reader.Info()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))

	if cmd.Bool("validate") {
		if _, err := src.Seek(0, 0); err != nil {
			return err
		}
		parsed, err := tiff.Parse(src, nil, nil)
		if err != nil {
			return fmt.Errorf("independent TIFF parse failed: %w", err)
		}
		fmt.Fprintf(os.Stdout, "validated: %d image directories\n", len(parsed.IFDs()))
	}
	return nil
}
