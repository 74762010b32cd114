package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-cog/pkg/stacitem"
)

func newStacItemCommand() *cli.Command {
	return &cli.Command{
		Name:      "stac-item",
		Usage:     "Emit a STAC item describing a COG",
		ArgsUsage: "<path-or-url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "item identifier (defaults to the file name)"},
			&cli.StringFlag{Name: "href", Usage: "asset href recorded in the item (defaults to the input)"},
		},
		Action: stacItemAction,
	}
}

func stacItemAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: path or URL")
	}
	target := cmd.Args().First()

	reader, closer, err := openReader(ctx, cmd, target)
	if err != nil {
		return err
	}
	defer closer()

	info, err := reader.Info()
	if err != nil {
		return err
	}

	id := cmd.String("id")
	if id == "" {
		base := filepath.Base(target)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}
	href := cmd.String("href")
	if href == "" {
		href = target
	}

	item, err := stacitem.FromInfo(id, href, info)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
