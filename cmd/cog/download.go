package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-cog/pkg/downloader"
)

func newDownloadCommand() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Fetch a whole COG to local disk (http, https or s3)",
		ArgsUsage: "<url> <dest>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "suppress progress output"},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("expected 2 arguments: source URL and destination path")
	}
	src, dest := cmd.Args().Get(0), cmd.Args().Get(1)

	var progress downloader.ProgressFunc
	if !cmd.Bool("quiet") {
		progress = func(downloaded, total int64) {
			if total > 0 {
				fmt.Fprintf(os.Stderr, "\r%d/%d bytes (%.0f%%)", downloaded, total,
					float64(downloaded)/float64(total)*100)
			} else {
				fmt.Fprintf(os.Stderr, "\r%d bytes", downloaded)
			}
		}
	}

	if err := downloader.DownloadWithProgress(ctx, src, dest, progress); err != nil {
		if progress != nil {
			fmt.Fprintln(os.Stderr)
		}
		return err
	}
	if progress != nil {
		fmt.Fprintln(os.Stderr)
	}
	fmt.Fprintf(os.Stdout, "downloaded %s\n", dest)
	return nil
}
