package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	cogclient "github.com/robert-malhotra/go-cog/client"
)

var (
	timeoutFlag = &cli.DurationFlag{
		Name:    "timeout",
		Aliases: []string{"t"},
		Usage:   "HTTP client timeout (e.g. 30s, 1m)",
		Value:   30 * time.Second,
	}
	blockSizeFlag = &cli.IntFlag{
		Name:  "block-size",
		Usage: "range request granularity in bytes",
		Value: cogclient.DefaultBlockSize,
	}
	bearerFlag = &cli.StringFlag{
		Name:  "bearer",
		Usage: "bearer token for remote reads",
	}
	apiKeyFlag = &cli.StringFlag{
		Name:  "api-key",
		Usage: "API key sent on the Authorization header",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "enable debug logging",
	}
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML file with default create options",
	}
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "cog",
		Usage: "Create, inspect and serve Cloud-Optimized GeoTIFFs",
		Flags: []cli.Flag{
			timeoutFlag, blockSizeFlag, bearerFlag, apiKeyFlag,
			verboseFlag, configFlag,
		},
		Commands: []*cli.Command{
			newCreateCommand(),
			newInfoCommand(),
			newWindowCommand(),
			newDownloadCommand(),
			newStacItemCommand(),
			newServeCommand(),
			newViewCommand(),
		},
	}
}

func main() {
	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
