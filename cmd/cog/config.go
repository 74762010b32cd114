package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-cog/pkg/raster"
)

// createSettings are the create parameters that can come from flags or from
// the --config YAML file. Flags set on the command line win over the file,
// the file wins over built-in defaults.
type createSettings struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	BBox        string  `yaml:"bbox"`
	EPSG        int     `yaml:"epsg"`
	NoData      float64 `yaml:"noData"`
	TileSize    int     `yaml:"tileSize"`
	Compression string  `yaml:"compression"`
	Mode        string  `yaml:"mode"`
}

func defaultCreateSettings() createSettings {
	return createSettings{
		Width:       512,
		Height:      512,
		BBox:        "0,0,10,10",
		EPSG:        4326,
		NoData:      raster.DefaultNoData,
		TileSize:    256,
		Compression: "deflate",
		Mode:        "direct",
	}
}

func loadCreateSettings(path string) (createSettings, error) {
	settings := defaultCreateSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse config file: %w", err)
	}
	return settings, nil
}

func createSettingsFromCommand(cmd *cli.Command) (createSettings, error) {
	settings, err := loadCreateSettings(cmd.String(configFlag.Name))
	if err != nil {
		return settings, err
	}

	if cmd.IsSet("width") {
		settings.Width = cmd.Int("width")
	}
	if cmd.IsSet("height") {
		settings.Height = cmd.Int("height")
	}
	if cmd.IsSet("bbox") {
		settings.BBox = cmd.String("bbox")
	}
	if cmd.IsSet("epsg") {
		settings.EPSG = cmd.Int("epsg")
	}
	if cmd.IsSet("nodata") {
		settings.NoData = cmd.Float("nodata")
	}
	if cmd.IsSet("tile-size") {
		settings.TileSize = cmd.Int("tile-size")
	}
	if cmd.IsSet("compression") {
		settings.Compression = cmd.String("compression")
	}
	if cmd.IsSet("mode") {
		settings.Mode = cmd.String("mode")
	}
	return settings, nil
}
