package main

import (
	"math"
	"strings"

	"github.com/robert-malhotra/go-cog/pkg/raster"
)

// shadeRamp maps normalized cell values to characters, darkest first.
var shadeRamp = []rune(" .:-=+*#%@")

// renderShades draws a nearest-neighbor ASCII preview of the grid, at most
// cols x rows characters. No-data cells render as spaces.
func renderShades(g *raster.Grid, cols, rows int) string {
	if cols > g.Width {
		cols = g.Width
	}
	if rows > g.Height {
		rows = g.Height
	}
	if cols < 1 || rows < 1 {
		return ""
	}

	stats := g.Stats()
	span := stats.Max - stats.Min

	var b strings.Builder
	b.Grow((cols + 1) * rows)
	for row := 0; row < rows; row++ {
		srcRow := row * g.Height / rows
		for col := 0; col < cols; col++ {
			v := g.At(col*g.Width/cols, srcRow)
			if v == g.NoData || math.IsNaN(v) {
				b.WriteRune(' ')
				continue
			}
			idx := len(shadeRamp) / 2
			if span > 0 {
				idx = int((v - stats.Min) / span * float64(len(shadeRamp)-1))
			}
			if idx < 0 {
				idx = 0
			}
			if idx >= len(shadeRamp) {
				idx = len(shadeRamp) - 1
			}
			b.WriteRune(shadeRamp[idx])
		}
		b.WriteRune('\n')
	}
	return b.String()
}
