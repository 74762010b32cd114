// Package raster provides the in-memory grid type consumed and produced by
// the COG codec, plus the fixture generators used for manual testing.
package raster

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// DefaultNoData is the sentinel marking cells without a valid measurement.
const DefaultNoData = -9999

var errEmptyGrid = errors.New("raster: grid must have positive dimensions")

// Grid is a dense single-band raster of float64 samples in row-major order.
type Grid struct {
	Width  int
	Height int
	NoData float64
	Values []float64
}

// New returns a zero-filled grid with the default no-data sentinel.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, errEmptyGrid
	}
	return &Grid{
		Width:  width,
		Height: height,
		NoData: DefaultNoData,
		Values: make([]float64, width*height),
	}, nil
}

// NewFilled returns a grid with every cell set to v.
func NewFilled(width, height int, v float64) (*Grid, error) {
	g, err := New(width, height)
	if err != nil {
		return nil, err
	}
	for i := range g.Values {
		g.Values[i] = v
	}
	return g, nil
}

// At returns the sample at (col, row). Out-of-range access panics like a
// slice index would.
func (g *Grid) At(col, row int) float64 {
	return g.Values[row*g.Width+col]
}

// Set stores v at (col, row).
func (g *Grid) Set(col, row int, v float64) {
	g.Values[row*g.Width+col] = v
}

// Bounds returns the pixel rectangle of the grid.
func (g *Grid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Fill sets every cell inside rect (clipped to the grid) to v.
func (g *Grid) Fill(rect image.Rectangle, v float64) {
	rect = rect.Intersect(g.Bounds())
	for row := rect.Min.Y; row < rect.Max.Y; row++ {
		base := row * g.Width
		for col := rect.Min.X; col < rect.Max.X; col++ {
			g.Values[base+col] = v
		}
	}
}

// Quadrants builds the four-quadrant test raster: a zero background with the
// north-west, south-west, south-east and north-east quarters set to 1, 2, 3
// and 4. Row 0 is the northern edge.
func Quadrants(width, height int) (*Grid, error) {
	g, err := New(width, height)
	if err != nil {
		return nil, err
	}
	halfW, halfH := width/2, height/2
	g.Fill(image.Rect(0, 0, halfW, halfH), 1)
	g.Fill(image.Rect(0, halfH, halfW, height), 2)
	g.Fill(image.Rect(halfW, halfH, width, height), 3)
	g.Fill(image.Rect(halfW, 0, width, halfH), 4)
	return g, nil
}

// Downsample returns the grid reduced by factor on both axes using block
// averages. Cells equal to NoData are excluded from the average; blocks with
// no valid cell stay NoData. Edge blocks shorter than factor are averaged
// over the cells present.
func (g *Grid) Downsample(factor int) (*Grid, error) {
	if factor < 2 {
		return nil, fmt.Errorf("raster: downsample factor %d must be >= 2", factor)
	}
	outW := (g.Width + factor - 1) / factor
	outH := (g.Height + factor - 1) / factor
	out, err := New(outW, outH)
	if err != nil {
		return nil, err
	}
	out.NoData = g.NoData

	for row := 0; row < outH; row++ {
		for col := 0; col < outW; col++ {
			var sum float64
			var n int
			for dy := 0; dy < factor; dy++ {
				srcRow := row*factor + dy
				if srcRow >= g.Height {
					break
				}
				for dx := 0; dx < factor; dx++ {
					srcCol := col*factor + dx
					if srcCol >= g.Width {
						break
					}
					v := g.At(srcCol, srcRow)
					if v == g.NoData {
						continue
					}
					sum += v
					n++
				}
			}
			if n == 0 {
				out.Set(col, row, g.NoData)
			} else {
				out.Set(col, row, sum/float64(n))
			}
		}
	}
	return out, nil
}

// Stats summarises the valid cells of a grid.
type Stats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Valid int     `json:"validCells"`
}

// Stats computes min, max and mean over cells that are not NoData and not
// NaN. With no valid cells, Min and Max are NaN and Valid is zero.
func (g *Grid) Stats() Stats {
	s := Stats{Min: math.NaN(), Max: math.NaN()}
	var sum float64
	for _, v := range g.Values {
		if v == g.NoData || math.IsNaN(v) {
			continue
		}
		if s.Valid == 0 {
			s.Min, s.Max = v, v
		} else {
			s.Min = min(s.Min, v)
			s.Max = max(s.Max, v)
		}
		sum += v
		s.Valid++
	}
	if s.Valid > 0 {
		s.Mean = sum / float64(s.Valid)
	}
	return s
}
