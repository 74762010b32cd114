// Package geo provides the georeferencing primitives shared by the COG
// reader and writer: bounding boxes and 2x3 affine transforms mapping pixel
// coordinates to world coordinates.
package geo

import (
	"errors"
	"fmt"
)

// ErrEmptyBounds is returned when a bounding box has zero or negative extent.
var ErrEmptyBounds = errors.New("geo: bounding box has no area")

// BoundingBox describes a geographic extent in CRS units (degrees for
// EPSG:4326).
type BoundingBox struct {
	LatMin float64 `json:"latMin"`
	LonMin float64 `json:"lonMin"`
	LatMax float64 `json:"latMax"`
	LonMax float64 `json:"lonMax"`
}

// Valid reports whether the box has positive extent on both axes.
func (b BoundingBox) Valid() bool {
	return b.LonMax > b.LonMin && b.LatMax > b.LatMin
}

// Width returns the east-west extent.
func (b BoundingBox) Width() float64 { return b.LonMax - b.LonMin }

// Height returns the north-south extent.
func (b BoundingBox) Height() float64 { return b.LatMax - b.LatMin }

// Affine is a 2x3 affine transform from pixel space to world space:
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
//
// For north-up rasters B and D are zero, E is negative and (C, F) is the
// world coordinate of the top-left corner of the top-left pixel.
type Affine struct {
	A float64
	B float64
	C float64
	D float64
	E float64
	F float64
}

// TransformFromBounds returns the north-up transform for a width x height
// raster covering bbox, with the raster origin at the north-west corner.
func TransformFromBounds(width, height int, bbox BoundingBox) (Affine, error) {
	if width <= 0 || height <= 0 {
		return Affine{}, fmt.Errorf("geo: invalid raster size %dx%d", width, height)
	}
	if !bbox.Valid() {
		return Affine{}, ErrEmptyBounds
	}
	return Affine{
		A: bbox.Width() / float64(width),
		B: 0,
		C: bbox.LonMin,
		D: 0,
		E: -bbox.Height() / float64(height),
		F: bbox.LatMax,
	}, nil
}

// Apply maps a pixel coordinate to world coordinates. Integer col/row values
// address the top-left corner of the pixel.
func (t Affine) Apply(col, row float64) (x, y float64) {
	return t.A*col + t.B*row + t.C, t.D*col + t.E*row + t.F
}

// Invert returns the transform from world space back to pixel space.
func (t Affine) Invert() (Affine, error) {
	det := t.A*t.E - t.B*t.D
	if det == 0 {
		return Affine{}, errors.New("geo: transform is not invertible")
	}
	inv := 1 / det
	return Affine{
		A: t.E * inv,
		B: -t.B * inv,
		C: (t.B*t.F - t.E*t.C) * inv,
		D: -t.D * inv,
		E: t.A * inv,
		F: (t.D*t.C - t.A*t.F) * inv,
	}, nil
}

// Bounds returns the world extent of a width x height raster under the
// transform. Only valid for north-up transforms.
func (t Affine) Bounds(width, height int) BoundingBox {
	x0, y0 := t.Apply(0, 0)
	x1, y1 := t.Apply(float64(width), float64(height))
	return BoundingBox{
		LonMin: min(x0, x1),
		LonMax: max(x0, x1),
		LatMin: min(y0, y1),
		LatMax: max(y0, y1),
	}
}

// Scale returns the transform of an overview downsampled by factor on both
// axes. The origin is unchanged, pixel sizes grow by factor.
func (t Affine) Scale(factor float64) Affine {
	return Affine{
		A: t.A * factor,
		B: t.B * factor,
		C: t.C,
		D: t.D * factor,
		E: t.E * factor,
		F: t.F,
	}
}

// GeoTransform returns the transform in GDAL coefficient order:
// {originX, pixelWidth, rowRotation, originY, colRotation, pixelHeight}.
func (t Affine) GeoTransform() [6]float64 {
	return [6]float64{t.C, t.A, t.B, t.F, t.D, t.E}
}

// FromGeoTransform builds an Affine from GDAL coefficient order.
func FromGeoTransform(gt [6]float64) Affine {
	return Affine{A: gt[1], B: gt[2], C: gt[0], D: gt[4], E: gt[5], F: gt[3]}
}
