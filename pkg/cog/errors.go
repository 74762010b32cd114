package cog

import "errors"

// A FormatError reports that the input is not a valid GeoTIFF.
type FormatError string

func (e FormatError) Error() string { return "cog: invalid format: " + string(e) }

// An UnsupportedError reports input that is valid TIFF but uses a feature
// this codec does not implement.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "cog: unsupported feature: " + string(e) }

var (
	// ErrNilGrid is returned when a writer is handed no data.
	ErrNilGrid = errors.New("cog: grid is nil or empty")
	// ErrNoTransform is returned when a writer has no georeferencing.
	ErrNoTransform = errors.New("cog: write options must include a transform")
	// ErrLevelRange is returned for an out-of-range overview level.
	ErrLevelRange = errors.New("cog: overview level out of range")
)
