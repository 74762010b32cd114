// Package stacitem builds STAC items describing Cloud-Optimized GeoTIFFs so
// they can be registered in SpatioTemporal Asset Catalogs.
package stacitem

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	stac "github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/go-cog/pkg/cog"
	"github.com/robert-malhotra/go-cog/pkg/geo"
)

// MediaTypeCOG is the IANA media type for cloud-optimized GeoTIFF assets.
const MediaTypeCOG = "image/tiff; application=geotiff; profile=cloud-optimized"

// stacVersion is the STAC spec version the generated items declare.
const stacVersion = "1.0.0"

var errEmptyID = errors.New("stacitem: item id must not be empty")

// FromInfo builds a STAC item for a COG described by info, with href as the
// data asset location.
func FromInfo(id, href string, info cog.Info) (*stac.Item, error) {
	if id == "" {
		return nil, errEmptyID
	}

	transform := geo.FromGeoTransform(info.GeoTransform)
	bbox := transform.Bounds(info.Size[0], info.Size[1])

	epsg, err := epsgCode(info.CRS)
	if err != nil {
		return nil, err
	}

	item := &stac.Item{
		Version: stacVersion,
		Id:      id,
		Bbox:    []float64{bbox.LonMin, bbox.LatMin, bbox.LonMax, bbox.LatMax},
		Geometry: map[string]any{
			"type": "Polygon",
			"coordinates": [][][]float64{{
				{bbox.LonMin, bbox.LatMin},
				{bbox.LonMax, bbox.LatMin},
				{bbox.LonMax, bbox.LatMax},
				{bbox.LonMin, bbox.LatMax},
				{bbox.LonMin, bbox.LatMin},
			}},
		},
		Properties: map[string]any{
			"datetime":       time.Now().UTC().Format(time.RFC3339),
			"proj:epsg":      epsg,
			"proj:shape":     []int{info.Size[1], info.Size[0]},
			"proj:transform": transformSlice(transform),
		},
		Links: []*stac.Link{},
		Assets: map[string]*stac.Asset{
			"data": {
				Href:  href,
				Type:  MediaTypeCOG,
				Title: "Cloud-Optimized GeoTIFF",
				Roles: []string{"data"},
			},
		},
	}

	item.Properties["raster:bands"] = []map[string]any{{
		"data_type": strings.ToLower(info.Type),
		"nodata":    info.NoData,
	}}

	return item, nil
}

func epsgCode(crs string) (int, error) {
	rest, ok := strings.CutPrefix(crs, "EPSG:")
	if !ok {
		return 0, fmt.Errorf("stacitem: CRS %q is not an EPSG code", crs)
	}
	code, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("stacitem: CRS %q is not an EPSG code: %w", crs, err)
	}
	return code, nil
}

// transformSlice returns the proj:transform row-major 3x3 flattening used by
// the STAC projection extension.
func transformSlice(t geo.Affine) []float64 {
	return []float64{t.A, t.B, t.C, t.D, t.E, t.F, 0, 0, 1}
}
