package overlay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hydromonitoring/wain-terminal/internal/models"
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrBasinNotFound is returned when no shapefile record matches a basin
var ErrBasinNotFound = errors.New("basin not found in shapefile")

// ShapefileFetcher serves basin boundaries from a local polygon shapefile
// whose attribute table names each basin.
type ShapefileFetcher struct {
	path      string
	nameField string
}

// NewShapefileFetcher reads basin polygons from path, matching requests
// against the attribute column nameField.
func NewShapefileFetcher(path, nameField string) *ShapefileFetcher {
	return &ShapefileFetcher{path: path, nameField: nameField}
}

// Fetch implements Fetcher for basin requests
func (f *ShapefileFetcher) Fetch(ctx context.Context, req Request) (models.GeoJSON, error) {
	if req.Kind != KindBasin {
		return nil, fmt.Errorf("shapefile serves basin overlays only, got %s", req.Kind)
	}
	if req.Target == "" {
		return nil, ErrNoTarget
	}

	shape, err := shp.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile: %w", err)
	}
	defer shape.Close()

	field := -1
	for i, fl := range shape.Fields() {
		if strings.EqualFold(fl.String(), f.nameField) {
			field = i
			break
		}
	}
	if field < 0 {
		return nil, fmt.Errorf("shapefile has no %q field", f.nameField)
	}

	fc := geojson.NewFeatureCollection()
	for shape.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, p := shape.Shape()
		name := strings.Trim(shape.ReadAttribute(n, field), " \x00")
		if name != req.Target {
			continue
		}

		polygon, ok := p.(*shp.Polygon)
		if !ok {
			continue
		}

		feature := geojson.NewFeature(polygonGeometry(polygon))
		feature.Properties["name"] = name
		fc.Append(feature)
	}

	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBasinNotFound, req.Target)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding basin %s: %w", req.Target, err)
	}
	return models.GeoJSON(data), nil
}

// polygonGeometry converts shapefile parts into orb rings. Clockwise rings
// are outer boundaries; counter-clockwise rings are holes of the preceding
// outer ring.
func polygonGeometry(p *shp.Polygon) orb.Geometry {
	var polys orb.MultiPolygon
	for part := 0; part < len(p.Parts); part++ {
		start := int(p.Parts[part])
		end := len(p.Points)
		if part+1 < len(p.Parts) {
			end = int(p.Parts[part+1])
		}
		if start >= end {
			continue
		}

		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}

		if ring.Orientation() == orb.CCW && len(polys) > 0 {
			last := len(polys) - 1
			polys[last] = append(polys[last], ring)
			continue
		}
		polys = append(polys, orb.Polygon{ring})
	}

	if len(polys) == 1 {
		return polys[0]
	}
	return polys
}
