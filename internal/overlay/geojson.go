package overlay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hydromonitoring/wain-terminal/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNotGeoJSON is returned for payloads that are not a JSON object
var ErrNotGeoJSON = errors.New("payload is not a GeoJSON object")

// Normalize accepts either a bare GeoJSON document or one wrapped under a
// "geojson" field and returns the bare document.
func Normalize(body []byte) (models.GeoJSON, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, ErrNotGeoJSON
	}

	if inner, ok := fields["geojson"]; ok && !isFalsy(inner) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(inner, &obj); err != nil || obj == nil {
			return nil, fmt.Errorf("geojson field: %w", ErrNotGeoJSON)
		}
		return models.GeoJSON(bytes.Clone(inner)), nil
	}
	return models.GeoJSON(bytes.Clone(body)), nil
}

func isFalsy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "null", "false", "0", `""`:
		return true
	}
	return false
}

// Bounds computes the bounding box of every geometry in a GeoJSON document.
// ok is false when the document holds no geometry.
func Bounds(doc models.GeoJSON) (orb.Bound, bool) {
	if len(doc) == 0 {
		return orb.Bound{}, false
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(doc, &head); err != nil {
		return orb.Bound{}, false
	}

	var geoms []orb.Geometry
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(doc)
		if err != nil {
			return orb.Bound{}, false
		}
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(doc)
		if err != nil {
			return orb.Bound{}, false
		}
		geoms = append(geoms, f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(doc)
		if err != nil {
			return orb.Bound{}, false
		}
		geoms = append(geoms, g.Geometry())
	}

	var (
		bound orb.Bound
		found bool
	)
	for _, g := range geoms {
		if g == nil {
			continue
		}
		b := g.Bound()
		if !found {
			bound, found = b, true
			continue
		}
		bound = bound.Union(b)
	}
	return bound, found
}
