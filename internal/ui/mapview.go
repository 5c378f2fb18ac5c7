package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/hydromonitoring/wain-terminal/internal/overlay"
	"github.com/hydromonitoring/wain-terminal/internal/session"
	"github.com/paulmach/orb"
)

// mapView is the viewport the map would show. The terminal renders it as
// a status block rather than tiles.
type mapView struct {
	center orb.Point
	zoom   int
	bounds orb.Bound
	fitted bool
}

func defaultMapView() mapView {
	return mapView{center: session.DefaultCenter, zoom: session.DefaultZoom}
}

// apply moves the viewport as requested by the overlay layers
func (v mapView) apply(sig overlay.Signal) mapView {
	switch sig.Kind {
	case overlay.SignalFitBounds:
		return mapView{
			center: sig.Bounds.Center(),
			zoom:   zoomFor(sig.Bounds),
			bounds: sig.Bounds,
			fitted: true,
		}
	case overlay.SignalResetView:
		return defaultMapView()
	}
	return v
}

// zoomFor picks the web-map zoom level at which b spans roughly one tile
func zoomFor(b orb.Bound) int {
	span := math.Max(b.Max.Lon()-b.Min.Lon(), b.Max.Lat()-b.Min.Lat())
	if span <= 0 {
		return 18
	}
	z := int(math.Floor(math.Log2(360 / span)))
	return max(1, min(z, 18))
}

func (v mapView) String() string {
	s := fmt.Sprintf("%.2f°N %.2f°E z%d", v.center.Lat(), v.center.Lon(), v.zoom)
	if v.fitted {
		s += fmt.Sprintf(" [%.2f,%.2f → %.2f,%.2f]",
			v.bounds.Min.Lat(), v.bounds.Min.Lon(), v.bounds.Max.Lat(), v.bounds.Max.Lon())
	}
	return s
}

// renderOverlays reports the state of each overlay layer
func renderOverlays(o *overlay.Orchestrator) string {
	kinds := []overlay.Kind{overlay.KindCountry, overlay.KindBasin, overlay.KindStation}
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s %s", k, layerStatus(o, k)))
	}
	return strings.Join(parts, " • ")
}

func layerStatus(o *overlay.Orchestrator, k overlay.Kind) string {
	switch o.Phase(k) {
	case overlay.PhaseFetching:
		return loadingStyle.Render("…")
	case overlay.PhaseResolved:
		return successStyle.Render("✓")
	case overlay.PhaseFailed:
		return errorStyle.Render("✗")
	default:
		return mutedStyle.Render("-")
	}
}
