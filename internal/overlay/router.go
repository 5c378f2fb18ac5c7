package overlay

import (
	"context"
	"errors"

	"github.com/hydromonitoring/wain-terminal/internal/models"
)

// ErrNoFetcher is returned when a Router has no fetcher for a layer
var ErrNoFetcher = errors.New("no fetcher configured")

// Router sends each request to the fetcher registered for its layer,
// falling back to Default.
type Router struct {
	Default Fetcher
	ByKind  map[Kind]Fetcher
}

// Fetch implements Fetcher
func (r Router) Fetch(ctx context.Context, req Request) (models.GeoJSON, error) {
	if f, ok := r.ByKind[req.Kind]; ok && f != nil {
		return f.Fetch(ctx, req)
	}
	if r.Default == nil {
		return nil, ErrNoFetcher
	}
	return r.Default.Fetch(ctx, req)
}

// NewRouter fetches every layer over HTTP. When shapefile is set, basin
// boundaries come from that local file instead.
func NewRouter(endpoints Endpoints, userAgent, shapefile, nameField string) Router {
	r := Router{Default: NewHTTPFetcher(endpoints, userAgent)}
	if shapefile != "" {
		r.ByKind = map[Kind]Fetcher{
			KindBasin: NewShapefileFetcher(shapefile, nameField),
		}
	}
	return r
}
