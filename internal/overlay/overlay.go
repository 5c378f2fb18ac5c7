// Package overlay resolves the GeoJSON layers drawn over the station map:
// the country boundary, the selected basin and the selected station footprint.
package overlay

import (
	"context"

	"github.com/hydromonitoring/wain-terminal/internal/models"
	"github.com/paulmach/orb"
)

// Kind identifies one of the three overlay layers
type Kind int

const (
	KindCountry Kind = iota
	KindBasin
	KindStation
)

const numKinds = 3

func (k Kind) String() string {
	switch k {
	case KindCountry:
		return "country"
	case KindBasin:
		return "basin"
	case KindStation:
		return "station"
	default:
		return "unknown"
	}
}

// Phase is the fetch state of one overlay layer
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseResolved
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseResolved:
		return "resolved"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request asks for the geometry of one layer. Generation stamps the
// request so that a late response can be recognised as stale.
type Request struct {
	Kind       Kind
	Target     string // basin name or station id; empty for the country
	Generation uint64
}

// Result is the outcome of executing a Request
type Result struct {
	Request Request
	Doc     models.GeoJSON
	Err     error
}

// SignalKind tells the map view what to do with its viewport
type SignalKind int

const (
	SignalFitBounds SignalKind = iota + 1
	SignalResetView
)

// Signal is a viewport request for the map-rendering collaborator
type Signal struct {
	Kind   SignalKind
	Source Kind
	Bounds orb.Bound
}

// Fetcher retrieves the GeoJSON document for a request
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (models.GeoJSON, error)
}

// Sink receives overlay diagnostics. Implementations must not block.
type Sink interface {
	FetchResolved(req Request)
	FetchFailed(req Request, err error)
	StaleDiscarded(req Request)
}

// NopSink discards every diagnostic
type NopSink struct{}

func (NopSink) FetchResolved(Request)      {}
func (NopSink) FetchFailed(Request, error) {}
func (NopSink) StaleDiscarded(Request)     {}
