package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hydromonitoring/wain-terminal/internal/filter"
	"github.com/hydromonitoring/wain-terminal/internal/models"
)

// ErrTimeout marks a fetch abandoned after the configured timeout
var ErrTimeout = errors.New("overlay fetch timed out")

type slot struct {
	phase  Phase
	target string
	gen    uint64
	doc    models.GeoJSON
	err    error
}

// Orchestrator tracks the three overlay layers of a session.
//
// It is not safe for concurrent use: requests are issued and results
// applied from the single event loop that owns the session. Fetches run
// elsewhere and report back through Apply, which drops any result whose
// generation is no longer current for its layer.
type Orchestrator struct {
	slots         [numKinds]slot
	countryIssued bool
	stationOpen   bool

	sink   Sink
	logger *slog.Logger
}

// NewOrchestrator creates an orchestrator with every layer idle
func NewOrchestrator(sink Sink, logger *slog.Logger) *Orchestrator {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{sink: sink, logger: logger}
}

// Init issues the country boundary request. Only the first call returns a
// request; the boundary is never fetched again during the session.
func (o *Orchestrator) Init() (Request, bool) {
	if o.countryIssued {
		return Request{}, false
	}
	o.countryIssued = true
	return o.issue(KindCountry, ""), true
}

// SelectBasin switches the basin layer to basin. Any in-flight basin fetch
// becomes stale. Selecting AllBasins (or nothing) leaves the layer idle.
func (o *Orchestrator) SelectBasin(basin string) (Request, bool) {
	if basin == "" || basin == filter.AllBasins {
		o.reset(KindBasin)
		return Request{}, false
	}
	return o.issue(KindBasin, basin), true
}

// SelectStation switches the footprint layer to the station with the given
// id. The previous footprint is cleared at once. A station without an id
// is still selected but has no footprint to fetch.
func (o *Orchestrator) SelectStation(id string) (Request, bool) {
	o.stationOpen = true
	if id == "" {
		o.reset(KindStation)
		return Request{}, false
	}
	return o.issue(KindStation, id), true
}

// ClearStation deselects the station and asks the map to return to its
// default view.
func (o *Orchestrator) ClearStation() Signal {
	o.stationOpen = false
	o.reset(KindStation)
	return Signal{Kind: SignalResetView, Source: KindStation}
}

// Apply records the outcome of a fetch. It returns a viewport signal when
// the newly resolved geometry should be brought into view.
func (o *Orchestrator) Apply(res Result) (Signal, bool) {
	req := res.Request
	if req.Kind < 0 || int(req.Kind) >= numKinds {
		return Signal{}, false
	}

	s := &o.slots[req.Kind]
	if req.Generation != s.gen || s.phase != PhaseFetching {
		o.logger.Debug("discarding stale overlay result",
			"kind", req.Kind, "target", req.Target,
			"generation", req.Generation, "current", s.gen)
		o.sink.StaleDiscarded(req)
		return Signal{}, false
	}

	if res.Err != nil {
		s.phase = PhaseFailed
		s.doc = nil
		s.err = res.Err
		o.sink.FetchFailed(req, res.Err)
		return Signal{}, false
	}

	s.phase = PhaseResolved
	s.doc = res.Doc
	s.err = nil
	o.sink.FetchResolved(req)

	switch req.Kind {
	case KindStation:
	case KindBasin:
		if o.stationOpen {
			return Signal{}, false
		}
	default:
		return Signal{}, false
	}

	b, ok := Bounds(res.Doc)
	if !ok {
		return Signal{}, false
	}
	return Signal{Kind: SignalFitBounds, Source: req.Kind, Bounds: b}, true
}

// Phase returns the fetch state of a layer
func (o *Orchestrator) Phase(k Kind) Phase {
	return o.slots[k].phase
}

// Target returns the basin name or station id the layer currently tracks
func (o *Orchestrator) Target(k Kind) string {
	return o.slots[k].target
}

// Geometry returns the resolved GeoJSON of a layer, or nil when the layer
// is idle, fetching or failed.
func (o *Orchestrator) Geometry(k Kind) models.GeoJSON {
	s := o.slots[k]
	if s.phase != PhaseResolved {
		return nil
	}
	return s.doc
}

// Err returns the failure of a layer in PhaseFailed
func (o *Orchestrator) Err(k Kind) error {
	return o.slots[k].err
}

// StationSelected reports whether a station panel is open
func (o *Orchestrator) StationSelected() bool {
	return o.stationOpen
}

func (o *Orchestrator) issue(k Kind, target string) Request {
	s := &o.slots[k]
	s.gen++
	s.phase = PhaseFetching
	s.target = target
	s.doc = nil
	s.err = nil
	return Request{Kind: k, Target: target, Generation: s.gen}
}

// reset bumps the generation so in-flight results for the layer are dropped
func (o *Orchestrator) reset(k Kind) {
	s := &o.slots[k]
	s.gen++
	s.phase = PhaseIdle
	s.target = ""
	s.doc = nil
	s.err = nil
}

// Execute runs one fetch bounded by timeout. It never panics on fetch
// failure; errors travel inside the Result.
func Execute(ctx context.Context, f Fetcher, req Request, timeout time.Duration) Result {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	doc, err := f.Fetch(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, err)
		}
		return Result{Request: req, Err: err}
	}
	return Result{Request: req, Doc: doc}
}
