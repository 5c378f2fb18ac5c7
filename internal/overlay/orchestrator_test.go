package overlay

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hydromonitoring/wain-terminal/internal/models"
)

type recordingSink struct {
	resolved []Request
	failed   []Request
	stale    []Request
}

func (s *recordingSink) FetchResolved(req Request)          { s.resolved = append(s.resolved, req) }
func (s *recordingSink) FetchFailed(req Request, err error) { s.failed = append(s.failed, req) }
func (s *recordingSink) StaleDiscarded(req Request)         { s.stale = append(s.stale, req) }

func polygonDoc(minX, minY, maxX, maxY float64) models.GeoJSON {
	return models.GeoJSON(fmt.Sprintf(`{"type":"Polygon","coordinates":[[[%g,%g],[%g,%g],[%g,%g],[%g,%g],[%g,%g]]]}`,
		minX, minY, minX, maxY, maxX, maxY, maxX, minY, minX, minY))
}

func TestOrchestrator_InitOnce(t *testing.T) {
	o := NewOrchestrator(nil, nil)

	req, ok := o.Init()
	if !ok {
		t.Fatal("Init() should issue the country request")
	}
	if req.Kind != KindCountry || req.Target != "" {
		t.Errorf("Init() = %+v, want country request", req)
	}
	if o.Phase(KindCountry) != PhaseFetching {
		t.Errorf("country phase = %v, want fetching", o.Phase(KindCountry))
	}

	if _, ok := o.Init(); ok {
		t.Error("second Init() should not issue another request")
	}

	sig, fit := o.Apply(Result{Request: req, Doc: polygonDoc(68, 6, 97, 37)})
	if fit {
		t.Errorf("country boundary should not move the view, got %+v", sig)
	}
	if o.Geometry(KindCountry) == nil {
		t.Error("country geometry should be resolved")
	}

	// Basin and station changes never touch the country layer.
	o.SelectBasin("Ganga")
	o.SelectStation("42")
	o.ClearStation()
	if o.Phase(KindCountry) != PhaseResolved {
		t.Errorf("country phase = %v after other selections, want resolved", o.Phase(KindCountry))
	}
}

func TestOrchestrator_LastRequestWins(t *testing.T) {
	sink := &recordingSink{}
	o := NewOrchestrator(sink, nil)

	reqA, _ := o.SelectBasin("A")
	reqB, _ := o.SelectBasin("B")

	// B answers first, A arrives late.
	if _, ok := o.Apply(Result{Request: reqB, Doc: polygonDoc(1, 1, 2, 2)}); !ok {
		t.Error("resolving the current basin with no station open should fit the view")
	}
	if _, ok := o.Apply(Result{Request: reqA, Doc: polygonDoc(50, 50, 60, 60)}); ok {
		t.Error("stale result must not produce a signal")
	}

	if o.Target(KindBasin) != "B" {
		t.Errorf("basin target = %q, want B", o.Target(KindBasin))
	}
	if got := string(o.Geometry(KindBasin)); got != string(polygonDoc(1, 1, 2, 2)) {
		t.Errorf("basin geometry = %s, want B's geometry", got)
	}
	if len(sink.stale) != 1 || sink.stale[0].Target != "A" {
		t.Errorf("stale = %+v, want one discarded A result", sink.stale)
	}
	if len(sink.resolved) != 1 || sink.resolved[0].Target != "B" {
		t.Errorf("resolved = %+v, want only B", sink.resolved)
	}
}

func TestOrchestrator_StaleResultBeforeCurrent(t *testing.T) {
	o := NewOrchestrator(nil, nil)

	reqA, _ := o.SelectStation("A")
	reqB, _ := o.SelectStation("B")

	o.Apply(Result{Request: reqA, Doc: polygonDoc(0, 0, 1, 1)})
	if o.Phase(KindStation) != PhaseFetching {
		t.Errorf("station phase = %v after stale result, want fetching", o.Phase(KindStation))
	}
	if o.Geometry(KindStation) != nil {
		t.Error("stale footprint must not be shown")
	}

	o.Apply(Result{Request: reqB, Doc: polygonDoc(3, 3, 4, 4)})
	if o.Phase(KindStation) != PhaseResolved {
		t.Errorf("station phase = %v, want resolved", o.Phase(KindStation))
	}
}

func TestOrchestrator_StaleFailureIgnored(t *testing.T) {
	sink := &recordingSink{}
	o := NewOrchestrator(sink, nil)

	reqA, _ := o.SelectStation("A")
	reqB, _ := o.SelectStation("B")
	o.Apply(Result{Request: reqB, Doc: polygonDoc(0, 0, 1, 1)})
	o.Apply(Result{Request: reqA, Err: errors.New("boom")})

	if o.Phase(KindStation) != PhaseResolved {
		t.Errorf("station phase = %v, want resolved", o.Phase(KindStation))
	}
	if len(sink.failed) != 0 {
		t.Errorf("stale failure reported: %+v", sink.failed)
	}
}

func TestOrchestrator_Failure(t *testing.T) {
	sink := &recordingSink{}
	o := NewOrchestrator(sink, nil)

	req, _ := o.SelectStation("42")
	if _, ok := o.Apply(Result{Request: req, Err: fmt.Errorf("%w 404", ErrStatus)}); ok {
		t.Error("failure must not produce a signal")
	}

	if o.Phase(KindStation) != PhaseFailed {
		t.Errorf("station phase = %v, want failed", o.Phase(KindStation))
	}
	if o.Geometry(KindStation) != nil {
		t.Error("failed layer must have no geometry")
	}
	if !errors.Is(o.Err(KindStation), ErrStatus) {
		t.Errorf("Err() = %v, want ErrStatus", o.Err(KindStation))
	}
	if len(sink.failed) != 1 || sink.failed[0].Target != "42" {
		t.Errorf("failed = %+v, want the 42 request", sink.failed)
	}
}

func TestOrchestrator_AllBasinsIsIdle(t *testing.T) {
	sink := &recordingSink{}
	o := NewOrchestrator(sink, nil)

	req, _ := o.SelectBasin("Ganga")
	o.Apply(Result{Request: req, Doc: polygonDoc(0, 0, 1, 1)})

	inflight, _ := o.SelectBasin("Kaveri")
	if _, ok := o.SelectBasin("All"); ok {
		t.Error("SelectBasin(All) must not issue a request")
	}
	if o.Phase(KindBasin) != PhaseIdle || o.Geometry(KindBasin) != nil {
		t.Errorf("basin layer = %v, want idle and cleared", o.Phase(KindBasin))
	}

	o.Apply(Result{Request: inflight, Doc: polygonDoc(5, 5, 6, 6)})
	if o.Geometry(KindBasin) != nil {
		t.Error("in-flight result must be discarded after selecting All")
	}
	if len(sink.stale) != 1 {
		t.Errorf("stale = %d, want 1", len(sink.stale))
	}
}

func TestOrchestrator_StationSelectionClearsImmediately(t *testing.T) {
	o := NewOrchestrator(nil, nil)

	req, _ := o.SelectStation("1")
	o.Apply(Result{Request: req, Doc: polygonDoc(0, 0, 1, 1)})

	o.SelectStation("2")
	if o.Geometry(KindStation) != nil {
		t.Error("previous footprint must be cleared before the new fetch resolves")
	}
	if o.Phase(KindStation) != PhaseFetching {
		t.Errorf("station phase = %v, want fetching", o.Phase(KindStation))
	}
}

func TestOrchestrator_StationWithoutID(t *testing.T) {
	o := NewOrchestrator(nil, nil)

	if _, ok := o.SelectStation(""); ok {
		t.Error("station without id must not issue a request")
	}
	if !o.StationSelected() {
		t.Error("station without id is still selected")
	}
	if o.Phase(KindStation) != PhaseIdle {
		t.Errorf("station phase = %v, want idle", o.Phase(KindStation))
	}
}

func TestOrchestrator_Signals(t *testing.T) {
	o := NewOrchestrator(nil, nil)

	basinReq, _ := o.SelectBasin("Ganga")
	stationReq, _ := o.SelectStation("42")

	if _, ok := o.Apply(Result{Request: basinReq, Doc: polygonDoc(77, 22, 88, 31)}); ok {
		t.Error("basin boundary must not move the view while a station is selected")
	}

	sig, ok := o.Apply(Result{Request: stationReq, Doc: polygonDoc(78, 30, 79, 31)})
	if !ok || sig.Kind != SignalFitBounds || sig.Source != KindStation {
		t.Fatalf("station footprint signal = %+v, %v", sig, ok)
	}
	if sig.Bounds.Min[0] != 78 || sig.Bounds.Max[1] != 31 {
		t.Errorf("bounds = %+v, want [78 30]-[79 31]", sig.Bounds)
	}

	reset := o.ClearStation()
	if reset.Kind != SignalResetView {
		t.Errorf("ClearStation() = %+v, want reset view", reset)
	}
	if o.StationSelected() || o.Geometry(KindStation) != nil {
		t.Error("ClearStation() must clear the footprint")
	}

	basinReq, _ = o.SelectBasin("Kaveri")
	sig, ok = o.Apply(Result{Request: basinReq, Doc: polygonDoc(75, 10, 80, 13)})
	if !ok || sig.Source != KindBasin {
		t.Errorf("basin boundary with no station = %+v, %v, want fit", sig, ok)
	}
}

func TestOrchestrator_DuplicateResultIgnored(t *testing.T) {
	o := NewOrchestrator(nil, nil)

	req, _ := o.SelectStation("1")
	if _, ok := o.Apply(Result{Request: req, Doc: polygonDoc(0, 0, 1, 1)}); !ok {
		t.Fatal("first result should fit")
	}
	if _, ok := o.Apply(Result{Request: req, Doc: polygonDoc(0, 0, 1, 1)}); ok {
		t.Error("the same result applied twice must emit one signal only")
	}
}

type fetcherFunc func(ctx context.Context, req Request) (models.GeoJSON, error)

func (f fetcherFunc) Fetch(ctx context.Context, req Request) (models.GeoJSON, error) {
	return f(ctx, req)
}

func TestExecute(t *testing.T) {
	ok := fetcherFunc(func(ctx context.Context, req Request) (models.GeoJSON, error) {
		return polygonDoc(0, 0, 1, 1), nil
	})
	res := Execute(context.Background(), ok, Request{Kind: KindStation, Target: "1", Generation: 7}, time.Second)
	if res.Err != nil || res.Doc == nil {
		t.Fatalf("Execute() = %+v", res)
	}
	if res.Request.Generation != 7 {
		t.Errorf("generation = %d, want 7", res.Request.Generation)
	}
}

func TestExecute_Timeout(t *testing.T) {
	slow := fetcherFunc(func(ctx context.Context, req Request) (models.GeoJSON, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	res := Execute(context.Background(), slow, Request{Kind: KindBasin, Target: "Ganga"}, 10*time.Millisecond)
	if !errors.Is(res.Err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout", res.Err)
	}
}
