// Package session holds the state of one browsing session: the loaded
// stations, the active filter, the selected station, its active tab and
// the overlay layers drawn around it.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hydromonitoring/wain-terminal/internal/catalog"
	"github.com/hydromonitoring/wain-terminal/internal/export"
	"github.com/hydromonitoring/wain-terminal/internal/filter"
	"github.com/hydromonitoring/wain-terminal/internal/models"
	"github.com/hydromonitoring/wain-terminal/internal/overlay"
	"github.com/paulmach/orb"
)

// Default map view over India
var (
	DefaultCenter = orb.Point{78.9, 22.5}
	DefaultZoom   = 5
)

var (
	ErrNoSelection    = errors.New("no station selected")
	ErrUnknownStation = errors.New("unknown station")
)

// Marker is a visible station that can be placed on the map
type Marker struct {
	Station models.Station
	Point   orb.Point
}

// Session is owned by a single event loop and is not safe for concurrent use
type Session struct {
	stations []models.Station
	criteria filter.Criteria

	selected    models.Station
	hasSelected bool
	tab         int

	overlays *overlay.Orchestrator
}

// New starts a session over the loaded stations. sink and logger may be nil.
func New(stations []models.Station, sink overlay.Sink, logger *slog.Logger) *Session {
	return &Session{
		stations: stations,
		criteria: filter.DefaultCriteria(),
		overlays: overlay.NewOrchestrator(sink, logger),
	}
}

// Init returns the one-time country boundary request
func (s *Session) Init() (overlay.Request, bool) {
	return s.overlays.Init()
}

// Stations returns every loaded station
func (s *Session) Stations() []models.Station {
	return s.stations
}

// Criteria returns the active filter
func (s *Session) Criteria() filter.Criteria {
	return s.criteria
}

// SetQuery sets the station name search term
func (s *Session) SetQuery(q string) {
	s.criteria.NameQuery = q
}

// SetBasin changes the basin filter and the basin overlay together
func (s *Session) SetBasin(basin string) (overlay.Request, bool) {
	if basin == "" {
		basin = filter.AllBasins
	}
	s.criteria.Basin = basin
	return s.overlays.SelectBasin(basin)
}

// SetHydrologyOnly limits the list to stations with hydrology data
func (s *Session) SetHydrologyOnly(on bool) {
	s.criteria.HydrologyOnly = on
}

// Visible returns the stations matching the active filter in dataset order
func (s *Session) Visible() []models.Station {
	return filter.Stations(s.stations, s.criteria)
}

// Markers returns the visible stations that have a usable location
func (s *Session) Markers() []Marker {
	var out []Marker
	for _, st := range s.Visible() {
		lat, lon, ok := st.Location()
		if !ok {
			continue
		}
		out = append(out, Marker{Station: st, Point: orb.Point{lon, lat}})
	}
	return out
}

// Basins returns the basin choices, AllBasins first
func (s *Session) Basins() []string {
	return filter.Basins(s.stations)
}

// Select opens the panel for st and requests its footprint. The active tab
// is kept when the new station still shows it and reset otherwise.
func (s *Session) Select(st models.Station) (overlay.Request, bool) {
	s.selected = st
	s.hasSelected = true
	s.tab = catalog.ResolveTab(s.tab, s.Tabs())
	return s.overlays.SelectStation(st.ID())
}

// SelectID selects the first loaded station carrying id
func (s *Session) SelectID(id string) (overlay.Request, bool, error) {
	for _, st := range s.stations {
		if id != "" && st.ID() == id {
			req, ok := s.Select(st)
			return req, ok, nil
		}
	}
	return overlay.Request{}, false, fmt.Errorf("%w: %q", ErrUnknownStation, id)
}

// Selected returns the station whose panel is open
func (s *Session) Selected() (models.Station, bool) {
	return s.selected, s.hasSelected
}

// Close deselects the station, drops its footprint and clears the name
// search. The returned signal moves the map back to the default view.
func (s *Session) Close() overlay.Signal {
	s.selected = models.Station{}
	s.hasSelected = false
	s.criteria.NameQuery = ""
	return s.overlays.ClearStation()
}

// Tabs returns the categories shown for the selected station
func (s *Session) Tabs() []catalog.Category {
	if !s.hasSelected {
		return catalog.VisibleCategories(nil)
	}
	st := s.selected
	return catalog.VisibleCategories(&st)
}

// ActiveTab returns the index of the active tab within Tabs
func (s *Session) ActiveTab() int {
	return catalog.ResolveTab(s.tab, s.Tabs())
}

// ActiveCategory returns the category of the active tab
func (s *Session) ActiveCategory() catalog.Category {
	return s.Tabs()[s.ActiveTab()]
}

// SetTab activates tab i, falling back to the first tab when out of range
func (s *Session) SetTab(i int) {
	s.tab = catalog.ResolveTab(i, s.Tabs())
}

// NextTab moves to the following tab, wrapping to the first
func (s *Session) NextTab() {
	n := len(s.Tabs())
	s.tab = (s.ActiveTab() + 1) % n
}

// PrevTab moves to the preceding tab, wrapping to the last
func (s *Session) PrevTab() {
	n := len(s.Tabs())
	s.tab = (s.ActiveTab() + n - 1) % n
}

// Apply records a finished overlay fetch
func (s *Session) Apply(res overlay.Result) (overlay.Signal, bool) {
	return s.overlays.Apply(res)
}

// Overlays exposes the overlay layers for read-only consumers
func (s *Session) Overlays() *overlay.Orchestrator {
	return s.overlays
}

// Footprint returns the resolved footprint of the selected station
func (s *Session) Footprint() models.GeoJSON {
	return s.overlays.Geometry(overlay.KindStation)
}

// ExportPayload builds the export of the active tab
func (s *Session) ExportPayload() (export.Payload, error) {
	if !s.hasSelected {
		return export.Payload{}, ErrNoSelection
	}
	return export.Build(s.selected, s.ActiveCategory(), s.Footprint()), nil
}

// ExportLabel names the export action for the active tab
func (s *Session) ExportLabel() string {
	cat := s.ActiveCategory()
	if cat.IsOverview() && len(s.Footprint()) > 0 {
		return fmt.Sprintf("Export %s (+Shapefile)", cat.Label)
	}
	return "Export " + cat.Label
}

// Export writes the active tab of the selected station under dir
func (s *Session) Export(dir string) (string, error) {
	if !s.hasSelected {
		return "", ErrNoSelection
	}
	return export.WriteFile(dir, s.selected, s.ActiveCategory(), s.Footprint())
}

// ReportURL links the selected station to its published report
func (s *Session) ReportURL(base string) (string, bool) {
	if !s.hasSelected {
		return "", false
	}
	return export.ReportURL(base, s.selected), true
}
