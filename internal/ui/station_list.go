package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/hydromonitoring/wain-terminal/internal/models"
)

// stationItem wraps a Station for use in a list
type stationItem struct {
	station models.Station
}

// FilterValue implements list.Item
func (s stationItem) FilterValue() string {
	name, _ := s.station.Name()
	return name
}

// Title implements list.DefaultItem
func (s stationItem) Title() string {
	if name, ok := s.station.Name(); ok {
		return name
	}
	return "Unnamed station"
}

// Description implements list.DefaultItem
func (s stationItem) Description() string {
	desc := s.station.ID()
	if basin := s.station.Basin(); basin != "" {
		desc += " • " + basin
	}
	if lat, lon, ok := s.station.Location(); ok {
		desc += fmt.Sprintf(" • %.2f°N %.2f°E", lat, lon)
	}
	return desc
}

func stationItems(stations []models.Station) []list.Item {
	items := make([]list.Item, len(stations))
	for i, st := range stations {
		items[i] = stationItem{station: st}
	}
	return items
}

// createStationList creates a list.Model from the visible stations.
// Filtering is done by the session, not by the list.
func createStationList(stations []models.Station, width, height int) list.Model {
	l := list.New(stationItems(stations), list.NewDefaultDelegate(), width, height)
	l.Title = "Stations"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(true)

	return l
}
