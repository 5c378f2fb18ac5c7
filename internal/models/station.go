package models

import (
	"encoding/json"
	"math"
)

// AttributeKey names a station attribute (a dataset column)
type AttributeKey string

// Identity attributes every station record is expected to carry
const (
	KeyStationID   AttributeKey = "Station ID"
	KeyStationName AttributeKey = "Station Name"
	KeyBasin       AttributeKey = "River Basin Name"
	KeyLatitude    AttributeKey = "Latitude (°)"
	KeyLongitude   AttributeKey = "Longitude (°)"
)

// GeoJSON is an undecoded GeoJSON document (FeatureCollection, Feature or Geometry)
type GeoJSON = json.RawMessage

// Station is one monitored dam/watershed record. It is immutable once built.
type Station struct {
	attrs map[AttributeKey]Value
}

// NewStation builds a station from its attributes. The map is copied.
func NewStation(attrs map[AttributeKey]Value) Station {
	cp := make(map[AttributeKey]Value, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return Station{attrs: cp}
}

// Get returns the value stored under key. The bool reports whether the
// record carries the key at all, regardless of the value being present.
func (s Station) Get(key AttributeKey) (Value, bool) {
	v, ok := s.attrs[key]
	return v, ok
}

// Len returns the number of attributes carried by the record
func (s Station) Len() int {
	return len(s.attrs)
}

// ID returns the station identifier, or "" when absent
func (s Station) ID() string {
	v, _ := s.Get(KeyStationID)
	if !v.Present() {
		return ""
	}
	return v.String()
}

// Name returns the station name and whether one is present
func (s Station) Name() (string, bool) {
	v, _ := s.Get(KeyStationName)
	if !v.Present() {
		return "", false
	}
	return v.String(), true
}

// Basin returns the river basin name, or "" when absent
func (s Station) Basin() string {
	v, _ := s.Get(KeyBasin)
	if !v.Present() {
		return ""
	}
	return v.String()
}

// Location returns the station coordinates in decimal degrees.
// ok is false unless both are finite numbers.
func (s Station) Location() (lat, lon float64, ok bool) {
	lat, ok = coordinate(s.attrs[KeyLatitude])
	if !ok {
		return 0, 0, false
	}
	lon, ok = coordinate(s.attrs[KeyLongitude])
	if !ok {
		return 0, 0, false
	}
	return lat, lon, true
}

func coordinate(v Value) (float64, bool) {
	if v.Kind != KindNumber || math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
		return 0, false
	}
	return v.Num, true
}

// ParseAttribute converts a raw dataset cell stored under key. Identity
// columns stay textual; everything else goes through ParseCell.
func ParseAttribute(key AttributeKey, raw string) Value {
	switch key {
	case KeyStationID, KeyStationName, KeyBasin:
		return ParseText(raw)
	}
	return ParseCell(raw)
}
