// Package filter computes which stations are listed for the current search
package filter

import (
	"sort"
	"strings"

	"github.com/hydromonitoring/wain-terminal/internal/catalog"
	"github.com/hydromonitoring/wain-terminal/internal/models"
)

// AllBasins is the basin selection that matches every station
const AllBasins = "All"

// Criteria is the transient search state of a session
type Criteria struct {
	NameQuery     string
	Basin         string
	HydrologyOnly bool
}

// DefaultCriteria matches every station with a name
func DefaultCriteria() Criteria {
	return Criteria{Basin: AllBasins}
}

// Stations returns the stations matching all criteria, in input order
func Stations(stations []models.Station, c Criteria) []models.Station {
	query := strings.ToLower(c.NameQuery)

	out := make([]models.Station, 0, len(stations))
	for _, s := range stations {
		if !matchesName(s, query) || !matchesBasin(s, c.Basin) {
			continue
		}
		if c.HydrologyOnly && !HasHydrology(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// matchesName expects an already lowercased query.
// A station without a name never matches.
func matchesName(s models.Station, query string) bool {
	name, ok := s.Name()
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(name), query)
}

func matchesBasin(s models.Station, basin string) bool {
	return basin == AllBasins || s.Basin() == basin
}

// HasHydrology reports whether at least one hydrology attribute holds a
// usable number. Text and NaN values do not count.
func HasHydrology(s models.Station) bool {
	for _, k := range catalog.HydrologyKeys() {
		if v, ok := s.Get(k); ok && v.ValidNumber() {
			return true
		}
	}
	return false
}

// Basins lists the distinct non-empty basins in ascending order,
// preceded by AllBasins.
func Basins(stations []models.Station) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range stations {
		b := s.Basin()
		if b == "" {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		names = append(names, b)
	}
	sort.Strings(names)

	return append([]string{AllBasins}, names...)
}
