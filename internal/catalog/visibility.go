package catalog

import "github.com/hydromonitoring/wain-terminal/internal/models"

// HasHydrologyData reports whether any hydrology attribute of the station
// is present. Unlike the station filter, the value need not be numeric.
func HasHydrologyData(st models.Station) bool {
	for _, k := range hydrologyKeys {
		if v, ok := st.Get(k); ok && v.Present() {
			return true
		}
	}
	return false
}

// VisibleCategories returns the tabs to show for the selected station.
// With no station selected every category is returned.
func VisibleCategories(st *models.Station) []Category {
	all := ListCategories()
	if st == nil {
		return all
	}

	showHydrology := HasHydrologyData(*st)
	visible := make([]Category, 0, len(all))
	for _, c := range all {
		if c.IsHydrology() && !showHydrology {
			continue
		}
		visible = append(visible, c)
	}
	return visible
}

// ResolveTab keeps the active tab index when it still addresses a visible
// category and falls back to the first tab otherwise.
func ResolveTab(active int, visible []Category) int {
	if active < 0 || active >= len(visible) {
		return 0
	}
	return active
}
