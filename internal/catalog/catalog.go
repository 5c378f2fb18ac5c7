// Package catalog holds the static attribute taxonomy shown in the station panel
package catalog

import "github.com/hydromonitoring/wain-terminal/internal/models"

// Source tags the dataset an attribute was derived from
type Source string

const (
	SourceInventory   Source = "Dam inventory"
	SourceDerived     Source = "Watershed delineation"
	SourceDEM         Source = "SRTM DEM"
	SourceIMD         Source = "IMD gridded climate"
	SourceGLiM        Source = "GLiM"
	SourceGLHYMPS     Source = "GLHYMPS"
	SourceGroundwater Source = "CGWB well records"
	SourceLULC        Source = "ESA WorldCover"
	SourceMODIS       Source = "MODIS NDVI"
	SourceSoilGrids   Source = "SoilGrids"
	SourceHWSD        Source = "HWSD"
	SourceOSM         Source = "OpenStreetMap"
	SourceWorldPop    Source = "WorldPop"
	SourceFootprint   Source = "Human Footprint"
	SourceVIIRS       Source = "VIIRS night lights"
	SourceCWC         Source = "CWC discharge records"
)

// Category labels referenced by code
const (
	LabelOverview  = "Overview"
	LabelHydrology = "Hydrological Signature"
)

// Attribute is one entry of a category: the dataset key and its provenance
type Attribute struct {
	Key    models.AttributeKey
	Source Source
}

// Category is a labelled, ordered group of attributes (one panel tab)
type Category struct {
	Label      string
	Attributes []Attribute
}

// Keys returns the attribute keys of the category in display order
func (c Category) Keys() []models.AttributeKey {
	keys := make([]models.AttributeKey, len(c.Attributes))
	for i, a := range c.Attributes {
		keys[i] = a.Key
	}
	return keys
}

// IsOverview reports whether c is the first, overview category
func (c Category) IsOverview() bool {
	return c.Label == LabelOverview
}

// IsHydrology reports whether c is the conditionally shown hydrology category
func (c Category) IsHydrology() bool {
	return c.Label == LabelHydrology
}

func attrs(src Source, keys ...string) []Attribute {
	out := make([]Attribute, len(keys))
	for i, k := range keys {
		out[i] = Attribute{Key: models.AttributeKey(k), Source: src}
	}
	return out
}

func concat(groups ...[]Attribute) []Attribute {
	var out []Attribute
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var registry = []Category{
	{
		Label: LabelOverview,
		Attributes: concat(
			attrs(SourceInventory,
				string(models.KeyStationID),
				string(models.KeyStationName),
				string(models.KeyBasin),
				string(models.KeyLatitude),
				string(models.KeyLongitude),
			),
			attrs(SourceDerived,
				"Area (km²)",
				"Perimeter (km)",
				"Circularity Ratio",
			),
		),
	},
	{
		Label: "Topographical",
		Attributes: attrs(SourceDEM,
			"Minimum Elevation (m)",
			"Maximum Elevation (m)",
			"Mean Elevation (m)",
			"Mean Slope (m/km)",
		),
	},
	{
		Label: "Climatic",
		Attributes: attrs(SourceIMD,
			"Mean Precipitation Rate (mm/day)",
			"Maximum Temperature (°C)",
			"Minimum Temperature (°C)",
			"High Precipitation Frequency (days/year)",
			"Low Precipitation Frequency (days/year)",
			"High Precipitation Season",
			"Low Precipitation Season",
			"High Precipitation Spell (days)",
			"Low Precipitation Spell (days)",
			"Aridity Index",
			"Seasonality",
		),
	},
	{
		Label: "Geological",
		Attributes: concat(
			attrs(SourceGLiM,
				"Dominant Lithological Class",
				"Area Covered by Dominant Lithological Class",
				"Second Dominant Lithological Class",
				"Area Covered by Second Dominant Lithological Class",
			),
			attrs(SourceGLHYMPS,
				"Subsurface Permeability (m², log scale)",
				"Subsurface Porosity",
			),
			attrs(SourceGroundwater,
				"Groundwater Mean Level (m)",
			),
		),
	},
	{
		Label: "LULC",
		Attributes: concat(
			attrs(SourceLULC,
				"Dominant LULC Class",
				"Fraction of Builtup",
				"Fraction of Agriculture",
				"Fraction of Forest Land",
				"Fraction of Grassland",
				"Fraction of Scrub",
				"Fraction of Water",
				"Fraction of Snow",
				"Fraction of Bareland",
				"Fraction of Wetland",
				"Fraction of Tundra",
			),
			attrs(SourceMODIS,
				"NDVI (DJF)",
				"NDVI (MAM)",
				"NDVI (JJA)",
				"NDVI (SON)",
			),
		),
	},
	{
		Label: "Soil",
		Attributes: concat(
			attrs(SourceSoilGrids,
				"Coarse Content (vol. %)",
				"Sand Content (%)",
				"Silt Content (%)",
				"Clay Content (%)",
				"Organic Carbon Content (g/kg)",
			),
			attrs(SourceHWSD,
				"AWC (mm)",
				"Conductivity (mm/day)",
				"Porosity",
				"Maximum Water Content (m)",
				"Bulk Density (kg/m³)",
			),
		),
	},
	{
		Label: "Human Activity",
		Attributes: concat(
			attrs(SourceOSM, "Road Density (m/km²)"),
			attrs(SourceWorldPop, "Population"),
			attrs(SourceFootprint, "Human Footprint"),
			attrs(SourceVIIRS, "Stable Light"),
		),
	},
	{
		Label: LabelHydrology,
		Attributes: attrs(SourceCWC,
			"Mean Daily Discharge (m³/sec)",
			"Q5 (m³/sec)",
			"Q95 (m³/sec)",
			"Baseflow Index",
			"Runoff Ratio",
			"Stream Elasticity",
			"Slope of Flow Duration Curve",
			"High Flow Frequency (days/year)",
			"High Flow Duration (days)",
			"Low Flow Frequency (days/year)",
			"Low Flow Duration (days)",
			"Zero Flow Frequency (days/year)",
			"Half Flow Date (day of year)",
		),
	},
}

// aliases maps alternative dataset column names onto registry keys.
// The raw station export spells the identity columns differently.
var aliases = map[string]models.AttributeKey{
	"Station id":       models.KeyStationID,
	"Station name":     models.KeyStationName,
	"River basin name": models.KeyBasin,
	"latitude":         models.KeyLatitude,
	"longitude":        models.KeyLongitude,
}

var (
	known         = buildIndex()
	hydrologyKeys = findHydrology()
)

func buildIndex() map[models.AttributeKey]struct{} {
	idx := make(map[models.AttributeKey]struct{})
	for _, c := range registry {
		for _, a := range c.Attributes {
			idx[a.Key] = struct{}{}
		}
	}
	return idx
}

func findHydrology() []models.AttributeKey {
	for _, c := range registry {
		if c.IsHydrology() {
			return c.Keys()
		}
	}
	return nil
}

// ListCategories returns the categories in tab order. The result is a copy.
func ListCategories() []Category {
	out := make([]Category, len(registry))
	for i, c := range registry {
		out[i] = Category{
			Label:      c.Label,
			Attributes: append([]Attribute(nil), c.Attributes...),
		}
	}
	return out
}

// HydrologyKeys returns the fixed hydrology attribute keys in display order
func HydrologyKeys() []models.AttributeKey {
	return append([]models.AttributeKey(nil), hydrologyKeys...)
}

// Lookup resolves a dataset column name to a declared attribute key
func Lookup(column string) (models.AttributeKey, bool) {
	if k, ok := aliases[column]; ok {
		return k, true
	}
	k := models.AttributeKey(column)
	_, ok := known[k]
	return k, ok
}

// Find returns the category with the given label
func Find(label string) (Category, bool) {
	for _, c := range ListCategories() {
		if c.Label == label {
			return c, true
		}
	}
	return Category{}, false
}
