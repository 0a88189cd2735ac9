package region

// carbonZoneBoxes maps geographic bounding boxes to Electricity Maps zone IDs.
//
// Declaration order is part of the resolver contract: the first box containing
// a point wins. Zones that are geographically nested inside a larger grid
// footprint (e.g. NYISO inside the wider PJM/MISO box) must be declared before
// the enclosing zone, so keep the list ordered most-specific-first within each
// continent.
var carbonZoneBoxes = []boundingBox{
	// California ISO footprint (declared before the generic US-west box)
	{
		MinLat: 32.5, MaxLat: 42.0, MinLon: -124.5, MaxLon: -114.1,
		Region: GridRegion{Code: "US-CAL-CISO", Taxonomy: TaxonomyCarbon, DisplayName: "California ISO", Country: "US", TimeZone: "America/Los_Angeles"},
	},
	// ERCOT covers most of Texas
	{
		MinLat: 25.8, MaxLat: 36.5, MinLon: -106.7, MaxLon: -93.5,
		Region: GridRegion{Code: "US-TEX-ERCO", Taxonomy: TaxonomyCarbon, DisplayName: "ERCOT", Country: "US", TimeZone: "America/Chicago"},
	},
	// New York ISO (declared before the PJM box, which it abuts)
	{
		MinLat: 40.5, MaxLat: 45.0, MinLon: -79.8, MaxLon: -71.8,
		Region: GridRegion{Code: "US-NY-NYIS", Taxonomy: TaxonomyCarbon, DisplayName: "New York ISO", Country: "US", TimeZone: "America/New_York"},
	},
	// PJM Interconnection (mid-Atlantic)
	{
		MinLat: 36.5, MaxLat: 42.5, MinLon: -90.5, MaxLon: -74.0,
		Region: GridRegion{Code: "US-MIDA-PJM", Taxonomy: TaxonomyCarbon, DisplayName: "PJM Interconnection", Country: "US", TimeZone: "America/New_York"},
	},
	// Pacific Northwest
	{
		MinLat: 42.0, MaxLat: 49.0, MinLon: -124.8, MaxLon: -116.5,
		Region: GridRegion{Code: "US-NW-PACW", Taxonomy: TaxonomyCarbon, DisplayName: "PacifiCorp West", Country: "US", TimeZone: "America/Los_Angeles"},
	},
	// Ontario (IESO)
	{
		MinLat: 41.7, MaxLat: 56.9, MinLon: -95.2, MaxLon: -74.3,
		Region: GridRegion{Code: "CA-ON", Taxonomy: TaxonomyCarbon, DisplayName: "Ontario", Country: "CA", TimeZone: "America/Toronto"},
	},
	// Alberta (AESO)
	{
		MinLat: 49.0, MaxLat: 60.0, MinLon: -120.0, MaxLon: -110.0,
		Region: GridRegion{Code: "CA-AB", Taxonomy: TaxonomyCarbon, DisplayName: "Alberta", Country: "CA", TimeZone: "America/Edmonton"},
	},
	// British Columbia
	{
		MinLat: 48.3, MaxLat: 60.0, MinLon: -139.1, MaxLon: -114.0,
		Region: GridRegion{Code: "CA-BC", Taxonomy: TaxonomyCarbon, DisplayName: "British Columbia", Country: "CA", TimeZone: "America/Vancouver"},
	},
	// Great Britain
	{
		MinLat: 49.9, MaxLat: 58.7, MinLon: -8.2, MaxLon: 1.8,
		Region: GridRegion{Code: "GB", Taxonomy: TaxonomyCarbon, DisplayName: "Great Britain", Country: "GB", TimeZone: "Europe/London"},
	},
	// Germany
	{
		MinLat: 47.3, MaxLat: 55.1, MinLon: 5.9, MaxLon: 15.0,
		Region: GridRegion{Code: "DE", Taxonomy: TaxonomyCarbon, DisplayName: "Germany", Country: "DE", TimeZone: "Europe/Berlin"},
	},
	// France
	{
		MinLat: 41.3, MaxLat: 51.1, MinLon: -5.1, MaxLon: 9.6,
		Region: GridRegion{Code: "FR", Taxonomy: TaxonomyCarbon, DisplayName: "France", Country: "FR", TimeZone: "Europe/Paris"},
	},
}
