package region

// marketZoneBoxes maps geographic bounding boxes to wholesale market pricing
// zones (trading hubs / settlement points).
//
// Same ordering contract as carbonZoneBoxes: first containing box wins, so the
// NP15/SP15 split of California is declared before anything that could enclose
// it. Market coverage is narrower than carbon coverage on purpose: a point
// with a carbon zone but no market zone is a normal outcome.
var marketZoneBoxes = []boundingBox{
	// CAISO NP15 trading hub (northern California, includes the Bay Area)
	{
		MinLat: 37.0, MaxLat: 42.0, MinLon: -124.5, MaxLon: -118.0,
		Region: GridRegion{Code: "TH_NP15_GEN-APND", Taxonomy: TaxonomyMarket, DisplayName: "CAISO NP15 Trading Hub", Country: "US", TimeZone: "America/Los_Angeles"},
	},
	// CAISO SP15 trading hub (southern California)
	{
		MinLat: 32.5, MaxLat: 37.0, MinLon: -121.0, MaxLon: -114.1,
		Region: GridRegion{Code: "TH_SP15_GEN-APND", Taxonomy: TaxonomyMarket, DisplayName: "CAISO SP15 Trading Hub", Country: "US", TimeZone: "America/Los_Angeles"},
	},
	// ERCOT hub average
	{
		MinLat: 25.8, MaxLat: 36.5, MinLon: -106.7, MaxLon: -93.5,
		Region: GridRegion{Code: "HB_HUBAVG", Taxonomy: TaxonomyMarket, DisplayName: "ERCOT Hub Average", Country: "US", TimeZone: "America/Chicago"},
	},
	// NYISO zone J (New York City) before the wider NYISO reference bus box
	{
		MinLat: 40.5, MaxLat: 41.0, MinLon: -74.3, MaxLon: -73.6,
		Region: GridRegion{Code: "NYISO_ZONE_J", Taxonomy: TaxonomyMarket, DisplayName: "NYISO Zone J (NYC)", Country: "US", TimeZone: "America/New_York"},
	},
	{
		MinLat: 40.5, MaxLat: 45.0, MinLon: -79.8, MaxLon: -71.8,
		Region: GridRegion{Code: "NYISO_REF", Taxonomy: TaxonomyMarket, DisplayName: "NYISO Reference Bus", Country: "US", TimeZone: "America/New_York"},
	},
	// IESO Ontario (single HOEP price for the whole province)
	{
		MinLat: 41.7, MaxLat: 56.9, MinLon: -95.2, MaxLon: -74.3,
		Region: GridRegion{Code: "IESO_HOEP", Taxonomy: TaxonomyMarket, DisplayName: "IESO Ontario HOEP", Country: "CA", TimeZone: "America/Toronto"},
	},
}
