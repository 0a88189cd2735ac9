package region

import "fmt"

// Taxonomy identifies which region classification scheme a code belongs to.
// Carbon zones follow Electricity Maps zone IDs; market zones follow ISO
// trading hub / settlement point identifiers.
type Taxonomy string

const (
	// TaxonomyCarbon covers carbon-intensity service zones (e.g. US-CAL-CISO)
	TaxonomyCarbon Taxonomy = "carbon"

	// TaxonomyMarket covers wholesale market pricing zones (e.g. TH_NP15_GEN-APND)
	TaxonomyMarket Taxonomy = "market"
)

// GeoPoint is a validated latitude/longitude pair
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// NewGeoPoint validates coordinates and returns a GeoPoint
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{Latitude: lat, Longitude: lon}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// Validate checks that the coordinates are within valid ranges
func (p GeoPoint) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", p.Longitude)
	}
	return nil
}

// GridRegion contains metadata about an administrative grid zone.
// Instances are static reference data and never mutated at runtime.
type GridRegion struct {
	// Code is the zone identifier used with the corresponding provider API
	Code string

	// Taxonomy indicates which classification scheme Code belongs to
	Taxonomy Taxonomy

	// DisplayName is a human-readable region name
	DisplayName string

	// Country is the ISO 3166-1 alpha-2 country code for this region
	Country string

	// TimeZone for this region (useful for hourly profile rendering)
	TimeZone string
}

// boundingBox pairs a rectangular geographic extent with the region it maps to
type boundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	Region         GridRegion
}

// contains reports whether the point falls inside the box (edges inclusive)
func (b boundingBox) contains(p GeoPoint) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
}
