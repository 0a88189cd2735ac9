package region

import (
	"testing"
)

func TestResolveCarbonZones(t *testing.T) {
	resolver := NewResolver()

	tests := []struct {
		name      string
		lat       float64
		lon       float64
		wantCode  string
		wantFound bool
	}{
		{
			name:      "san francisco resolves to CAISO",
			lat:       37.77,
			lon:       -122.42,
			wantCode:  "US-CAL-CISO",
			wantFound: true,
		},
		{
			name:      "austin resolves to ERCOT",
			lat:       30.27,
			lon:       -97.74,
			wantCode:  "US-TEX-ERCO",
			wantFound: true,
		},
		{
			name:      "ottawa resolves to Ontario",
			lat:       45.42,
			lon:       -75.70,
			wantCode:  "CA-ON",
			wantFound: true,
		},
		{
			name:      "calgary resolves to Alberta",
			lat:       51.05,
			lon:       -114.07,
			wantCode:  "CA-AB",
			wantFound: true,
		},
		{
			name:      "london resolves to GB",
			lat:       51.51,
			lon:       -0.13,
			wantCode:  "GB",
			wantFound: true,
		},
		{
			name:      "mid-pacific has no coverage",
			lat:       0,
			lon:       -150,
			wantFound: false,
		},
		{
			name:      "nyc overlap picks NYISO before PJM",
			lat:       40.71,
			lon:       -74.01,
			wantCode:  "US-NY-NYIS",
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := GeoPoint{Latitude: tt.lat, Longitude: tt.lon}
			region, found := resolver.Resolve(p, TaxonomyCarbon)
			if found != tt.wantFound {
				t.Fatalf("Resolve() found = %v, want %v", found, tt.wantFound)
			}
			if !found {
				if region != nil {
					t.Errorf("Resolve() returned region %v for unresolved point", region)
				}
				return
			}
			if region.Code != tt.wantCode {
				t.Errorf("Resolve() code = %s, want %s", region.Code, tt.wantCode)
			}
			if region.Taxonomy != TaxonomyCarbon {
				t.Errorf("Resolve() taxonomy = %s, want %s", region.Taxonomy, TaxonomyCarbon)
			}
		})
	}
}

func TestResolveMarketZones(t *testing.T) {
	resolver := NewResolver()

	tests := []struct {
		name      string
		lat       float64
		lon       float64
		wantCode  string
		wantFound bool
	}{
		{
			name:      "northern california resolves to NP15",
			lat:       38.58,
			lon:       -121.49,
			wantCode:  "TH_NP15_GEN-APND",
			wantFound: true,
		},
		{
			name:      "southern california resolves to SP15",
			lat:       34.05,
			lon:       -118.24,
			wantCode:  "TH_SP15_GEN-APND",
			wantFound: true,
		},
		{
			name:      "texas resolves to ERCOT hub average",
			lat:       30.27,
			lon:       -97.74,
			wantCode:  "HB_HUBAVG",
			wantFound: true,
		},
		{
			name:      "nyc resolves to zone J before the NYISO reference zone",
			lat:       40.71,
			lon:       -74.01,
			wantCode:  "NYISO_ZONE_J",
			wantFound: true,
		},
		{
			name:      "atlantic has no market coverage",
			lat:       45,
			lon:       -40,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := GeoPoint{Latitude: tt.lat, Longitude: tt.lon}
			region, found := resolver.Resolve(p, TaxonomyMarket)
			if found != tt.wantFound {
				t.Fatalf("Resolve() found = %v, want %v", found, tt.wantFound)
			}
			if found && region.Code != tt.wantCode {
				t.Errorf("Resolve() code = %s, want %s", region.Code, tt.wantCode)
			}
		})
	}
}

func TestResolveSameCoordinatesAcrossTaxonomies(t *testing.T) {
	resolver := NewResolver()
	p := GeoPoint{Latitude: 37.77, Longitude: -122.42}

	carbon, found := resolver.Resolve(p, TaxonomyCarbon)
	if !found || carbon.Code != "US-CAL-CISO" {
		t.Fatalf("carbon resolve = %v, %v; want US-CAL-CISO", carbon, found)
	}

	market, found := resolver.Resolve(p, TaxonomyMarket)
	if !found || market.Code != "TH_NP15_GEN-APND" {
		t.Fatalf("market resolve = %v, %v; want TH_NP15_GEN-APND", market, found)
	}
}

func TestResolveBoundaryInclusive(t *testing.T) {
	resolver := NewResolver()

	// CAISO's box spans latitude [32.5, 42]; a point exactly on the edge is
	// inside.
	p := GeoPoint{Latitude: 42.0, Longitude: -120.0}
	region, found := resolver.Resolve(p, TaxonomyCarbon)
	if !found {
		t.Fatal("expected edge point to resolve")
	}
	if region.Code != "US-CAL-CISO" {
		t.Errorf("edge point resolved to %s, want US-CAL-CISO", region.Code)
	}
}

func TestResolveUnknownTaxonomy(t *testing.T) {
	resolver := NewResolver()
	_, found := resolver.Resolve(GeoPoint{Latitude: 37.77, Longitude: -122.42}, Taxonomy("weather"))
	if found {
		t.Error("expected unknown taxonomy to resolve nothing")
	}
}

func TestNewGeoPointValidation(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"valid", 37.77, -122.42, false},
		{"latitude too high", 91, 0, true},
		{"latitude too low", -91, 0, true},
		{"longitude too high", 0, 181, true},
		{"longitude too low", 0, -181, true},
		{"extremes are valid", 90, 180, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGeoPoint(tt.lat, tt.lon)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGeoPoint(%f, %f) error = %v, wantErr %v", tt.lat, tt.lon, err, tt.wantErr)
			}
		})
	}
}

func TestBaselines(t *testing.T) {
	if got := CarbonBaseline(nil); got != DefaultCarbonBaseline {
		t.Errorf("CarbonBaseline(nil) = %f, want default %f", got, DefaultCarbonBaseline)
	}
	if got := PriceBaseline(nil); got != DefaultPriceBaseline {
		t.Errorf("PriceBaseline(nil) = %f, want default %f", got, DefaultPriceBaseline)
	}

	ontario := &GridRegion{Code: "CA-ON"}
	if got := CarbonBaseline(ontario); got != 40 {
		t.Errorf("CarbonBaseline(CA-ON) = %f, want 40", got)
	}
	alberta := &GridRegion{Code: "CA-AB"}
	if got := CarbonBaseline(alberta); got != 600 {
		t.Errorf("CarbonBaseline(CA-AB) = %f, want 600", got)
	}

	unknown := &GridRegion{Code: "ZZ-UNKNOWN"}
	if got := CarbonBaseline(unknown); got != DefaultCarbonBaseline {
		t.Errorf("CarbonBaseline(unknown) = %f, want default %f", got, DefaultCarbonBaseline)
	}
}
