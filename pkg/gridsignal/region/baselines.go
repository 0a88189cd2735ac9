package region

// Baseline scalars for estimated data, keyed by zone code. Values are
// long-run annual averages from public grid operator year-end reports, not
// live measurements.

const (
	// DefaultCarbonBaseline is used when a zone has no entry (gCO2/kWh)
	DefaultCarbonBaseline = 300.0

	// DefaultPriceBaseline is used when a zone has no entry ($/MWh)
	DefaultPriceBaseline = 50.0

	// FossilReferenceIntensity is the fixed reference used for the
	// clean-energy display percentage: a typical fossil-heavy grid
	// (gCO2/kWh). It is a display heuristic, not a metered renewable share.
	FossilReferenceIntensity = 500.0
)

// carbonBaselines holds average carbon intensity per zone in gCO2/kWh
var carbonBaselines = map[string]float64{
	"US-CAL-CISO": 220, // solar-heavy, gas at the margin
	"US-TEX-ERCO": 400,
	"US-NY-NYIS":  230,
	"US-MIDA-PJM": 380,
	"US-NW-PACW":  150,
	"CA-ON":       40, // nuclear + hydro dominant
	"CA-AB":       600,
	"CA-BC":       20,
	"GB":          200,
	"DE":          350,
	"FR":          60,
}

// priceBaselines holds average wholesale price per market zone in $/MWh
var priceBaselines = map[string]float64{
	"TH_NP15_GEN-APND": 50,
	"TH_SP15_GEN-APND": 55,
	"HB_HUBAVG":        40,
	"NYISO_ZONE_J":     65,
	"NYISO_REF":        45,
	"IESO_HOEP":        30,
}

// CarbonBaseline returns the average carbon intensity for a zone, or the
// default when the zone is unknown or region is nil (unresolved location).
func CarbonBaseline(region *GridRegion) float64 {
	if region == nil {
		return DefaultCarbonBaseline
	}
	if v, ok := carbonBaselines[region.Code]; ok {
		return v
	}
	return DefaultCarbonBaseline
}

// PriceBaseline returns the average wholesale price for a market zone, or the
// default when the zone is unknown or region is nil.
func PriceBaseline(region *GridRegion) float64 {
	if region == nil {
		return DefaultPriceBaseline
	}
	if v, ok := priceBaselines[region.Code]; ok {
		return v
	}
	return DefaultPriceBaseline
}
