package config

import (
	"fmt"
	"time"
)

// ProviderID is a closed enum of known upstream data sources. Credentials are
// keyed by these IDs and validated at startup, so a misconfigured provider
// fails at boot rather than on first use.
type ProviderID string

const (
	// ProviderElectricityMaps is the Electricity Maps carbon intensity API
	ProviderElectricityMaps ProviderID = "electricitymaps"

	// ProviderWattTime is the WattTime MOER API (bearer-token auth)
	ProviderWattTime ProviderID = "watttime"

	// ProviderCAISO is the CAISO OASIS wholesale pricing API (no auth)
	ProviderCAISO ProviderID = "caiso"

	// ProviderNone selects the unimplemented provider, which always defers
	// to the estimator
	ProviderNone ProviderID = "none"
)

// Config holds all configuration for the grid signal engine
type Config struct {
	Carbon        CarbonConfig        `yaml:"carbon"`
	Pricing       PricingConfig       `yaml:"pricing"`
	Decision      DecisionConfig      `yaml:"decision"`
	Estimator     EstimatorConfig     `yaml:"estimator"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// CarbonConfig selects and configures the carbon intensity provider
type CarbonConfig struct {
	Provider        ProviderID            `yaml:"provider"`
	ElectricityMaps ElectricityMapsConfig `yaml:"electricityMaps"`
	WattTime        WattTimeConfig        `yaml:"wattTime"`
}

// PricingConfig selects and configures the wholesale price provider
type PricingConfig struct {
	Provider ProviderID  `yaml:"provider"`
	CAISO    CAISOConfig `yaml:"caiso"`
}

// ElectricityMapsConfig holds Electricity Maps API settings
type ElectricityMapsConfig struct {
	APIKey      string        `yaml:"apiKey"`
	URL         string        `yaml:"url"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheTTL    time.Duration `yaml:"cacheTTL"`
	MaxCacheAge time.Duration `yaml:"maxCacheAge"`
}

// WattTimeConfig holds WattTime API settings. Username/password are exchanged
// for a short-lived bearer token which the client caches per instance.
type WattTimeConfig struct {
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	URL         string        `yaml:"url"`
	Timeout     time.Duration `yaml:"timeout"`
	TokenMargin time.Duration `yaml:"tokenMargin"` // re-auth when within this margin of expiry
}

// CAISOConfig holds CAISO OASIS API settings
type CAISOConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DecisionConfig holds the decision engine thresholds. Defaults:
// chargeRatio 0.8, dischargeRatio 1.2, peakPercentile 0.75,
// offPeakPercentile 0.25, topK 5.
type DecisionConfig struct {
	ChargeRatio       float64 `yaml:"chargeRatio"`
	DischargeRatio    float64 `yaml:"dischargeRatio"`
	PeakPercentile    float64 `yaml:"peakPercentile"`
	OffPeakPercentile float64 `yaml:"offPeakPercentile"`
	TopK              int     `yaml:"topK"`
}

// EstimatorConfig controls the synthetic-data fallback
type EstimatorConfig struct {
	// JitterEnabled adds bounded per-sample noise for display realism.
	// Disabled by default so estimates are reproducible.
	JitterEnabled bool `yaml:"jitterEnabled"`

	// JitterFraction bounds the noise as a fraction of the nominal value
	// (0.10 means ±10%). Capped at 0.20.
	JitterFraction float64 `yaml:"jitterFraction"`
}

// StoreConfig controls the optional local signal recorder
type StoreConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DatabasePath  string `yaml:"databasePath"`
	RetentionDays int    `yaml:"retentionDays"`
}

// ObservabilityConfig holds monitoring settings
type ObservabilityConfig struct {
	MetricsEnabled bool `yaml:"metricsEnabled"`
	MetricsPort    int  `yaml:"metricsPort"`
}

// Validate performs startup validation of the configuration
func (c *Config) Validate() error {
	switch c.Carbon.Provider {
	case ProviderElectricityMaps:
		if c.Carbon.ElectricityMaps.APIKey == "" {
			return fmt.Errorf("electricitymaps provider selected but no API key configured")
		}
	case ProviderWattTime:
		if c.Carbon.WattTime.Username == "" || c.Carbon.WattTime.Password == "" {
			return fmt.Errorf("watttime provider selected but credentials incomplete")
		}
	case ProviderNone:
	default:
		return fmt.Errorf("unknown carbon provider: %q", c.Carbon.Provider)
	}

	switch c.Pricing.Provider {
	case ProviderCAISO, ProviderNone:
	default:
		return fmt.Errorf("unknown pricing provider: %q", c.Pricing.Provider)
	}

	if err := c.Decision.validate(); err != nil {
		return fmt.Errorf("invalid decision config: %v", err)
	}

	if c.Estimator.JitterFraction < 0 || c.Estimator.JitterFraction > 0.20 {
		return fmt.Errorf("jitter fraction %f out of range [0, 0.20]", c.Estimator.JitterFraction)
	}

	if c.Store.Enabled && c.Store.DatabasePath == "" {
		return fmt.Errorf("store enabled but no database path configured")
	}

	return nil
}

func (d *DecisionConfig) validate() error {
	if d.ChargeRatio <= 0 || d.ChargeRatio >= 1 {
		return fmt.Errorf("charge ratio %f must be in (0, 1)", d.ChargeRatio)
	}
	if d.DischargeRatio <= 1 {
		return fmt.Errorf("discharge ratio %f must be greater than 1", d.DischargeRatio)
	}
	if d.PeakPercentile <= 0 || d.PeakPercentile >= 1 {
		return fmt.Errorf("peak percentile %f must be in (0, 1)", d.PeakPercentile)
	}
	if d.OffPeakPercentile <= 0 || d.OffPeakPercentile >= d.PeakPercentile {
		return fmt.Errorf("off-peak percentile %f must be in (0, peak percentile)", d.OffPeakPercentile)
	}
	if d.TopK <= 0 {
		return fmt.Errorf("topK must be positive, got %d", d.TopK)
	}
	return nil
}
