package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Carbon: CarbonConfig{
			Provider: ProviderID(getEnvOrDefault("CARBON_PROVIDER", string(ProviderNone))),
			ElectricityMaps: ElectricityMapsConfig{
				APIKey:      os.Getenv("ELECTRICITY_MAPS_API_KEY"),
				URL:         getEnvOrDefault("ELECTRICITY_MAPS_API_URL", "https://api.electricitymap.org/v3"),
				Timeout:     getDurationOrDefault("ELECTRICITY_MAPS_TIMEOUT", 10*time.Second),
				CacheTTL:    getDurationOrDefault("ELECTRICITY_MAPS_CACHE_TTL", 5*time.Minute),
				MaxCacheAge: getDurationOrDefault("ELECTRICITY_MAPS_MAX_CACHE_AGE", time.Hour),
			},
			WattTime: WattTimeConfig{
				Username:    os.Getenv("WATTTIME_USERNAME"),
				Password:    os.Getenv("WATTTIME_PASSWORD"),
				URL:         getEnvOrDefault("WATTTIME_API_URL", "https://api.watttime.org"),
				Timeout:     getDurationOrDefault("WATTTIME_TIMEOUT", 10*time.Second),
				TokenMargin: getDurationOrDefault("WATTTIME_TOKEN_MARGIN", time.Minute),
			},
		},
		Pricing: PricingConfig{
			Provider: ProviderID(getEnvOrDefault("PRICING_PROVIDER", string(ProviderNone))),
			CAISO: CAISOConfig{
				URL:     getEnvOrDefault("CAISO_OASIS_URL", "http://oasis.caiso.com/oasisapi/SingleZip"),
				Timeout: getDurationOrDefault("CAISO_TIMEOUT", 30*time.Second),
			},
		},
		Decision:  DefaultDecisionConfig(),
		Estimator: EstimatorConfig{JitterEnabled: getBoolOrDefault("ESTIMATOR_JITTER_ENABLED", false), JitterFraction: getFloatOrDefault("ESTIMATOR_JITTER_FRACTION", 0.10)},
		Store: StoreConfig{
			Enabled:       getBoolOrDefault("STORE_ENABLED", false),
			DatabasePath:  os.Getenv("STORE_DATABASE_PATH"),
			RetentionDays: getIntOrDefault("STORE_RETENTION_DAYS", 30),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getBoolOrDefault("METRICS_ENABLED", true),
			MetricsPort:    getIntOrDefault("METRICS_PORT", 9090),
		},
	}

	cfg.Decision = DecisionConfig{
		ChargeRatio:       getFloatOrDefault("DECISION_CHARGE_RATIO", cfg.Decision.ChargeRatio),
		DischargeRatio:    getFloatOrDefault("DECISION_DISCHARGE_RATIO", cfg.Decision.DischargeRatio),
		PeakPercentile:    getFloatOrDefault("DECISION_PEAK_PERCENTILE", cfg.Decision.PeakPercentile),
		OffPeakPercentile: getFloatOrDefault("DECISION_OFFPEAK_PERCENTILE", cfg.Decision.OffPeakPercentile),
		TopK:              getIntOrDefault("DECISION_TOP_K", cfg.Decision.TopK),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	klog.V(2).InfoS("Loaded configuration from environment",
		"carbonProvider", cfg.Carbon.Provider,
		"pricingProvider", cfg.Pricing.Provider,
		"storeEnabled", cfg.Store.Enabled)

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file, applying env defaults
// first so a partial file only overrides what it names
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	cfg := &Config{Decision: DefaultDecisionConfig()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	klog.V(2).InfoS("Loaded configuration from file",
		"path", path,
		"carbonProvider", cfg.Carbon.Provider,
		"pricingProvider", cfg.Pricing.Provider)

	return cfg, nil
}

// DefaultDecisionConfig returns the documented decision-engine defaults
func DefaultDecisionConfig() DecisionConfig {
	return DecisionConfig{
		ChargeRatio:       0.8,
		DischargeRatio:    1.2,
		PeakPercentile:    0.75,
		OffPeakPercentile: 0.25,
		TopK:              5,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Carbon.Provider == "" {
		cfg.Carbon.Provider = ProviderNone
	}
	if cfg.Pricing.Provider == "" {
		cfg.Pricing.Provider = ProviderNone
	}
	if cfg.Carbon.ElectricityMaps.URL == "" {
		cfg.Carbon.ElectricityMaps.URL = "https://api.electricitymap.org/v3"
	}
	if cfg.Carbon.ElectricityMaps.Timeout == 0 {
		cfg.Carbon.ElectricityMaps.Timeout = 10 * time.Second
	}
	if cfg.Carbon.ElectricityMaps.CacheTTL == 0 {
		cfg.Carbon.ElectricityMaps.CacheTTL = 5 * time.Minute
	}
	if cfg.Carbon.ElectricityMaps.MaxCacheAge == 0 {
		cfg.Carbon.ElectricityMaps.MaxCacheAge = time.Hour
	}
	if cfg.Carbon.WattTime.URL == "" {
		cfg.Carbon.WattTime.URL = "https://api.watttime.org"
	}
	if cfg.Carbon.WattTime.Timeout == 0 {
		cfg.Carbon.WattTime.Timeout = 10 * time.Second
	}
	if cfg.Carbon.WattTime.TokenMargin == 0 {
		cfg.Carbon.WattTime.TokenMargin = time.Minute
	}
	if cfg.Pricing.CAISO.URL == "" {
		cfg.Pricing.CAISO.URL = "http://oasis.caiso.com/oasisapi/SingleZip"
	}
	if cfg.Pricing.CAISO.Timeout == 0 {
		cfg.Pricing.CAISO.Timeout = 30 * time.Second
	}
	if cfg.Estimator.JitterFraction == 0 {
		cfg.Estimator.JitterFraction = 0.10
	}
	if cfg.Store.RetentionDays == 0 {
		cfg.Store.RetentionDays = 30
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.Atoi(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid integer value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.ParseFloat(strValue, 64); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid float value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.ParseBool(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid boolean value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := time.ParseDuration(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid duration value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}
