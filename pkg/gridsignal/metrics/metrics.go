// Package metrics defines the Prometheus collectors for the grid signal
// engine. Collectors register with the default registry; the exporter
// command serves them over promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gridsignal"

var (
	// ProviderFetchTotal counts upstream fetches by provider and result
	ProviderFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_fetch_total",
			Help:      "Number of upstream provider fetches by result",
		},
		[]string{"provider", "operation", "result"}, // result: "success", "unavailable", "unsupported_window"
	)

	// FallbackTotal counts substitutions of estimated data for live data
	FallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimator_fallback_total",
			Help:      "Number of times the estimator substituted for a provider",
		},
		[]string{"kind", "reason"}, // reason: "unresolved_region", "provider_unavailable", "unsupported_window", "no_provider"
	)

	// CurrentValue tracks the most recent current reading per region
	CurrentValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_value",
			Help:      "Most recent current reading (gCO2/kWh for carbon, $/MWh for price)",
		},
		[]string{"taxonomy", "region", "source"},
	)

	// FetchDuration measures upstream fetch latency per provider
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_fetch_duration_seconds",
			Help:      "Latency of upstream provider fetches",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"provider", "operation"},
	)

	// DecisionTotal counts emitted signals by recommendation
	DecisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decision_total",
			Help:      "Number of optimization signals emitted by recommendation",
		},
		[]string{"kind", "recommendation"},
	)
)

func init() {
	prometheus.MustRegister(ProviderFetchTotal)
	prometheus.MustRegister(FallbackTotal)
	prometheus.MustRegister(CurrentValue)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(DecisionTotal)
}
