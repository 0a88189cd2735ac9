// Package gridsignal wires the region resolver, provider clients, estimator
// and decision engine into one request-scoped pipeline:
// resolve → fetch (or estimate) → normalize → summarize / decide.
//
// The pipeline always produces a usable result. Unresolved regions, provider
// failures and empty windows all degrade to estimated data or a neutral hold
// signal; degraded output is distinguishable through the samples' source kind
// and confidence, never through an error surfaced to the caller.
package gridsignal

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/cache"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/clock"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/config"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/decision"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/estimator"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/metrics"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/provider"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/provider/caiso"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/provider/electricitymaps"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/provider/null"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/provider/watttime"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/region"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/series"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/store"
)

// Engine is the per-request pipeline entry point. It holds only read-only
// reference data and per-provider auth state, so one Engine serves
// concurrent requests.
type Engine struct {
	cfg      *config.Config
	resolver *region.Resolver
	carbon   provider.Interface
	pricing  provider.Interface
	est      *estimator.Estimator
	recorder *store.Recorder
	clk      clock.Clock

	sampleCache *cache.Cache
}

// Option customizes an Engine
type Option func(*Engine)

// WithCarbonProvider overrides the configured carbon provider (tests)
func WithCarbonProvider(p provider.Interface) Option {
	return func(e *Engine) { e.carbon = p }
}

// WithPricingProvider overrides the configured pricing provider (tests)
func WithPricingProvider(p provider.Interface) Option {
	return func(e *Engine) { e.pricing = p }
}

// WithClock allows injecting a clock for tests
func WithClock(clk clock.Clock) Option {
	return func(e *Engine) { e.clk = clk }
}

// WithEstimator overrides the default estimator
func WithEstimator(est *estimator.Estimator) Option {
	return func(e *Engine) { e.est = est }
}

// New builds an engine from validated configuration
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		resolver: region.NewResolver(),
		clk:      clock.RealClock{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.est == nil {
		var estOpts []estimator.Option
		if cfg.Estimator.JitterEnabled {
			estOpts = append(estOpts, estimator.WithJitter(
				cfg.Estimator.JitterFraction,
				rand.New(rand.NewSource(time.Now().UnixNano()))))
		}
		e.est = estimator.New(estOpts...)
	}

	if e.carbon == nil {
		p, err := carbonProviderFactory(cfg, e)
		if err != nil {
			return nil, err
		}
		e.carbon = p
	}

	if e.pricing == nil {
		p, err := pricingProviderFactory(cfg)
		if err != nil {
			return nil, err
		}
		e.pricing = p
	}

	if cfg.Store.Enabled {
		recorder, err := store.NewRecorder(cfg.Store.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open signal recorder: %v", err)
		}
		e.recorder = recorder
	}

	klog.V(2).InfoS("Grid signal engine initialized",
		"carbonProvider", e.carbon.Name(),
		"pricingProvider", e.pricing.Name(),
		"recorderEnabled", e.recorder != nil)

	return e, nil
}

func carbonProviderFactory(cfg *config.Config, e *Engine) (provider.Interface, error) {
	switch cfg.Carbon.Provider {
	case config.ProviderElectricityMaps:
		e.sampleCache = cache.New(cfg.Carbon.ElectricityMaps.CacheTTL, cfg.Carbon.ElectricityMaps.MaxCacheAge)
		return electricitymaps.NewClient(cfg.Carbon.ElectricityMaps,
			electricitymaps.WithCache(e.sampleCache)), nil
	case config.ProviderWattTime:
		return watttime.NewClient(cfg.Carbon.WattTime), nil
	case config.ProviderNone:
		return null.New(), nil
	default:
		return nil, fmt.Errorf("unknown carbon provider: %q", cfg.Carbon.Provider)
	}
}

func pricingProviderFactory(cfg *config.Config) (provider.Interface, error) {
	switch cfg.Pricing.Provider {
	case config.ProviderCAISO:
		return caiso.NewClient(cfg.Pricing.CAISO), nil
	case config.ProviderNone:
		return null.New(), nil
	default:
		return nil, fmt.Errorf("unknown pricing provider: %q", cfg.Pricing.Provider)
	}
}

// Close releases provider caches and the recorder, if any
func (e *Engine) Close() error {
	if e.sampleCache != nil {
		e.sampleCache.Close()
	}
	if e.recorder != nil {
		return e.recorder.Close()
	}
	return nil
}

func (e *Engine) providerFor(taxonomy region.Taxonomy) (provider.Interface, estimator.Kind, decision.Kind) {
	if taxonomy == region.TaxonomyMarket {
		return e.pricing, estimator.KindPrice, decision.KindPrice
	}
	return e.carbon, estimator.KindCarbon, decision.KindCarbon
}

// Series returns an hour-aligned series for the point's region over
// [start, end). Provider failures and uncovered locations degrade to
// estimated samples; the only errors are invalid inputs.
func (e *Engine) Series(ctx context.Context, pt region.GeoPoint, taxonomy region.Taxonomy, start, end time.Time) (series.Series, error) {
	if err := validateRequest(pt, start, end); err != nil {
		return nil, err
	}

	reg, _ := e.resolver.Resolve(pt, taxonomy)
	return e.fetchWindow(ctx, taxonomy, reg, start, end), nil
}

// Summarize runs the resolve→fetch→normalize→summarize pipeline and returns
// the statistics together with the series they describe.
func (e *Engine) Summarize(ctx context.Context, pt region.GeoPoint, taxonomy region.Taxonomy, start, end time.Time) (*series.Statistics, series.Series, error) {
	s, err := e.Series(ctx, pt, taxonomy, start, end)
	if err != nil {
		return nil, nil, err
	}

	stats, err := series.Summarize(s, e.statsConfig())
	if err != nil {
		return nil, nil, err
	}
	return stats, s, nil
}

// Recommend runs the full pipeline and emits an optimization signal. The
// signal is always usable: provider failures fall back to estimates, and an
// empty forecast yields a neutral hold instead of an error.
func (e *Engine) Recommend(ctx context.Context, pt region.GeoPoint, taxonomy region.Taxonomy, start, end time.Time) (*decision.Signal, error) {
	if err := validateRequest(pt, start, end); err != nil {
		return nil, err
	}

	prov, estKind, decKind := e.providerFor(taxonomy)
	reg, resolved := e.resolver.Resolve(pt, taxonomy)

	current := e.fetchCurrent(ctx, prov, reg, resolved, estKind)
	forecast := e.fetchWindow(ctx, taxonomy, reg, start, end)

	decider := decision.NewEngine(decKind, e.cfg.Decision)
	signal, err := decider.Decide(current, forecast)
	if errors.Is(err, decision.ErrInsufficientForecast) {
		klog.V(2).InfoS("Forecast insufficient, emitting neutral hold",
			"taxonomy", taxonomy,
			"start", start,
			"end", end)
		signal = decider.NeutralHold(current)
	} else if err != nil {
		return nil, err
	}

	metrics.DecisionTotal.WithLabelValues(string(decKind), string(signal.Recommendation)).Inc()
	metrics.CurrentValue.WithLabelValues(string(taxonomy), regionLabel(reg), string(current.Source)).Set(current.Value)

	if e.recorder != nil {
		if err := e.recorder.RecordSignal(regionLabel(reg), string(decKind), signal); err != nil {
			klog.ErrorS(err, "Failed to record signal", "region", regionLabel(reg))
		}
	}

	return signal, nil
}

// fetchCurrent reads the point-in-time value, estimating it when the region
// is unresolved or the provider fails
func (e *Engine) fetchCurrent(ctx context.Context, prov provider.Interface, reg *region.GridRegion, resolved bool, estKind estimator.Kind) series.Sample {
	if !resolved {
		metrics.FallbackTotal.WithLabelValues(string(estKind), "unresolved_region").Inc()
		return e.est.EstimateCurrent(estKind, reg, e.clk.Now())
	}

	begin := e.clk.Now()
	sample, err := prov.FetchCurrent(ctx, *reg)
	metrics.FetchDuration.WithLabelValues(prov.Name(), "current").Observe(e.clk.Since(begin).Seconds())

	if err != nil {
		metrics.ProviderFetchTotal.WithLabelValues(prov.Name(), "current", "unavailable").Inc()
		metrics.FallbackTotal.WithLabelValues(string(estKind), "provider_unavailable").Inc()
		klog.V(2).InfoS("Current fetch failed, estimating",
			"provider", prov.Name(),
			"region", reg.Code,
			"error", err)
		return e.est.EstimateCurrent(estKind, reg, e.clk.Now())
	}

	metrics.ProviderFetchTotal.WithLabelValues(prov.Name(), "current", "success").Inc()
	return sample
}

// fetchWindow reads a bulk window, substituting the estimator exactly once
// on any failure. Unsupported windows are a caller error and logged loudly,
// but production paths still get an estimate rather than a crash.
func (e *Engine) fetchWindow(ctx context.Context, taxonomy region.Taxonomy, reg *region.GridRegion, start, end time.Time) series.Series {
	prov, estKind, _ := e.providerFor(taxonomy)

	if reg == nil {
		metrics.FallbackTotal.WithLabelValues(string(estKind), "unresolved_region").Inc()
		return e.est.Estimate(estKind, reg, start, end)
	}

	begin := e.clk.Now()
	s, err := prov.FetchWindow(ctx, *reg, start, end)
	metrics.FetchDuration.WithLabelValues(prov.Name(), "window").Observe(e.clk.Since(begin).Seconds())

	switch {
	case provider.IsUnsupportedWindow(err):
		metrics.ProviderFetchTotal.WithLabelValues(prov.Name(), "window", "unsupported_window").Inc()
		metrics.FallbackTotal.WithLabelValues(string(estKind), "unsupported_window").Inc()
		klog.ErrorS(err, "Requested window direction not served by provider, estimating",
			"provider", prov.Name(),
			"region", reg.Code)
		return e.est.Estimate(estKind, reg, start, end)
	case err != nil:
		metrics.ProviderFetchTotal.WithLabelValues(prov.Name(), "window", "unavailable").Inc()
		metrics.FallbackTotal.WithLabelValues(string(estKind), "provider_unavailable").Inc()
		klog.V(2).InfoS("Window fetch failed, estimating",
			"provider", prov.Name(),
			"region", reg.Code,
			"error", err)
		return e.est.Estimate(estKind, reg, start, end)
	case len(s) == 0:
		metrics.ProviderFetchTotal.WithLabelValues(prov.Name(), "window", "success").Inc()
		metrics.FallbackTotal.WithLabelValues(string(estKind), "empty_series").Inc()
		klog.V(2).InfoS("Provider returned empty window, estimating",
			"provider", prov.Name(),
			"region", reg.Code)
		return e.est.Estimate(estKind, reg, start, end)
	}

	metrics.ProviderFetchTotal.WithLabelValues(prov.Name(), "window", "success").Inc()
	return s
}

// CleanupStore prunes recorded signals past the configured retention
func (e *Engine) CleanupStore() error {
	if e.recorder == nil {
		return nil
	}
	return e.recorder.Cleanup(e.cfg.Store.RetentionDays)
}

func (e *Engine) statsConfig() series.StatsConfig {
	return series.StatsConfig{
		PeakPercentile:    e.cfg.Decision.PeakPercentile,
		OffPeakPercentile: e.cfg.Decision.OffPeakPercentile,
		TopK:              e.cfg.Decision.TopK,
		Location:          time.UTC,
	}
}

func validateRequest(pt region.GeoPoint, start, end time.Time) error {
	if err := pt.Validate(); err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("window end %s must be after start %s", end, start)
	}
	return nil
}

func regionLabel(reg *region.GridRegion) string {
	if reg == nil {
		return "unresolved"
	}
	return reg.Code
}
