// Package estimator synthesizes hourly series from regional baselines and a
// diurnal shape when no live provider data is available. It never performs
// I/O, so it is always a safe and fast substitute on failure paths,
// including cancellation-adjacent ones.
package estimator

import (
	"math/rand"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/region"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/series"
)

// Kind selects which baseline and diurnal shape to use
type Kind string

const (
	// KindCarbon estimates grid carbon intensity in gCO2/kWh
	KindCarbon Kind = "carbon"

	// KindPrice estimates wholesale price in $/MWh
	KindPrice Kind = "price"
)

// Confidence assigned to estimates; always at most 0.5 so downstream
// consumers can tell degraded output from live data
const (
	confidenceResolved   = 0.4  // region resolved, regional baseline used
	confidenceUnresolved = 0.25 // default baseline only
)

// hourMultiplier applies within [StartHour, EndHour)
type hourMultiplier struct {
	StartHour  int
	EndHour    int
	Multiplier float64
}

// carbonShape follows the typical gas-peaking pattern: low overnight, a
// morning ramp, flat through solar hours, highest during the evening peak
var carbonShape = []hourMultiplier{
	{0, 6, 0.90},
	{6, 9, 1.05},
	{9, 17, 1.00},
	{17, 22, 1.20},
	{22, 24, 0.95},
}

// priceShape follows observed wholesale patterns: cheap overnight, a morning
// ramp, mid-day solar depression, expensive evening peak
var priceShape = []hourMultiplier{
	{0, 6, 0.60},
	{6, 9, 1.10},
	{9, 16, 0.90},
	{16, 21, 2.20},
	{21, 24, 1.00},
}

// Estimator produces synthetic series. Zero value is not usable; construct
// with New.
type Estimator struct {
	jitterEnabled  bool
	jitterFraction float64

	// mu guards rnd. One estimator serves concurrent requests and
	// *rand.Rand is not safe for unsynchronized use.
	mu  sync.Mutex
	rnd *rand.Rand
}

// Option customizes an Estimator
type Option func(*Estimator)

// WithJitter enables bounded per-sample noise for display realism. The
// fraction is clamped to [0, 0.20] so jitter never changes the qualitative
// peak/off-peak shape.
func WithJitter(fraction float64, rnd *rand.Rand) Option {
	return func(e *Estimator) {
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 0.20 {
			fraction = 0.20
		}
		e.jitterEnabled = fraction > 0
		e.jitterFraction = fraction
		e.rnd = rnd
	}
}

// New creates an estimator. Jitter is off by default so repeated calls for
// the same window yield identical series.
func New(opts ...Option) *Estimator {
	e := &Estimator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate synthesizes an hourly series for [start, end). A nil region means
// the location resolved to no coverage; the default baseline is used and the
// confidence is reduced. Every sample is tagged SourceEstimated.
func (e *Estimator) Estimate(kind Kind, r *region.GridRegion, start, end time.Time) series.Series {
	var baseline float64
	var shape []hourMultiplier
	switch kind {
	case KindPrice:
		baseline = region.PriceBaseline(r)
		shape = priceShape
	default:
		baseline = region.CarbonBaseline(r)
		shape = carbonShape
	}

	confidence := confidenceUnresolved
	regionCode := ""
	if r != nil {
		confidence = confidenceResolved
		regionCode = r.Code
	}

	out := series.Series{}
	for ts := start.UTC().Truncate(time.Hour); ts.Before(end); ts = ts.Add(time.Hour) {
		if ts.Before(start) {
			continue
		}
		value := baseline * multiplierFor(shape, ts.Hour())
		if e.jitterEnabled && e.rnd != nil {
			value *= 1 + e.jitterOffset()
		}
		out = append(out, series.Sample{
			Timestamp:  ts,
			Value:      value,
			Source:     series.SourceEstimated,
			Confidence: confidence,
		})
	}

	klog.V(3).InfoS("Synthesized estimated series",
		"kind", kind,
		"region", regionCode,
		"baseline", baseline,
		"samples", len(out),
		"jitter", e.jitterEnabled)

	return out
}

// EstimateCurrent synthesizes a single sample for the hour containing now
func (e *Estimator) EstimateCurrent(kind Kind, r *region.GridRegion, now time.Time) series.Sample {
	hour := now.UTC().Truncate(time.Hour)
	s := e.Estimate(kind, r, hour, hour.Add(time.Hour))
	return s[0]
}

// jitterOffset draws a uniform factor in [-fraction, +fraction], serializing
// access to the shared rand source
func (e *Estimator) jitterOffset() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return (e.rnd.Float64()*2 - 1) * e.jitterFraction
}

func multiplierFor(shape []hourMultiplier, hour int) float64 {
	for _, m := range shape {
		if hour >= m.StartHour && hour < m.EndHour {
			return m.Multiplier
		}
	}
	return 1
}
