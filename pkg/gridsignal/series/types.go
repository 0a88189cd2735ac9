// Package series holds the time-series value types shared by providers, the
// estimator and the decision engine, plus normalization and statistics over
// them. A series' unit is fixed by its producer (gCO2/kWh for carbon,
// $/MWh for wholesale price) and is never mixed within one series.
package series

import "time"

// SourceKind distinguishes live provider data from synthesized estimates
type SourceKind string

const (
	// SourceLive marks samples returned by an upstream provider
	SourceLive SourceKind = "live"

	// SourceEstimated marks samples synthesized from baselines. Presentation
	// layers use this to show a "using estimated data" indicator.
	SourceEstimated SourceKind = "estimated"
)

// Sample is a single (timestamp, value) observation. Timestamps are UTC.
type Sample struct {
	Timestamp  time.Time
	Value      float64
	Source     SourceKind
	Confidence float64 // in [0, 1]
}

// Series is an ordered, strictly-increasing-by-timestamp sequence of samples
// covering a requested window. Gaps are allowed; a series is never densely
// padded with synthetic zeros.
type Series []Sample

// Values returns the sample values in series order
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, sample := range s {
		values[i] = sample.Value
	}
	return values
}

// Mean returns the arithmetic mean of the sample values, or 0 for an empty
// series. Callers that must distinguish "empty" check len first.
func (s Series) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, sample := range s {
		sum += sample.Value
	}
	return sum / float64(len(s))
}

// Window restricts the series to samples with start <= timestamp < end
func (s Series) Window(start, end time.Time) Series {
	out := make(Series, 0, len(s))
	for _, sample := range s {
		if sample.Timestamp.Before(start) || !sample.Timestamp.Before(end) {
			continue
		}
		out = append(out, sample)
	}
	return out
}
