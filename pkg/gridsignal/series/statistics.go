package series

import (
	"errors"
	"sort"
	"time"
)

// ErrEmptySeries is reported when statistics are requested over zero samples.
// It is a recoverable condition: callers render "insufficient data" rather
// than failing the request.
var ErrEmptySeries = errors.New("series has no samples")

// StatsConfig controls classification thresholds for Summarize
type StatsConfig struct {
	// PeakPercentile selects the peak threshold (default 0.75)
	PeakPercentile float64

	// OffPeakPercentile selects the off-peak threshold (default 0.25)
	OffPeakPercentile float64

	// TopK is how many cheapest samples to report (default 5)
	TopK int

	// Location is the timezone for the hourly profile buckets (default UTC)
	Location *time.Location
}

// DefaultStatsConfig returns the documented default classification settings
func DefaultStatsConfig() StatsConfig {
	return StatsConfig{
		PeakPercentile:    0.75,
		OffPeakPercentile: 0.25,
		TopK:              5,
		Location:          time.UTC,
	}
}

// Statistics summarizes the distribution of a series. It is derived data,
// recomputed on demand and never persisted apart from its series.
type Statistics struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	P25    float64
	P75    float64

	// PeakThreshold and OffPeakThreshold are the configured-percentile
	// cut-offs used for peak/off-peak membership
	PeakThreshold    float64
	OffPeakThreshold float64

	// PeakPeriods holds samples with value >= PeakThreshold; OffPeakPeriods
	// holds samples with value <= OffPeakThreshold. Both bounds are
	// inclusive: a flat series puts every sample in both sets.
	PeakPeriods    Series
	OffPeakPeriods Series

	// HourlyProfile maps hour-of-day to the mean value in that hour.
	// Hours with no samples are absent.
	HourlyProfile map[int]float64

	// TopCheapest lists the K lowest-value samples, ascending, ties kept in
	// original series order
	TopCheapest Series

	// BestWindows and WorstWindows are the contiguous hourly runs of
	// off-peak and peak samples respectively
	BestWindows  []TimeWindow
	WorstWindows []TimeWindow
}

// TimeWindow is a contiguous [Start, End) span with its average value
type TimeWindow struct {
	Start   time.Time
	End     time.Time
	Average float64
}

// Summarize computes descriptive statistics and peak/off-peak classification
// over a series. Returns ErrEmptySeries when the series has zero samples.
func Summarize(s Series, cfg StatsConfig) (*Statistics, error) {
	if len(s) == 0 {
		return nil, ErrEmptySeries
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	values := s.Values()
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	stats := &Statistics{
		Count:            len(s),
		Min:              sorted[0],
		Max:              sorted[len(sorted)-1],
		Mean:             s.Mean(),
		Median:           median(sorted),
		P25:              percentile(sorted, 0.25),
		P75:              percentile(sorted, 0.75),
		PeakThreshold:    percentile(sorted, cfg.PeakPercentile),
		OffPeakThreshold: percentile(sorted, cfg.OffPeakPercentile),
		HourlyProfile:    hourlyProfile(s, cfg.Location),
	}

	for _, sample := range s {
		if sample.Value >= stats.PeakThreshold {
			stats.PeakPeriods = append(stats.PeakPeriods, sample)
		}
		if sample.Value <= stats.OffPeakThreshold {
			stats.OffPeakPeriods = append(stats.OffPeakPeriods, sample)
		}
	}

	stats.TopCheapest = topCheapest(s, cfg.TopK)
	stats.BestWindows = contiguousWindows(stats.OffPeakPeriods)
	stats.WorstWindows = contiguousWindows(stats.PeakPeriods)

	return stats, nil
}

// percentile selects sorted[floor(n*fraction)], clamped to a valid index.
// This floor-based selection is a preserved contract: changing it to an
// interpolated percentile would silently reclassify peak/off-peak hours.
func percentile(sorted []float64, fraction float64) float64 {
	idx := int(float64(len(sorted)) * fraction)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// median of an even-count series is the mean of the two central elements
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func hourlyProfile(s Series, loc *time.Location) map[int]float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, sample := range s {
		hour := sample.Timestamp.In(loc).Hour()
		sums[hour] += sample.Value
		counts[hour]++
	}

	profile := make(map[int]float64, len(sums))
	for hour, sum := range sums {
		profile[hour] = sum / float64(counts[hour])
	}
	return profile
}

// topCheapest returns the k lowest-value samples ascending, using a stable
// sort so ties keep original series order
func topCheapest(s Series, k int) Series {
	if k <= 0 {
		return Series{}
	}
	sorted := append(Series(nil), s...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}

// contiguousWindows collapses hour-aligned samples into runs of consecutive
// hours. Samples more than one hour apart start a new window.
func contiguousWindows(s Series) []TimeWindow {
	if len(s) == 0 {
		return nil
	}

	sorted := append(Series(nil), s...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var windows []TimeWindow
	start := sorted[0].Timestamp
	prev := sorted[0].Timestamp
	sum := sorted[0].Value
	count := 1

	flush := func(end time.Time) {
		windows = append(windows, TimeWindow{
			Start:   start,
			End:     end.Add(time.Hour),
			Average: sum / float64(count),
		})
	}

	for _, sample := range sorted[1:] {
		if sample.Timestamp.Sub(prev) > time.Hour {
			flush(prev)
			start = sample.Timestamp
			sum = 0
			count = 0
		}
		prev = sample.Timestamp
		sum += sample.Value
		count++
	}
	flush(prev)

	return windows
}
