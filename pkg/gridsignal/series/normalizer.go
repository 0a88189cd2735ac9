package series

import (
	"sort"
	"time"

	"k8s.io/klog/v2"
)

// NormalizeHourly converts raw, possibly irregular samples into an ordered,
// de-duplicated, hour-aligned series. Samples are grouped into bins keyed by
// their floor-to-hour UTC timestamp and each bin is reduced by arithmetic
// mean. A bin with zero samples is simply absent from the output; gaps stay
// gaps.
//
// The bin's source kind is estimated if any member was estimated, and the
// bin's confidence is the minimum member confidence, so mixing degraded data
// into an hour never inflates its apparent quality.
func NormalizeHourly(raw []Sample) Series {
	if len(raw) == 0 {
		return Series{}
	}

	type bin struct {
		sum        float64
		count      int
		estimated  bool
		confidence float64
	}

	bins := make(map[time.Time]*bin)
	for _, sample := range raw {
		hour := sample.Timestamp.UTC().Truncate(time.Hour)
		b, ok := bins[hour]
		if !ok {
			b = &bin{confidence: 1}
			bins[hour] = b
		}
		b.sum += sample.Value
		b.count++
		if sample.Source == SourceEstimated {
			b.estimated = true
		}
		if sample.Confidence < b.confidence {
			b.confidence = sample.Confidence
		}
	}

	hours := make([]time.Time, 0, len(bins))
	for hour := range bins {
		hours = append(hours, hour)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })

	out := make(Series, 0, len(hours))
	for _, hour := range hours {
		b := bins[hour]
		source := SourceLive
		if b.estimated {
			source = SourceEstimated
		}
		out = append(out, Sample{
			Timestamp:  hour,
			Value:      b.sum / float64(b.count),
			Source:     source,
			Confidence: b.confidence,
		})
	}

	klog.V(4).InfoS("Normalized samples into hourly series",
		"rawSamples", len(raw),
		"hourlyBins", len(out))

	return out
}
