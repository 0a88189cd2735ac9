package series

import (
	"errors"
	"testing"
	"time"
)

func hourlySeries(start time.Time, values ...float64) Series {
	s := make(Series, len(values))
	for i, v := range values {
		s[i] = Sample{
			Timestamp:  start.Add(time.Duration(i) * time.Hour),
			Value:      v,
			Source:     SourceLive,
			Confidence: 1,
		}
	}
	return s
}

func TestSummarizeEmptySeries(t *testing.T) {
	_, err := Summarize(Series{}, DefaultStatsConfig())
	if !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("Summarize(empty) error = %v, want ErrEmptySeries", err)
	}
}

func TestSummarizeBasicStatistics(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := hourlySeries(start, 10, 20, 30, 40)

	stats, err := Summarize(s, DefaultStatsConfig())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if stats.Count != 4 {
		t.Errorf("Count = %d, want 4", stats.Count)
	}
	if stats.Min != 10 || stats.Max != 40 {
		t.Errorf("Min/Max = %f/%f, want 10/40", stats.Min, stats.Max)
	}
	if stats.Mean != 25 {
		t.Errorf("Mean = %f, want 25", stats.Mean)
	}
	// Even count: median is the mean of the two central elements.
	if stats.Median != 25 {
		t.Errorf("Median = %f, want 25", stats.Median)
	}
	// Floor-indexed selection: p25 of 4 samples is sorted[1]=20, p75 is
	// sorted[3]=40.
	if stats.P25 != 20 {
		t.Errorf("P25 = %f, want 20", stats.P25)
	}
	if stats.P75 != 40 {
		t.Errorf("P75 = %f, want 40", stats.P75)
	}
}

func TestSummarizeOddCountMedian(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := hourlySeries(start, 30, 10, 20)

	stats, err := Summarize(s, DefaultStatsConfig())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if stats.Median != 20 {
		t.Errorf("Median = %f, want 20", stats.Median)
	}
}

func TestSummarizeSingleSample(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := hourlySeries(start, 42)

	stats, err := Summarize(s, DefaultStatsConfig())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if stats.Min != 42 || stats.Max != 42 || stats.Mean != 42 || stats.Median != 42 {
		t.Errorf("single sample stats = %+v, want all 42", stats)
	}
	if stats.PeakThreshold != 42 || stats.OffPeakThreshold != 42 {
		t.Errorf("thresholds = %f/%f, want 42/42", stats.PeakThreshold, stats.OffPeakThreshold)
	}
	// The single sample is both peak and off-peak.
	if len(stats.PeakPeriods) != 1 || len(stats.OffPeakPeriods) != 1 {
		t.Errorf("peak/off-peak counts = %d/%d, want 1/1", len(stats.PeakPeriods), len(stats.OffPeakPeriods))
	}
}

func TestSummarizeFlatSeriesDuplicateMembership(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := hourlySeries(start, 50, 50, 50, 50)

	stats, err := Summarize(s, DefaultStatsConfig())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	// Inclusive thresholds: on a flat series every sample qualifies as both
	// peak and off-peak. Documented behavior, not a bug.
	if len(stats.PeakPeriods) != 4 {
		t.Errorf("PeakPeriods = %d samples, want 4", len(stats.PeakPeriods))
	}
	if len(stats.OffPeakPeriods) != 4 {
		t.Errorf("OffPeakPeriods = %d samples, want 4", len(stats.OffPeakPeriods))
	}
}

func TestSummarizePeakClassification(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := hourlySeries(start, 10, 20, 30, 40, 50, 60, 70, 80)

	stats, err := Summarize(s, DefaultStatsConfig())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	// 8 samples: peak threshold = sorted[6] = 70, off-peak = sorted[2] = 30.
	if stats.PeakThreshold != 70 {
		t.Errorf("PeakThreshold = %f, want 70", stats.PeakThreshold)
	}
	if stats.OffPeakThreshold != 30 {
		t.Errorf("OffPeakThreshold = %f, want 30", stats.OffPeakThreshold)
	}
	if len(stats.PeakPeriods) != 2 { // 70 and 80
		t.Errorf("PeakPeriods = %d samples, want 2", len(stats.PeakPeriods))
	}
	if len(stats.OffPeakPeriods) != 3 { // 10, 20 and 30
		t.Errorf("OffPeakPeriods = %d samples, want 3", len(stats.OffPeakPeriods))
	}
}

func TestSummarizeTopCheapestStableTies(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := hourlySeries(start, 20, 10, 10, 30)

	stats, err := Summarize(s, StatsConfig{
		PeakPercentile:    0.75,
		OffPeakPercentile: 0.25,
		TopK:              2,
		Location:          time.UTC,
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if len(stats.TopCheapest) != 2 {
		t.Fatalf("TopCheapest = %d samples, want 2", len(stats.TopCheapest))
	}
	// Both cheapest samples have value 10; the earlier one comes first.
	if !stats.TopCheapest[0].Timestamp.Equal(start.Add(time.Hour)) {
		t.Errorf("first cheapest at %v, want %v", stats.TopCheapest[0].Timestamp, start.Add(time.Hour))
	}
	if !stats.TopCheapest[1].Timestamp.Equal(start.Add(2 * time.Hour)) {
		t.Errorf("second cheapest at %v, want %v", stats.TopCheapest[1].Timestamp, start.Add(2*time.Hour))
	}
}

func TestSummarizeTopKLargerThanSeries(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := hourlySeries(start, 10, 20)

	stats, err := Summarize(s, DefaultStatsConfig())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(stats.TopCheapest) != 2 {
		t.Errorf("TopCheapest = %d samples, want all 2", len(stats.TopCheapest))
	}
}

func TestSummarizeHourlyProfile(t *testing.T) {
	// Two days of data at the same two hours; the profile averages across
	// days and leaves other hours absent.
	day1 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	s := Series{
		{Timestamp: day1.Add(8 * time.Hour), Value: 100, Source: SourceLive, Confidence: 1},
		{Timestamp: day2.Add(8 * time.Hour), Value: 200, Source: SourceLive, Confidence: 1},
		{Timestamp: day1.Add(20 * time.Hour), Value: 300, Source: SourceLive, Confidence: 1},
	}

	stats, err := Summarize(s, DefaultStatsConfig())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if got := stats.HourlyProfile[8]; got != 150 {
		t.Errorf("HourlyProfile[8] = %f, want 150", got)
	}
	if got := stats.HourlyProfile[20]; got != 300 {
		t.Errorf("HourlyProfile[20] = %f, want 300", got)
	}
	if _, ok := stats.HourlyProfile[3]; ok {
		t.Error("HourlyProfile contains an hour with no samples")
	}
}

func TestSummarizeContiguousWindows(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	// Off-peak threshold is the third-lowest value (20, at hour 4), so the
	// off-peak samples are hours 0, 1 and 4: one two-hour run and one
	// isolated hour.
	s := hourlySeries(start, 10, 12, 60, 55, 20, 58, 52, 95)

	stats, err := Summarize(s, DefaultStatsConfig())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if len(stats.BestWindows) != 2 {
		t.Fatalf("BestWindows = %d, want 2", len(stats.BestWindows))
	}
	w := stats.BestWindows[0]
	if !w.Start.Equal(start) {
		t.Errorf("best window start = %v, want %v", w.Start, start)
	}
	if !w.End.Equal(start.Add(2 * time.Hour)) {
		t.Errorf("best window end = %v, want %v", w.End, start.Add(2*time.Hour))
	}
	if w.Average != 11 {
		t.Errorf("best window average = %f, want 11", w.Average)
	}
	second := stats.BestWindows[1]
	if !second.Start.Equal(start.Add(4*time.Hour)) || second.Average != 20 {
		t.Errorf("second window = %+v, want start %v avg 20", second, start.Add(4*time.Hour))
	}
}

func TestSeriesWindow(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := hourlySeries(start, 1, 2, 3, 4)

	// Window is half-open: includes start hour, excludes end hour.
	got := s.Window(start.Add(time.Hour), start.Add(3*time.Hour))
	if len(got) != 2 {
		t.Fatalf("Window() = %d samples, want 2", len(got))
	}
	if got[0].Value != 2 || got[1].Value != 3 {
		t.Errorf("Window() values = %f, %f, want 2, 3", got[0].Value, got[1].Value)
	}
}

func TestSeriesMeanEmpty(t *testing.T) {
	if got := (Series{}).Mean(); got != 0 {
		t.Errorf("Mean(empty) = %f, want 0", got)
	}
}
