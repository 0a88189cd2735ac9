package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/config"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/region"
)

func main() {
	var (
		configPath string
		latitude   float64
		longitude  float64
		taxonomy   string
		hours      int
		showStats  bool
		jsonOutput bool
	)

	flag.StringVar(&configPath, "config", "", "Path to YAML config file (defaults to environment variables)")
	flag.Float64Var(&latitude, "lat", 37.77, "Latitude of the site")
	flag.Float64Var(&longitude, "lon", -122.42, "Longitude of the site")
	flag.StringVar(&taxonomy, "taxonomy", "carbon", "Signal taxonomy: 'carbon' or 'market'")
	flag.IntVar(&hours, "hours", 24, "Forecast window length in hours")
	flag.BoolVar(&showStats, "stats", false, "Print window statistics alongside the recommendation")
	flag.BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")

	klog.InitFlags(nil)
	flag.Parse()

	tax := region.Taxonomy(taxonomy)
	if tax != region.TaxonomyCarbon && tax != region.TaxonomyMarket {
		klog.ErrorS(nil, "Invalid taxonomy, must be 'carbon' or 'market'", "taxonomy", taxonomy)
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		klog.ErrorS(err, "Failed to load configuration")
		os.Exit(1)
	}

	engine, err := gridsignal.New(cfg)
	if err != nil {
		klog.ErrorS(err, "Failed to create engine")
		os.Exit(1)
	}
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		klog.InfoS("Received signal, cancelling", "signal", sig)
		cancel()
	}()

	point, err := region.NewGeoPoint(latitude, longitude)
	if err != nil {
		klog.ErrorS(err, "Invalid coordinates", "lat", latitude, "lon", longitude)
		os.Exit(1)
	}

	start := time.Now().UTC()
	end := start.Add(time.Duration(hours) * time.Hour)

	rec, err := engine.Recommend(ctx, point, tax, start, end)
	if err != nil {
		klog.ErrorS(err, "Recommendation failed")
		os.Exit(1)
	}

	if jsonOutput {
		out := map[string]any{
			"recommendation":     rec.Recommendation,
			"reason":             rec.Reason,
			"currentValue":       rec.CurrentValue,
			"forecastAverage":    rec.ForecastAverage,
			"cleanEnergyPercent": rec.CleanEnergyPercent,
			"timestamp":          rec.Timestamp,
		}
		if showStats {
			stats, _, err := engine.Summarize(ctx, point, tax, start, end)
			if err != nil {
				klog.ErrorS(err, "Failed to compute statistics")
				os.Exit(1)
			}
			out["statistics"] = stats
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			klog.ErrorS(err, "Failed to encode output")
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Recommendation: %s\n", rec.Recommendation)
	fmt.Printf("Reason:         %s\n", rec.Reason)
	fmt.Printf("Current value:  %.1f\n", rec.CurrentValue)
	fmt.Printf("Window average: %.1f\n", rec.ForecastAverage)
	if tax == region.TaxonomyCarbon {
		fmt.Printf("Clean energy:   %.0f%%\n", rec.CleanEnergyPercent)
	}

	if showStats {
		stats, _, err := engine.Summarize(ctx, point, tax, start, end)
		if err != nil {
			klog.ErrorS(err, "Failed to compute statistics")
			os.Exit(1)
		}
		fmt.Printf("\nWindow statistics (%d samples):\n", stats.Count)
		fmt.Printf("  min/mean/max:   %.1f / %.1f / %.1f\n", stats.Min, stats.Mean, stats.Max)
		fmt.Printf("  median:         %.1f\n", stats.Median)
		fmt.Printf("  p25/p75:        %.1f / %.1f\n", stats.P25, stats.P75)
		for _, w := range stats.BestWindows {
			fmt.Printf("  best window:    %s - %s (avg %.1f)\n",
				w.Start.Format("15:04"), w.End.Format("15:04"), w.Average)
		}
		for _, w := range stats.WorstWindows {
			fmt.Printf("  worst window:   %s - %s (avg %.1f)\n",
				w.Start.Format("15:04"), w.End.Format("15:04"), w.Average)
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.LoadFromEnv()
}
