package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/config"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/region"
)

func main() {
	var (
		configPath   string
		latitude     float64
		longitude    float64
		metricsPort  int
		pollInterval time.Duration
		windowHours  int
	)

	flag.StringVar(&configPath, "config", "", "Path to YAML config file (defaults to environment variables)")
	flag.Float64Var(&latitude, "lat", 37.77, "Latitude of the site")
	flag.Float64Var(&longitude, "lon", -122.42, "Longitude of the site")
	flag.IntVar(&metricsPort, "metrics-port", 9400, "Port to expose Prometheus metrics on")
	flag.DurationVar(&pollInterval, "poll-interval", 5*time.Minute, "How often to refresh signals")
	flag.IntVar(&windowHours, "window-hours", 24, "Forecast window length in hours")

	klog.InitFlags(nil)
	flag.Parse()

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

	point, err := region.NewGeoPoint(latitude, longitude)
	if err != nil {
		klog.ErrorS(err, "Invalid coordinates", "lat", latitude, "lon", longitude)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		klog.InfoS("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	klog.InfoS("Starting grid signal exporter",
		"lat", latitude,
		"lon", longitude,
		"metricsPort", metricsPort,
		"pollInterval", pollInterval)

	// Poll loop. Each tick refreshes both taxonomies; engine methods never
	// fail on provider errors, so a tick only logs on invalid input.
	go func() {
		refresh := func() {
			start := time.Now().UTC()
			end := start.Add(time.Duration(windowHours) * time.Hour)
			for _, tax := range []region.Taxonomy{region.TaxonomyCarbon, region.TaxonomyMarket} {
				rec, err := engine.Recommend(ctx, point, tax, start, end)
				if err != nil {
					klog.ErrorS(err, "Failed to refresh signal", "taxonomy", tax)
					continue
				}
				klog.V(2).InfoS("Refreshed signal",
					"taxonomy", tax,
					"recommendation", rec.Recommendation,
					"current", rec.CurrentValue,
					"forecastAverage", rec.ForecastAverage)
			}
			if err := engine.CleanupStore(); err != nil {
				klog.ErrorS(err, "Failed to prune recorded signals")
			}
		}

		refresh()
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refresh()
			}
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", metricsPort),
		Handler: mux,
	}

	go func() {
		klog.InfoS("Starting metrics server", "port", metricsPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			klog.ErrorS(err, "Metrics server error")
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		klog.ErrorS(err, "Error shutting down metrics server")
	}

	klog.InfoS("Grid signal exporter stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.LoadFromEnv()
}
