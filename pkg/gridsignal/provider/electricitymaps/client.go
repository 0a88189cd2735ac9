// Package electricitymaps implements the carbon intensity client for the
// Electricity Maps API. The free tier serves current and historical values
// only, so forecast windows fail with the typed unsupported-window error and
// the orchestrator estimates instead.
package electricitymaps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/clock"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/config"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/provider"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/region"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/series"
)

const providerName = "electricitymaps"

// CacheInterface allows injecting a sample cache keyed by zone. The engine is
// stateless per call; caching is an optional caller-added layer.
type CacheInterface interface {
	Get(zone string) (series.Sample, bool)
	Set(zone string, sample series.Sample)
}

// Client handles interactions with the Electricity Maps API
type Client struct {
	cfg        config.ElectricityMapsConfig
	httpClient provider.HTTPClient
	cache      CacheInterface
	clk        clock.Clock
}

// ClientOption allows customizing the client
type ClientOption func(*Client)

// WithHTTPClient allows injecting a custom HTTP client
func WithHTTPClient(httpClient provider.HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCache adds a sample cache to the client
func WithCache(cache CacheInterface) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithClock allows injecting a clock for tests
func WithClock(clk clock.Clock) ClientOption {
	return func(c *Client) {
		c.clk = clk
	}
}

// NewClient creates a new Electricity Maps client
func NewClient(cfg config.ElectricityMapsConfig, opts ...ClientOption) *Client {
	client := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		clk: clock.RealClock{},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *Client) Name() string {
	return providerName
}

// latestResponse is the /carbon-intensity/latest payload
type latestResponse struct {
	CarbonIntensity float64   `json:"carbonIntensity"`
	Datetime        time.Time `json:"datetime"`
}

// historyResponse is the /carbon-intensity/history payload
type historyResponse struct {
	History []latestResponse `json:"history"`
}

// FetchCurrent returns the latest carbon intensity for the region's zone
func (c *Client) FetchCurrent(ctx context.Context, r region.GridRegion) (series.Sample, error) {
	if c.cache != nil {
		if sample, fresh := c.cache.Get(r.Code); fresh {
			klog.V(2).InfoS("Using cached carbon intensity",
				"zone", r.Code,
				"intensity", sample.Value)
			return sample, nil
		}
	}

	var payload latestResponse
	if err := c.getJSON(ctx, "/carbon-intensity/latest", r.Code, nil, &payload); err != nil {
		return series.Sample{}, err
	}

	if payload.CarbonIntensity < 0 {
		return series.Sample{}, provider.Unavailable(providerName,
			fmt.Errorf("invalid carbon intensity value: %f", payload.CarbonIntensity))
	}

	ts := payload.Datetime
	if ts.IsZero() {
		ts = c.clk.Now().UTC()
	}

	sample := series.Sample{
		Timestamp:  ts.UTC(),
		Value:      payload.CarbonIntensity,
		Source:     series.SourceLive,
		Confidence: 1,
	}

	if c.cache != nil {
		c.cache.Set(r.Code, sample)
		klog.V(2).InfoS("Cached carbon intensity", "zone", r.Code, "intensity", sample.Value)
	}

	return sample, nil
}

// FetchWindow serves past windows from the history endpoint. Future windows
// are not available on this API and fail with UnsupportedWindowError.
func (c *Client) FetchWindow(ctx context.Context, r region.GridRegion, start, end time.Time) (series.Series, error) {
	now := c.clk.Now().UTC()
	if end.After(now.Add(time.Hour)) {
		return nil, provider.UnsupportedWindow(providerName, start, end,
			"forecast windows are not available on this API")
	}

	var payload historyResponse
	if err := c.getJSON(ctx, "/carbon-intensity/history", r.Code, nil, &payload); err != nil {
		return nil, err
	}

	raw := make([]series.Sample, 0, len(payload.History))
	for _, record := range payload.History {
		raw = append(raw, series.Sample{
			Timestamp:  record.Datetime.UTC(),
			Value:      record.CarbonIntensity,
			Source:     series.SourceLive,
			Confidence: 1,
		})
	}

	result := series.NormalizeHourly(raw).Window(start, end)
	klog.V(3).InfoS("Fetched carbon intensity history",
		"zone", r.Code,
		"records", len(payload.History),
		"windowHours", len(result))

	return result, nil
}

func (c *Client) getJSON(ctx context.Context, path, zone string, extraParams url.Values, out interface{}) error {
	params := url.Values{}
	params.Set("zone", zone)
	for k, vs := range extraParams {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	reqURL := c.cfg.URL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return provider.Unavailable(providerName, fmt.Errorf("failed to create request: %v", err))
	}

	req.Header.Set("auth-token", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	klog.V(2).InfoS("Making carbon API request",
		"url", reqURL,
		"zone", zone,
		"hasApiKey", c.cfg.APIKey != "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Unavailable(providerName, fmt.Errorf("request failed: %v", err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return provider.Unavailable(providerName, fmt.Errorf("rate limit exceeded"))
	case http.StatusUnauthorized:
		return provider.Unavailable(providerName, fmt.Errorf("invalid API key"))
	case http.StatusNotFound:
		return provider.Unavailable(providerName, fmt.Errorf("zone not found: %s", zone))
	default:
		return provider.Unavailable(providerName, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return provider.Unavailable(providerName, fmt.Errorf("failed to decode response: %v", err))
	}

	return nil
}
