// Package watttime implements the marginal carbon intensity (MOER) client
// for the WattTime API. WattTime exchanges basic-auth credentials for a
// short-lived bearer token; the token is cached per client instance and
// refreshed only when absent or close to expiry, with concurrent refreshes
// coalesced so at most one login call is in flight.
package watttime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/clock"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/config"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/provider"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/region"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/series"
)

const (
	providerName = "watttime"

	// tokenLifetime is how long issued tokens stay valid. The API does not
	// return an expiry, so the client tracks it from issue time.
	tokenLifetime = 30 * time.Minute

	signalType = "co2_moer"
)

// tokenCache holds the bearer token together with its expiry. All access
// goes through the mutex so concurrent requests needing a fresh token are
// serialized: one login runs, all waiters see its result.
type tokenCache struct {
	mu     sync.Mutex
	value  string
	expiry time.Time
}

// Client handles interactions with the WattTime API
type Client struct {
	cfg        config.WattTimeConfig
	httpClient provider.HTTPClient
	clk        clock.Clock
	token      tokenCache
}

// ClientOption allows customizing the client
type ClientOption func(*Client)

// WithHTTPClient allows injecting a custom HTTP client
func WithHTTPClient(httpClient provider.HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClock allows injecting a clock for tests
func WithClock(clk clock.Clock) ClientOption {
	return func(c *Client) {
		c.clk = clk
	}
}

// NewClient creates a new WattTime client
func NewClient(cfg config.WattTimeConfig, opts ...ClientOption) *Client {
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

type loginResponse struct {
	Token string `json:"token"`
}

type signalPoint struct {
	PointTime time.Time `json:"point_time"`
	Value     float64   `json:"value"`
}

type signalResponse struct {
	Data []signalPoint `json:"data"`
}

// bearerToken returns a valid token, logging in only when the cached token is
// absent or within the configured safety margin of expiry
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.token.mu.Lock()
	defer c.token.mu.Unlock()

	margin := c.cfg.TokenMargin
	if margin <= 0 {
		margin = time.Minute
	}

	if c.token.value != "" && c.clk.Now().Before(c.token.expiry.Add(-margin)) {
		return c.token.value, nil
	}

	loginURL := c.cfg.URL + "/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %v", err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	klog.V(2).InfoS("Authenticating with WattTime", "url", loginURL, "username", c.cfg.Username)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode login response: %v", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("login returned empty token")
	}

	c.token.value = payload.Token
	c.token.expiry = c.clk.Now().Add(tokenLifetime)
	klog.V(3).InfoS("Cached WattTime token", "expiry", c.token.expiry)

	return c.token.value, nil
}

// invalidateToken drops the cached token so the next call re-authenticates
func (c *Client) invalidateToken() {
	c.token.mu.Lock()
	c.token.value = ""
	c.token.expiry = time.Time{}
	c.token.mu.Unlock()
}

// FetchCurrent returns the latest MOER value for the region
func (c *Client) FetchCurrent(ctx context.Context, r region.GridRegion) (series.Sample, error) {
	var payload signalResponse
	if err := c.getSignal(ctx, "/v3/signal-index", r.Code, &payload); err != nil {
		return series.Sample{}, err
	}

	if len(payload.Data) == 0 {
		return series.Sample{}, provider.Unavailable(providerName,
			fmt.Errorf("signal-index returned no data for region %s", r.Code))
	}

	point := payload.Data[len(payload.Data)-1]
	return series.Sample{
		Timestamp:  point.PointTime.UTC(),
		Value:      point.Value,
		Source:     series.SourceLive,
		Confidence: 1,
	}, nil
}

// FetchWindow serves future windows from the forecast endpoint. Historical
// windows need a different data product and fail with UnsupportedWindowError.
func (c *Client) FetchWindow(ctx context.Context, r region.GridRegion, start, end time.Time) (series.Series, error) {
	now := c.clk.Now().UTC()
	if start.Before(now.Add(-time.Hour)) {
		return nil, provider.UnsupportedWindow(providerName, start, end,
			"historical windows are not available on the forecast endpoint")
	}

	var payload signalResponse
	if err := c.getSignal(ctx, "/v3/forecast", r.Code, &payload); err != nil {
		return nil, err
	}

	raw := make([]series.Sample, 0, len(payload.Data))
	for _, point := range payload.Data {
		raw = append(raw, series.Sample{
			Timestamp:  point.PointTime.UTC(),
			Value:      point.Value,
			Source:     series.SourceLive,
			Confidence: 1,
		})
	}

	result := series.NormalizeHourly(raw).Window(start, end)
	klog.V(3).InfoS("Fetched MOER forecast",
		"region", r.Code,
		"points", len(payload.Data),
		"windowHours", len(result))

	return result, nil
}

func (c *Client) getSignal(ctx context.Context, path, regionCode string, out *signalResponse) error {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return provider.Unavailable(providerName, err)
	}

	params := url.Values{}
	params.Set("region", regionCode)
	params.Set("signal_type", signalType)

	reqURL := c.cfg.URL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return provider.Unavailable(providerName, fmt.Errorf("failed to create request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Unavailable(providerName, fmt.Errorf("request failed: %v", err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		// Token may have been revoked early; next call logs in again
		c.invalidateToken()
		return provider.Unavailable(providerName, fmt.Errorf("token rejected"))
	case http.StatusTooManyRequests:
		return provider.Unavailable(providerName, fmt.Errorf("rate limit exceeded"))
	default:
		return provider.Unavailable(providerName, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return provider.Unavailable(providerName, fmt.Errorf("failed to decode response: %v", err))
	}

	return nil
}
