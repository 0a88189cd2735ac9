// Package caiso implements the wholesale price client for the CAISO OASIS
// API. OASIS needs no authentication and returns delimited text; real-time
// market (RTM) rows arrive at 5-minute granularity and are reduced to hourly
// means, day-ahead market (DAM) rows are already hourly.
package caiso

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/clock"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/config"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/provider"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/region"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/series"
)

const (
	providerName = "caiso"

	marketRealTime = "RTM"
	marketDayAhead = "DAM"

	// caisoTimeFormat is the start/end datetime format OASIS expects
	caisoTimeFormat = "20060102T15:04-0000"
)

// valueColumnAliases are the column names that can carry the price, in
// priority order. The first one present in the header wins.
var valueColumnAliases = []string{"LMP_PRC", "PRC", "VALUE", "MW"}

// timestampColumnAliases are the column names that can carry the interval
// start, in priority order
var timestampColumnAliases = []string{"INTERVAL_START_GMT", "INTERVALSTARTTIME_GMT", "OPR_DT"}

// Client handles interactions with the CAISO OASIS API
type Client struct {
	cfg        config.CAISOConfig
	httpClient provider.HTTPClient
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

// WithClock allows injecting a clock for tests
func WithClock(clk clock.Clock) ClientOption {
	return func(c *Client) {
		c.clk = clk
	}
}

// NewClient creates a new CAISO OASIS client
func NewClient(cfg config.CAISOConfig, opts ...ClientOption) *Client {
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

// FetchCurrent returns the most recent real-time price for the region's node
func (c *Client) FetchCurrent(ctx context.Context, r region.GridRegion) (series.Sample, error) {
	now := c.clk.Now().UTC()
	raw, err := c.fetchRaw(ctx, r.Code, marketRealTime, now.Add(-time.Hour), now)
	if err != nil {
		return series.Sample{}, err
	}
	if len(raw) == 0 {
		return series.Sample{}, provider.Unavailable(providerName,
			fmt.Errorf("no real-time prices returned for node %s", r.Code))
	}

	latest := raw[0]
	for _, sample := range raw[1:] {
		if sample.Timestamp.After(latest.Timestamp) {
			latest = sample
		}
	}
	return latest, nil
}

// FetchWindow returns hourly prices for [start, end). Past windows come from
// the real-time market, future windows from the day-ahead market; a window
// spanning both directions is not served.
func (c *Client) FetchWindow(ctx context.Context, r region.GridRegion, start, end time.Time) (series.Series, error) {
	now := c.clk.Now().UTC()
	slack := 15 * time.Minute

	var market string
	switch {
	case !end.After(now.Add(slack)):
		market = marketRealTime
	case !start.Before(now.Add(-slack)):
		market = marketDayAhead
	default:
		return nil, provider.UnsupportedWindow(providerName, start, end,
			"window spans both past and future; request one direction at a time")
	}

	raw, err := c.fetchRaw(ctx, r.Code, market, start, end)
	if err != nil {
		return nil, err
	}

	result := series.NormalizeHourly(raw).Window(start, end)
	klog.V(3).InfoS("Fetched CAISO pricing",
		"node", r.Code,
		"market", market,
		"rawRows", len(raw),
		"windowHours", len(result))

	return result, nil
}

func (c *Client) fetchRaw(ctx context.Context, node, market string, start, end time.Time) ([]series.Sample, error) {
	params := url.Values{}
	params.Set("queryname", "PRC_LMP")
	params.Set("market_run_id", market)
	params.Set("node", node)
	params.Set("startdatetime", start.UTC().Format(caisoTimeFormat))
	params.Set("enddatetime", end.UTC().Format(caisoTimeFormat))
	params.Set("version", "1")
	params.Set("resultformat", "6") // CSV

	reqURL := c.cfg.URL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, provider.Unavailable(providerName, fmt.Errorf("failed to create request: %v", err))
	}

	klog.V(2).InfoS("Making CAISO OASIS request", "node", node, "market", market)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.Unavailable(providerName, fmt.Errorf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.Unavailable(providerName,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	samples, err := parseCSV(resp.Body)
	if err != nil {
		return nil, provider.Unavailable(providerName, err)
	}
	return samples, nil
}

// parseCSV reads OASIS delimited output. The first line is a header naming
// columns positionally; column order is never assumed. Rows whose value
// field is non-numeric are skipped rather than aborting the parse.
func parseCSV(r io.Reader) ([]series.Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %v", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	tsIdx, ok := findColumn(columns, timestampColumnAliases)
	if !ok {
		return nil, fmt.Errorf("no timestamp column found in header %v", header)
	}
	valIdx, ok := findColumn(columns, valueColumnAliases)
	if !ok {
		return nil, fmt.Errorf("no value column found in header %v", header)
	}

	var samples []series.Sample
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %v", err)
		}
		if tsIdx >= len(record) || valIdx >= len(record) {
			skipped++
			continue
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[valIdx]), 64)
		if err != nil {
			skipped++
			continue
		}

		ts, err := parseTimestamp(strings.TrimSpace(record[tsIdx]))
		if err != nil {
			skipped++
			continue
		}

		samples = append(samples, series.Sample{
			Timestamp:  ts,
			Value:      value,
			Source:     series.SourceLive,
			Confidence: 1,
		})
	}

	if skipped > 0 {
		klog.V(3).InfoS("Skipped unparseable CSV rows", "skipped", skipped, "kept", len(samples))
	}

	return samples, nil
}

// findColumn returns the index of the first alias present in the header
func findColumn(columns map[string]int, aliases []string) (int, bool) {
	for _, alias := range aliases {
		if idx, ok := columns[alias]; ok {
			return idx, true
		}
	}
	return 0, false
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp: %s", s)
}
