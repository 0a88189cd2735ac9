package watttime

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/clock"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/config"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/provider"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/region"
)

// MockHTTPClient is a mock implementation of HTTPClient for testing
type MockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	return nil, errors.New("mock http client not implemented")
}

func testCfg() config.WattTimeConfig {
	return config.WattTimeConfig{
		Username:    "test-user",
		Password:    "test-pass",
		URL:         "https://api.example.com",
		Timeout:     10 * time.Second,
		TokenMargin: time.Minute,
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func caISO() region.GridRegion {
	return region.GridRegion{Code: "CAISO_NORTH", Taxonomy: region.TaxonomyCarbon}
}

// authCountingClient serves /login and a signal endpoint while counting logins
func authCountingClient(logins *int64, signalBody string) *MockHTTPClient {
	return &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			if strings.HasSuffix(req.URL.Path, "/login") {
				atomic.AddInt64(logins, 1)
				if user, pass, ok := req.BasicAuth(); !ok || user != "test-user" || pass != "test-pass" {
					return jsonResponse(http.StatusUnauthorized, `{}`), nil
				}
				return jsonResponse(http.StatusOK, `{"token": "tok-1"}`), nil
			}
			if got := req.Header.Get("Authorization"); got != "Bearer tok-1" {
				return jsonResponse(http.StatusUnauthorized, `{}`), nil
			}
			return jsonResponse(http.StatusOK, signalBody), nil
		},
	}
}

func TestFetchCurrent(t *testing.T) {
	var logins int64
	body := `{"data": [
		{"point_time": "2026-06-01T13:55:00Z", "value": 820},
		{"point_time": "2026-06-01T14:00:00Z", "value": 845}
	]}`

	client := NewClient(testCfg(), WithHTTPClient(authCountingClient(&logins, body)))

	sample, err := client.FetchCurrent(context.Background(), caISO())
	if err != nil {
		t.Fatalf("FetchCurrent() error = %v", err)
	}

	// Latest data point wins.
	if sample.Value != 845 {
		t.Errorf("Value = %f, want 845", sample.Value)
	}
	if logins != 1 {
		t.Errorf("logins = %d, want 1", logins)
	}
}

func TestTokenReusedAcrossCalls(t *testing.T) {
	var logins int64
	body := `{"data": [{"point_time": "2026-06-01T14:00:00Z", "value": 800}]}`
	client := NewClient(testCfg(), WithHTTPClient(authCountingClient(&logins, body)))

	for i := 0; i < 5; i++ {
		if _, err := client.FetchCurrent(context.Background(), caISO()); err != nil {
			t.Fatalf("FetchCurrent() call %d error = %v", i, err)
		}
	}

	if logins != 1 {
		t.Errorf("logins = %d, want 1 (token reused)", logins)
	}
}

func TestTokenRefreshedWithinMargin(t *testing.T) {
	var logins int64
	body := `{"data": [{"point_time": "2026-06-01T14:00:00Z", "value": 800}]}`
	clk := clock.NewMockClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	client := NewClient(testCfg(),
		WithHTTPClient(authCountingClient(&logins, body)),
		WithClock(clk))

	if _, err := client.FetchCurrent(context.Background(), caISO()); err != nil {
		t.Fatalf("FetchCurrent() error = %v", err)
	}

	// Tokens live 30 minutes with a 1 minute safety margin; 29m30s in, the
	// cached token counts as expired.
	clk.Advance(29*time.Minute + 30*time.Second)
	if _, err := client.FetchCurrent(context.Background(), caISO()); err != nil {
		t.Fatalf("FetchCurrent() error = %v", err)
	}

	if logins != 2 {
		t.Errorf("logins = %d, want 2 (refresh inside margin)", logins)
	}
}

func TestConcurrentRequestsCoalesceLogin(t *testing.T) {
	var logins int64
	body := `{"data": [{"point_time": "2026-06-01T14:00:00Z", "value": 800}]}`
	client := NewClient(testCfg(), WithHTTPClient(authCountingClient(&logins, body)))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.FetchCurrent(context.Background(), caISO()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent FetchCurrent() error = %v", err)
	}
	if logins != 1 {
		t.Errorf("logins = %d, want 1 (concurrent refreshes serialized)", logins)
	}
}

func TestRejectedTokenInvalidatesCache(t *testing.T) {
	var logins int64
	rejectSignals := true
	client := NewClient(testCfg(), WithHTTPClient(&MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			if strings.HasSuffix(req.URL.Path, "/login") {
				atomic.AddInt64(&logins, 1)
				return jsonResponse(http.StatusOK, `{"token": "tok-1"}`), nil
			}
			if rejectSignals {
				return jsonResponse(http.StatusUnauthorized, `{}`), nil
			}
			return jsonResponse(http.StatusOK, `{"data": [{"point_time": "2026-06-01T14:00:00Z", "value": 800}]}`), nil
		},
	}))

	_, err := client.FetchCurrent(context.Background(), caISO())
	if !provider.IsUnavailable(err) {
		t.Fatalf("FetchCurrent() error = %v, want UnavailableError", err)
	}

	// Token was dropped on the 401, so the next call logs in again.
	rejectSignals = false
	if _, err := client.FetchCurrent(context.Background(), caISO()); err != nil {
		t.Fatalf("FetchCurrent() after recovery error = %v", err)
	}
	if logins != 2 {
		t.Errorf("logins = %d, want 2 (re-login after rejection)", logins)
	}
}

func TestLoginFailure(t *testing.T) {
	client := NewClient(testCfg(), WithHTTPClient(&MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusForbidden, `{}`), nil
		},
	}))

	_, err := client.FetchCurrent(context.Background(), caISO())
	if !provider.IsUnavailable(err) {
		t.Errorf("FetchCurrent() error = %v, want UnavailableError", err)
	}
}

func TestFetchCurrentNoData(t *testing.T) {
	var logins int64
	client := NewClient(testCfg(), WithHTTPClient(authCountingClient(&logins, `{"data": []}`)))

	_, err := client.FetchCurrent(context.Background(), caISO())
	if !provider.IsUnavailable(err) {
		t.Errorf("FetchCurrent() error = %v, want UnavailableError", err)
	}
}

func TestFetchWindowRejectsPast(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	client := NewClient(testCfg(),
		WithHTTPClient(&MockHTTPClient{}),
		WithClock(clock.NewMockClock(now)))

	_, err := client.FetchWindow(context.Background(), caISO(), now.Add(-24*time.Hour), now)
	if !provider.IsUnsupportedWindow(err) {
		t.Fatalf("FetchWindow(past) error = %v, want UnsupportedWindowError", err)
	}
}

func TestFetchWindowForecast(t *testing.T) {
	var logins int64
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	body := `{"data": [
		{"point_time": "2026-06-01T13:00:00Z", "value": 700},
		{"point_time": "2026-06-01T13:30:00Z", "value": 720},
		{"point_time": "2026-06-01T14:00:00Z", "value": 900},
		{"point_time": "2026-06-01T16:00:00Z", "value": 950}
	]}`

	client := NewClient(testCfg(),
		WithHTTPClient(authCountingClient(&logins, body)),
		WithClock(clock.NewMockClock(now)))

	got, err := client.FetchWindow(context.Background(), caISO(),
		now.Add(time.Hour), now.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("FetchWindow() error = %v", err)
	}

	// 13:00 bin averages two five-minute points; 16:00 is outside the window.
	if len(got) != 2 {
		t.Fatalf("FetchWindow() = %d samples, want 2", len(got))
	}
	if got[0].Value != 710 {
		t.Errorf("13:00 bin = %f, want 710", got[0].Value)
	}
	if got[1].Value != 900 {
		t.Errorf("14:00 bin = %f, want 900", got[1].Value)
	}
}
