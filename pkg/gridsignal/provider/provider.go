// Package provider defines the contract every upstream data source client
// implements, plus the shared error taxonomy. One concrete client exists per
// upstream source; sources with no real integration use the null provider so
// call sites never branch on "is this implemented".
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/region"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/series"
)

// Interface is implemented by every upstream source client. Clients own their
// provider-specific authentication state; everything else about them is
// stateless per call.
type Interface interface {
	// Name identifies the provider in logs, metrics and errors
	Name() string

	// FetchCurrent returns a point-in-time reading for the region. Samples
	// from a successful fetch are always tagged SourceLive.
	FetchCurrent(ctx context.Context, r region.GridRegion) (series.Sample, error)

	// FetchWindow returns an hour-aligned series for [start, end). The window
	// may be a forecast (future) or history (past) depending on provider
	// capability; a client that cannot serve the requested direction fails
	// with UnsupportedWindowError rather than returning wrong data.
	FetchWindow(ctx context.Context, r region.GridRegion, start, end time.Time) (series.Series, error)
}

// HTTPClient interface allows mocking http.Client in tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
