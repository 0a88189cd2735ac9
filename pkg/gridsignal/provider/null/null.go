// Package null provides the stand-in client for upstream sources with no
// real integration yet. Every call fails with the typed unavailable error,
// which routes the orchestrator to the estimator, so polymorphic dispatch never
// needs an "is this implemented" branch at call sites.
package null

import (
	"context"
	"errors"
	"time"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/provider"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/region"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/series"
)

var errNotImplemented = errors.New("no integration configured")

// Provider is the unimplemented upstream source
type Provider struct{}

// New returns a provider with no upstream integration
func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "null"
}

func (p *Provider) FetchCurrent(ctx context.Context, r region.GridRegion) (series.Sample, error) {
	return series.Sample{}, provider.Unavailable(p.Name(), errNotImplemented)
}

func (p *Provider) FetchWindow(ctx context.Context, r region.GridRegion, start, end time.Time) (series.Series, error) {
	return nil, provider.Unavailable(p.Name(), errNotImplemented)
}
