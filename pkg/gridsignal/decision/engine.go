// Package decision turns a current reading plus a forecast window into a
// discrete charge/discharge/hold recommendation with a human-readable
// justification.
package decision

import (
	"errors"
	"fmt"
	"math"
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/config"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/region"
	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/series"
)

// ErrInsufficientForecast is reported when the forecast window has no
// samples. Callers fall back to a neutral hold signal rather than surfacing
// this to an end user.
var ErrInsufficientForecast = errors.New("forecast window has no samples")

// Recommendation is the discrete operational action
type Recommendation string

const (
	Charge    Recommendation = "charge"
	Discharge Recommendation = "discharge"
	Hold      Recommendation = "hold"
)

// Kind selects the vocabulary and whether a clean-energy percentage applies
type Kind string

const (
	// KindCarbon compares carbon intensity ("cleaner"/"dirtier")
	KindCarbon Kind = "carbon"

	// KindPrice compares wholesale price ("cheaper"/"more expensive")
	KindPrice Kind = "price"
)

// Signal is the result of one decision call. It is a plain value with no
// identity or lifecycle beyond the call that produced it.
type Signal struct {
	Timestamp          time.Time
	Recommendation     Recommendation
	CleanEnergyPercent float64 // display heuristic, 0 for price signals
	CurrentValue       float64
	ForecastAverage    float64
	Reason             string
}

// holdReason is the fixed justification for near-average conditions
const holdReason = "near average, wait for better opportunity"

// neutralReason is the fixed justification used when no forecast exists
const neutralReason = "no forecast available, holding"

// Engine applies the threshold rules. The charge/discharge ratios are design
// constants with documented defaults (0.8 / 1.2) and are configurable so
// they can be tuned without touching the algorithm.
type Engine struct {
	kind Kind
	cfg  config.DecisionConfig
}

// NewEngine creates a decision engine for the given signal kind
func NewEngine(kind Kind, cfg config.DecisionConfig) *Engine {
	return &Engine{kind: kind, cfg: cfg}
}

// Decide compares the current sample against the forecast window's mean.
// The charge boundary is exclusive: a current value exactly at
// mean*chargeRatio holds, it does not charge. Same for discharge.
func (e *Engine) Decide(current series.Sample, forecast series.Series) (*Signal, error) {
	if len(forecast) == 0 {
		return nil, ErrInsufficientForecast
	}

	avg := forecast.Mean()
	signal := &Signal{
		Timestamp:       current.Timestamp,
		CurrentValue:    current.Value,
		ForecastAverage: avg,
	}

	better, worse := e.adjectives()

	switch {
	case avg > 0 && current.Value < avg*e.cfg.ChargeRatio:
		pct := int(math.Round(100 - current.Value/avg*100))
		signal.Recommendation = Charge
		signal.Reason = fmt.Sprintf("%d%% %s than average, charge now", pct, better)
	case avg > 0 && current.Value > avg*e.cfg.DischargeRatio:
		pct := int(math.Round((current.Value/avg - 1) * 100))
		signal.Recommendation = Discharge
		signal.Reason = fmt.Sprintf("%d%% %s than average, discharge now", pct, worse)
	default:
		signal.Recommendation = Hold
		signal.Reason = holdReason
	}

	if e.kind == KindCarbon {
		signal.CleanEnergyPercent = cleanEnergyPercent(current.Value)
	}

	klog.V(3).InfoS("Decision computed",
		"kind", e.kind,
		"current", current.Value,
		"forecastAverage", avg,
		"recommendation", signal.Recommendation)

	return signal, nil
}

// NeutralHold returns the fixed hold signal used when the forecast is
// insufficient. Never an error path for end users.
func (e *Engine) NeutralHold(current series.Sample) *Signal {
	signal := &Signal{
		Timestamp:      current.Timestamp,
		Recommendation: Hold,
		CurrentValue:   current.Value,
		Reason:         neutralReason,
	}
	if e.kind == KindCarbon {
		signal.CleanEnergyPercent = cleanEnergyPercent(current.Value)
	}
	return signal
}

func (e *Engine) adjectives() (better, worse string) {
	if e.kind == KindPrice {
		return "cheaper", "more expensive"
	}
	return "cleaner", "dirtier"
}

// cleanEnergyPercent estimates how clean the grid looks right now relative
// to a fixed fossil-heavy reference intensity. This is a display heuristic,
// not a metered renewable share.
func cleanEnergyPercent(currentIntensity float64) float64 {
	baseline := region.FossilReferenceIntensity
	pct := (baseline - currentIntensity) / baseline * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
