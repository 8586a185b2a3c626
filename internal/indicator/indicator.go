// Package indicator computes the small set of technical values the engine
// consumes: ATR for volatility and a fast/slow EMA pair for the trend filter.
// Values update incrementally per closed bar and are read as a single fresh
// snapshot per evaluation cycle.
package indicator

import (
	"errors"
	"math"
	"time"

	"github.com/Monte-Ntuli/trading-bot-3/internal/market"
)

// ErrNotReady means the warmup window has not filled yet; callers skip the
// cycle rather than act on a partial value.
var ErrNotReady = errors.New("indicator: not enough bars")

// EMA is an incremental exponential moving average.
type EMA struct {
	period int
	alpha  float64
	value  float64
	count  int
}

// NewEMA builds an EMA over the given period.
func NewEMA(period int) *EMA {
	return &EMA{period: period, alpha: 2.0 / float64(period+1)}
}

// Update folds one sample into the average.
func (e *EMA) Update(v float64) {
	if e.count == 0 {
		e.value = v
	} else {
		e.value = v*e.alpha + e.value*(1-e.alpha)
	}
	e.count++
}

// Value returns the current average.
func (e *EMA) Value() float64 { return e.value }

// Ready reports whether a full period of samples has been seen.
func (e *EMA) Ready() bool { return e.count >= e.period }

// ATR is an incremental average true range smoothed with an EMA.
type ATR struct {
	period    int
	ema       *EMA
	prevClose float64
	count     int
}

// NewATR builds an ATR over the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period, ema: NewEMA(period)}
}

// Update folds one closed bar into the range average.
func (a *ATR) Update(b market.Bar) {
	if a.count == 0 {
		a.prevClose = b.Close
		a.count++
		return
	}
	tr := math.Max(b.High-b.Low, math.Max(
		math.Abs(b.High-a.prevClose),
		math.Abs(b.Low-a.prevClose),
	))
	a.ema.Update(tr)
	a.prevClose = b.Close
	a.count++
}

// Value returns the current range average.
func (a *ATR) Value() float64 { return a.ema.Value() }

// Ready reports whether the warmup period has elapsed.
func (a *ATR) Ready() bool { return a.count > a.period }

// Snapshot is the single latest sample of every indicator the engine reads.
// It is pulled fresh each cycle and never cached beyond it.
type Snapshot struct {
	ATR     float64
	EMAFast float64
	EMASlow float64
	Ts      time.Time
}

// Provider owns the indicator state for one symbol.
type Provider struct {
	atr     *ATR
	emaFast *EMA
	emaSlow *EMA
	lastTs  time.Time
}

// NewProvider builds a provider with the configured periods.
func NewProvider(atrPeriod, emaFast, emaSlow int) *Provider {
	return &Provider{
		atr:     NewATR(atrPeriod),
		emaFast: NewEMA(emaFast),
		emaSlow: NewEMA(emaSlow),
	}
}

// OnBar folds a newly closed bar into every indicator.
func (p *Provider) OnBar(b market.Bar) {
	p.atr.Update(b)
	p.emaFast.Update(b.Close)
	p.emaSlow.Update(b.Close)
	p.lastTs = b.Ts
}

// Snapshot returns the latest values, or ErrNotReady during warmup.
func (p *Provider) Snapshot() (Snapshot, error) {
	if !p.atr.Ready() || !p.emaFast.Ready() || !p.emaSlow.Ready() {
		return Snapshot{}, ErrNotReady
	}
	return Snapshot{
		ATR:     p.atr.Value(),
		EMAFast: p.emaFast.Value(),
		EMASlow: p.emaSlow.Value(),
		Ts:      p.lastTs,
	}, nil
}
