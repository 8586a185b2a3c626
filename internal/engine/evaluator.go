// Package engine wires the zone registry, risk sizing, and position
// management into the per-bar and per-tick decision cycle.
package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Monte-Ntuli/trading-bot-3/internal/broker"
	"github.com/Monte-Ntuli/trading-bot-3/internal/config"
	"github.com/Monte-Ntuli/trading-bot-3/internal/indicator"
	"github.com/Monte-Ntuli/trading-bot-3/internal/market"
	"github.com/Monte-Ntuli/trading-bot-3/internal/metrics"
	"github.com/Monte-Ntuli/trading-bot-3/internal/risk"
	"github.com/Monte-Ntuli/trading-bot-3/internal/zone"
)

// Evaluator matches live zones against the latest closed bar and, when one
// triggers, sizes and submits the entry. A zone is consumed only on a
// successful fill; rejected signals leave it eligible for a later bar.
type Evaluator struct {
	symbol   string
	hours    config.Hours
	riskPct  float64
	slMult   float64
	tpMult   float64
	registry *zone.Registry
	account  broker.Account
	gateway  broker.Gateway
	log      zerolog.Logger
}

// NewEvaluator builds an evaluator over the shared registry.
func NewEvaluator(symbol string, hours config.Hours, riskPct, slMult, tpMult float64,
	registry *zone.Registry, account broker.Account, gateway broker.Gateway, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		symbol:   symbol,
		hours:    hours,
		riskPct:  riskPct,
		slMult:   slMult,
		tpMult:   tpMult,
		registry: registry,
		account:  account,
		gateway:  gateway,
		log:      log,
	}
}

// Evaluate scans the registry in order against the latest closed bar.
// Consuming a zone mutates the sequence mid-scan, so the index is revisited
// after a removal; no zone is skipped or evaluated twice in one pass.
func (e *Evaluator) Evaluate(now time.Time, bar market.Bar, q market.Quote, snap indicator.Snapshot) {
	if !e.hours.Contains(now) {
		return
	}
	for i := 0; i < e.registry.Len(); {
		if _, open := e.gateway.OpenPosition(e.symbol); open {
			return
		}
		z := e.registry.At(i)
		side, ok := trigger(z, bar, snap)
		if !ok {
			i++
			continue
		}
		if e.enter(z, side, q, snap) {
			e.registry.Remove(i)
			continue
		}
		i++
	}
}

// trigger reports whether the bar touched the zone with the reversal shape
// and trend filter agreeing.
func trigger(z zone.Zone, bar market.Bar, snap indicator.Snapshot) (broker.Side, bool) {
	switch z.Dir {
	case zone.Demand:
		if bar.Low <= z.Bottom && bar.Bullish() && snap.EMAFast > snap.EMASlow {
			return broker.Buy, true
		}
	case zone.Supply:
		if bar.High >= z.Top && bar.Bearish() && snap.EMAFast < snap.EMASlow {
			return broker.Sell, true
		}
	}
	return 0, false
}

func (e *Evaluator) enter(z zone.Zone, side broker.Side, q market.Quote, snap indicator.Snapshot) bool {
	entry := q.Ask
	if side == broker.Sell {
		entry = q.Bid
	}
	sign := side.Sign()
	stop := entry - sign*snap.ATR*e.slMult
	target := entry + sign*snap.ATR*e.tpMult

	lotMin, lotMax, lotStep := e.account.Lots()
	volume, err := risk.Size(risk.SizeInput{
		Balance:    e.account.Balance(),
		RiskPct:    e.riskPct,
		Entry:      entry,
		Stop:       stop,
		TickValue:  e.account.TickValue(),
		LotMin:     lotMin,
		LotMax:     lotMax,
		LotStep:    lotStep,
		FreeMargin: e.account.FreeMargin(),
		Margin:     e.account,
	})
	if err != nil {
		e.log.Warn().Err(err).
			Str("direction", z.Dir.String()).
			Float64("entry", entry).
			Msg("entry signal rejected by sizer")
		metrics.OrdersRejected.WithLabelValues("sizer").Inc()
		return false
	}

	req := broker.OrderRequest{
		Symbol: e.symbol,
		Side:   side,
		Volume: volume,
		Price:  entry,
		Stop:   stop,
		Target: target,
		Label:  fmt.Sprintf("zone-%s-%d", z.Dir, z.CreatedAt.Unix()),
	}
	pos, err := e.gateway.Submit(req)
	if err != nil {
		e.log.Warn().Err(err).
			Str("direction", z.Dir.String()).
			Float64("volume", volume).
			Msg("order submission failed, zone retained")
		metrics.OrdersRejected.WithLabelValues("gateway").Inc()
		return false
	}

	e.log.Info().
		Str("ticket", pos.Ticket).
		Str("side", side.String()).
		Float64("entry", entry).
		Float64("stop", stop).
		Float64("target", target).
		Float64("volume", volume).
		Time("zone_bar", z.CreatedAt).
		Msg("zone entry filled")
	return true
}
