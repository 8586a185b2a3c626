package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Monte-Ntuli/trading-bot-3/internal/broker"
	"github.com/Monte-Ntuli/trading-bot-3/internal/config"
	"github.com/Monte-Ntuli/trading-bot-3/internal/indicator"
	"github.com/Monte-Ntuli/trading-bot-3/internal/market"
	"github.com/Monte-Ntuli/trading-bot-3/internal/metrics"
	"github.com/Monte-Ntuli/trading-bot-3/internal/zone"
)

// Engine owns the whole decision state for one instrument: bar history,
// indicator values, the zone registry, and the entry/management components.
// All state is in-memory and rebuilt from the feed after a restart.
//
// The engine is single-threaded by contract: OnBarClose, OnQuote, and
// OnPurgeTimer must be invoked from one goroutine, run to completion, and
// never overlap. No locking happens here.
type Engine struct {
	log        zerolog.Logger
	symbol     string
	scanDepth  int
	history    *market.History
	indicators *indicator.Provider
	detector   *zone.Detector
	registry   *zone.Registry
	evaluator  *Evaluator
	manager    *Manager
	gateway    broker.Gateway

	lastQuote market.Quote
	hasQuote  bool
	lastBarTs time.Time
}

// New wires an engine from validated configuration and venue collaborators.
func New(cfg *config.Config, account broker.Account, gateway broker.Gateway, log zerolog.Logger) *Engine {
	historyDepth := cfg.Feed.History
	if historyDepth < cfg.Zones.LookbackBars+2 {
		historyDepth = cfg.Zones.LookbackBars + 2
	}
	registry := zone.NewRegistry(
		cfg.Zones.Capacity,
		time.Duration(cfg.Zones.MaxAgeDays)*24*time.Hour,
		log,
	)
	return &Engine{
		log:        log,
		symbol:     cfg.Feed.Symbol,
		scanDepth:  cfg.Zones.LookbackBars + 2,
		history:    market.NewHistory(historyDepth),
		indicators: indicator.NewProvider(cfg.Trading.ATRPeriod, cfg.Trading.EMAFast, cfg.Trading.EMASlow),
		detector:   zone.NewDetector(cfg.Zones.LookbackBars, cfg.Zones.BodyRatio, log),
		registry:   registry,
		evaluator: NewEvaluator(
			cfg.Feed.Symbol, cfg.TradingHours(),
			cfg.Trading.RiskPct, cfg.Trading.SLMult, cfg.Trading.TPMult,
			registry, account, gateway, log,
		),
		manager: NewManager(ManageConfig{
			TrailingEnabled: cfg.Manage.TrailingEnabled,
			TrailingMult:    cfg.Manage.TrailingMult,
			PartialEnabled:  cfg.Manage.PartialEnabled,
			PartialMult:     cfg.Manage.PartialMult,
		}, account, gateway, log),
		gateway: gateway,
	}
}

// Registry exposes the zone registry for inspection.
func (e *Engine) Registry() *zone.Registry { return e.registry }

// OnBarClose runs the per-bar cycle: detection, purge, then entry
// evaluation, in that order so entries always see the freshest zone set.
// It must be called exactly once per newly closed bar.
func (e *Engine) OnBarClose(bar market.Bar) {
	metrics.BarsTotal.Inc()
	e.history.Push(bar)
	e.indicators.OnBar(bar)
	e.lastBarTs = bar.Ts

	snap, err := e.indicators.Snapshot()
	if err != nil {
		e.log.Debug().Err(err).Time("bar", bar.Ts).Msg("skipping bar cycle")
		return
	}

	bars := e.history.Recent(e.scanDepth)
	for _, z := range e.detector.Scan(bars, snap.ATR, e.registry.HasTimestamp) {
		e.registry.Insert(z)
	}

	e.registry.Purge(bar.Ts, e.currentPrice(bar.Close))

	if !e.hasQuote {
		e.log.Debug().Time("bar", bar.Ts).Msg("no quote yet, skipping entry evaluation")
		return
	}
	e.evaluator.Evaluate(bar.Ts, bar, e.lastQuote, snap)
}

// OnQuote records the freshest quote and runs position management. Quotes
// arrive many times per bar; the manager's own throttles keep venue calls
// bounded.
func (e *Engine) OnQuote(q market.Quote) {
	e.lastQuote = q
	e.hasQuote = true

	pos, open := e.gateway.OpenPosition(e.symbol)
	if !open {
		return
	}
	snap, err := e.indicators.Snapshot()
	if err != nil {
		return
	}
	e.manager.Manage(pos, q, snap, e.lastBarTs)
}

// OnPurgeTimer evicts stale zones between bars. Re-running with unchanged
// inputs is a no-op.
func (e *Engine) OnPurgeTimer(now time.Time) {
	latest, err := e.history.Latest()
	if err != nil {
		return
	}
	e.registry.Purge(now, e.currentPrice(latest.Close))
}

// currentPrice prefers the live mid quote, falling back to the given bar
// close before the first quote arrives.
func (e *Engine) currentPrice(fallback float64) float64 {
	if e.hasQuote {
		return e.lastQuote.Mid()
	}
	return fallback
}
