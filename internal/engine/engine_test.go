package engine

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Monte-Ntuli/trading-bot-3/internal/broker"
	"github.com/Monte-Ntuli/trading-bot-3/internal/config"
	"github.com/Monte-Ntuli/trading-bot-3/internal/market"
	"github.com/Monte-Ntuli/trading-bot-3/internal/zone"
)

func testConfig() *config.Config {
	return &config.Config{
		Feed:  config.Feed{Provider: "stub", Symbol: "EURUSD", MinStep: 0.01, History: 64},
		Zones: config.Zones{LookbackBars: 10, BodyRatio: 0.7, MaxAgeDays: 5, Capacity: 100, PurgeInterval: 300},
		Trading: config.Trading{
			RiskPct: 1, ATRPeriod: 3, SLMult: 1.5, TPMult: 3,
			EMAFast: 2, EMASlow: 4, Hours: "00:00-23:59",
		},
		Manage: config.Manage{TrailingEnabled: true, TrailingMult: 1, PartialEnabled: true, PartialMult: 2},
	}
}

// scenarioBars returns the scripted sequence: flat warmup, a bearish bar, the
// bullish bar engulfing it (the zone candidate), two quiet follow-ups that
// bring the candidate into the scan window, then a bar whose low revisits the
// zone bottom and closes bullish.
func scenarioBars(base time.Time) []market.Bar {
	var bars []market.Bar
	ts := base
	push := func(o, h, l, c float64) {
		bars = append(bars, market.Bar{Open: o, High: h, Low: l, Close: c, Ts: ts})
		ts = ts.Add(time.Hour)
	}
	for i := 0; i < 6; i++ {
		push(100, 100.4, 99.8, 100.2)
	}
	push(100.9, 101.1, 100.1, 100.2) // bearish
	push(100.1, 103, 100, 102.8)     // bullish engulfing: zone [100, 103]
	push(102.8, 103.1, 102.4, 102.5)
	push(102.4, 102.9, 102.2, 102.7)
	push(100.0, 102.8, 99.9, 102.6) // touches 100, closes bullish in uptrend
	return bars
}

func TestEngineDetectsZoneFromBarFlow(t *testing.T) {
	gw := &fakeGateway{trackOpens: true}
	e := New(testConfig(), defaultAccount(), gw, zerolog.Nop())

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	bars := scenarioBars(base)
	for _, b := range bars[:len(bars)-1] {
		e.OnBarClose(b)
	}

	if e.Registry().Len() != 1 {
		t.Fatalf("expected one zone after scripted bars, got %d", e.Registry().Len())
	}
	z := e.Registry().At(0)
	if z.Dir != zone.Demand || z.Bottom != 100 || z.Top != 103 {
		t.Fatalf("unexpected zone %+v", z)
	}
}

func TestEngineEntersOnZoneTouch(t *testing.T) {
	gw := &fakeGateway{trackOpens: true}
	e := New(testConfig(), defaultAccount(), gw, zerolog.Nop())

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	bars := scenarioBars(base)
	for _, b := range bars[:len(bars)-1] {
		e.OnBarClose(b)
	}
	e.OnQuote(market.Quote{Bid: 102.55, Ask: 102.65, MinStep: 0.01, Ts: bars[len(bars)-1].Ts})
	e.OnBarClose(bars[len(bars)-1])

	if len(gw.submitted) != 1 {
		t.Fatalf("expected one order from the touch bar, got %d", len(gw.submitted))
	}
	if gw.submitted[0].Side != broker.Buy {
		t.Fatalf("expected a buy, got %s", gw.submitted[0].Side)
	}
	if e.Registry().Len() != 0 {
		t.Fatalf("expected zone consumed after fill, got %d", e.Registry().Len())
	}
}

func TestEngineSkipsEntryWithoutQuote(t *testing.T) {
	gw := &fakeGateway{trackOpens: true}
	e := New(testConfig(), defaultAccount(), gw, zerolog.Nop())

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for _, b := range scenarioBars(base) {
		e.OnBarClose(b)
	}

	if len(gw.submitted) != 0 {
		t.Fatalf("expected no order before the first quote")
	}
	if e.Registry().Len() != 1 {
		t.Fatalf("expected zone retained, got %d", e.Registry().Len())
	}
}

func TestEngineSkipsCycleDuringWarmup(t *testing.T) {
	gw := &fakeGateway{trackOpens: true}
	e := New(testConfig(), defaultAccount(), gw, zerolog.Nop())

	e.OnBarClose(market.Bar{Open: 100, High: 101, Low: 99, Close: 100.5, Ts: time.Now()})
	if e.Registry().Len() != 0 {
		t.Fatalf("expected nothing detected during indicator warmup")
	}
}

func TestEnginePurgeTimerEvictsAgedZones(t *testing.T) {
	gw := &fakeGateway{trackOpens: true}
	e := New(testConfig(), defaultAccount(), gw, zerolog.Nop())

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	bars := scenarioBars(base)
	for _, b := range bars[:len(bars)-1] {
		e.OnBarClose(b)
	}
	if e.Registry().Len() != 1 {
		t.Fatalf("expected one zone, got %d", e.Registry().Len())
	}

	last := bars[len(bars)-2].Ts
	e.OnPurgeTimer(last.Add(time.Hour)) // fresh zone survives
	if e.Registry().Len() != 1 {
		t.Fatalf("expected zone to survive an early purge")
	}

	e.OnPurgeTimer(last.Add(6 * 24 * time.Hour)) // beyond max age
	if e.Registry().Len() != 0 {
		t.Fatalf("expected aged zone evicted by purge timer")
	}
}
