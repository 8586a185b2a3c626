// Package market defines the price data types and feed connectors the engine
// consumes: closed OHLC bars on a fixed timeframe and top-of-book quotes.
package market

import (
	"errors"
	"math"
	"time"
)

// ErrNoData signals that a requested bar window is not available yet.
var ErrNoData = errors.New("market: no data")

// Bar is a closed candle on the working timeframe.
type Bar struct {
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
	Ts    time.Time `json:"ts"`
}

// Bullish reports whether the bar closed above its open.
func (b Bar) Bullish() bool { return b.Close > b.Open }

// Bearish reports whether the bar closed below its open.
func (b Bar) Bearish() bool { return b.Close < b.Open }

// Body returns the absolute close-open distance.
func (b Bar) Body() float64 { return math.Abs(b.Close - b.Open) }

// Range returns the high-low distance.
func (b Bar) Range() float64 { return b.High - b.Low }

// Quote is a top-of-book snapshot plus the venue's minimum price increment.
type Quote struct {
	Bid     float64
	Ask     float64
	MinStep float64
	Ts      time.Time
}

// Mid returns the bid/ask midpoint.
func (q Quote) Mid() float64 { return (q.Bid + q.Ask) / 2 }

// Event is a single feed emission: exactly one of Bar or Quote is set.
type Event struct {
	Bar   *Bar
	Quote *Quote
}
