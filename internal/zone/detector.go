package zone

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Monte-Ntuli/trading-bot-3/internal/market"
	"github.com/Monte-Ntuli/trading-bot-3/internal/metrics"
)

// Detector scans recent closed bars for engulfing reversal patterns whose
// range clears the current ATR. It must run exactly once per newly closed
// bar; feeding it intra-bar updates would duplicate zones.
type Detector struct {
	lookback  int
	bodyRatio float64
	log       zerolog.Logger
}

// NewDetector builds a detector. lookback is the candidate window depth in
// bars (>= 3); bodyRatio is the minimum body/range fraction in (0, 1].
func NewDetector(lookback int, bodyRatio float64, log zerolog.Logger) *Detector {
	return &Detector{lookback: lookback, bodyRatio: bodyRatio, log: log}
}

// Scan walks candidate bars and returns every new zone found. bars must be
// ordered newest first (index 0 = latest closed bar). exists reports whether
// a zone is already registered for a bar timestamp; direction is irrelevant
// to the dedup, one bar seeds at most one zone.
func (d *Detector) Scan(bars []market.Bar, atr float64, exists func(time.Time) bool) []Zone {
	if atr <= 0 || len(bars) < 4 {
		return nil
	}
	limit := d.lookback
	if max := len(bars) - 2; max < limit {
		limit = max
	}

	var out []Zone
	for i := 2; i < limit; i++ {
		cur, older := bars[i], bars[i+1]

		rng := cur.Range()
		if rng <= atr {
			continue
		}
		if cur.Body()/rng < d.bodyRatio {
			continue
		}

		var dir Direction
		switch {
		case older.Bearish() && cur.Bullish() && cur.Close > older.Open && cur.Open < older.Close:
			dir = Demand
		case older.Bullish() && cur.Bearish() && cur.Close < older.Open && cur.Open > older.Close:
			dir = Supply
		default:
			continue
		}

		if exists(cur.Ts) {
			continue
		}

		z := Zone{Top: cur.High, Bottom: cur.Low, Dir: dir, CreatedAt: cur.Ts}
		d.log.Debug().
			Str("direction", dir.String()).
			Float64("top", z.Top).
			Float64("bottom", z.Bottom).
			Time("bar", cur.Ts).
			Msg("zone detected")
		metrics.ZonesDetected.WithLabelValues(dir.String()).Inc()
		out = append(out, z)
	}
	return out
}
