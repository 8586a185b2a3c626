package market

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// ProviderStub emits a deterministic synthetic walk (tests/offline work).
	ProviderStub = "stub"
	// ProviderBinance streams live klines and book tickers from Binance.
	ProviderBinance = "binance"
)

// Feed is a pluggable source of closed bars and quotes for one symbol.
type Feed struct {
	provider string
	symbol   string
	log      zerolog.Logger
	minStep  float64
	interval time.Duration
}

// Option configures Feed construction parameters.
type Option func(*Feed)

const (
	defaultMinStep  = 0.01
	defaultInterval = time.Hour
)

// WithMinStep overrides the minimum price increment stamped onto quotes.
func WithMinStep(step float64) Option {
	return func(f *Feed) {
		if step > 0 {
			f.minStep = step
		}
	}
}

// WithInterval overrides the bar timeframe (the stub feed compresses it so
// tests do not wait an hour per bar).
func WithInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.interval = d
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider, symbol string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider: strings.ToLower(provider),
		symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		log:      log,
		minStep:  defaultMinStep,
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run pushes events onto the channel until the context is canceled.
func (f *Feed) Run(ctx context.Context, out chan<- Event) error {
	switch f.provider {
	case ProviderBinance:
		return f.runBinance(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

// runStub walks the price up in small increments and closes a synthetic bar
// every interval, which is enough to drive the whole pipeline offline.
func (f *Feed) runStub(ctx context.Context, out chan<- Event) error {
	quoteTick := time.NewTicker(f.interval / 8)
	defer quoteTick.Stop()
	barTick := time.NewTicker(f.interval)
	defer barTick.Stop()

	px := 100.0
	open, high, low := px, px, px
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-quoteTick.C:
			px += 0.05
			if px > high {
				high = px
			}
			if px < low {
				low = px
			}
			q := Quote{Bid: px - f.minStep, Ask: px + f.minStep, MinStep: f.minStep, Ts: ts}
			if err := f.emit(ctx, out, Event{Quote: &q}); err != nil {
				return err
			}
		case ts := <-barTick.C:
			b := Bar{Open: open, High: high, Low: low, Close: px, Ts: ts}
			open, high, low = px, px, px
			if err := f.emit(ctx, out, Event{Bar: &b}); err != nil {
				return err
			}
		}
	}
}

func (f *Feed) emit(ctx context.Context, out chan<- Event, ev Event) error {
	select {
	case out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
