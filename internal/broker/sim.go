package broker

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Monte-Ntuli/trading-bot-3/internal/market"
	"github.com/Monte-Ntuli/trading-bot-3/internal/metrics"
)

// SimConfig seeds the simulated venue.
type SimConfig struct {
	Balance   float64
	Leverage  float64
	LotMin    float64
	LotMax    float64
	LotStep   float64
	TickValue float64
	PriceStep float64
}

// Sim is an in-memory venue used for paper trading and tests. It holds at
// most one open position, marks it to the latest quote, and fills protective
// levels when the quote crosses them.
type Sim struct {
	mu      sync.Mutex
	log     zerolog.Logger
	journal *Journal

	cfg     SimConfig
	balance float64
	quote   market.Quote

	pos    *Position
	margin float64 // locked by the open position
}

// NewSim builds a simulated venue. journal may be nil.
func NewSim(cfg SimConfig, log zerolog.Logger, journal *Journal) *Sim {
	if cfg.Leverage <= 0 {
		cfg.Leverage = 100
	}
	if cfg.PriceStep <= 0 {
		cfg.PriceStep = 0.01
	}
	return &Sim{cfg: cfg, balance: cfg.Balance, log: log, journal: journal}
}

// SetQuote marks the open position to the new quote and fills the stop or
// target if the exit price crossed them.
func (s *Sim) SetQuote(q market.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quote = q
	if s.pos == nil {
		return
	}
	mark := s.exitPrice(s.pos.Side)
	s.pos.FloatingPnL = s.unrealized(mark)

	switch {
	case s.pos.Stop > 0 && s.pos.Side.Sign()*(mark-s.pos.Stop) <= 0:
		s.closeLocked(s.pos.Stop, "stop")
	case s.pos.Target > 0 && s.pos.Side.Sign()*(mark-s.pos.Target) >= 0:
		s.closeLocked(s.pos.Target, "target")
	}
}

// exitPrice is the side a close would trade at: bid for longs, ask for shorts.
func (s *Sim) exitPrice(side Side) float64 {
	if side == Buy {
		return s.quote.Bid
	}
	return s.quote.Ask
}

func (s *Sim) unrealized(mark float64) float64 {
	p := s.pos
	return p.Side.Sign() * (mark - p.OpenPrice) / s.cfg.PriceStep * s.cfg.TickValue * p.Volume
}

func (s *Sim) closeLocked(price float64, reason string) {
	p := s.pos
	pnl := p.Side.Sign() * (price - p.OpenPrice) / s.cfg.PriceStep * s.cfg.TickValue * p.Volume
	s.balance += pnl
	s.log.Info().
		Str("ticket", p.Ticket).
		Str("reason", reason).
		Float64("price", price).
		Float64("pnl", pnl).
		Msg("sim position closed")
	s.journal.Record(Entry{Kind: "close", Ticket: p.Ticket, Symbol: p.Symbol, Side: p.Side.String(), Volume: p.Volume, Price: price, PnL: pnl})
	s.pos = nil
	s.margin = 0
}

// Balance reports the account balance (realized only).
func (s *Sim) Balance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// FreeMargin reports balance plus floating profit minus locked margin.
func (s *Sim) FreeMargin() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	free := s.balance - s.margin
	if s.pos != nil {
		free += s.pos.FloatingPnL
	}
	return free
}

// Lots returns the configured volume constraints.
func (s *Sim) Lots() (min, max, step float64) {
	return s.cfg.LotMin, s.cfg.LotMax, s.cfg.LotStep
}

// TickValue returns the configured per-lot tick value.
func (s *Sim) TickValue() float64 { return s.cfg.TickValue }

// MarginRequired prices a hypothetical order's margin at the venue leverage.
func (s *Sim) MarginRequired(volume, price float64) (float64, error) {
	if volume <= 0 || price <= 0 {
		return 0, fmt.Errorf("margin for invalid order: volume=%.4f price=%.4f", volume, price)
	}
	return volume * price / s.cfg.Leverage, nil
}

// Submit opens the position if volume and margin checks pass.
func (s *Sim) Submit(req OrderRequest) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos != nil {
		return Position{}, fmt.Errorf("%w: position already open", ErrRejected)
	}
	if req.Volume < s.cfg.LotMin || req.Volume > s.cfg.LotMax {
		return Position{}, fmt.Errorf("%w: volume %.4f outside lot bounds", ErrRejected, req.Volume)
	}
	required := req.Volume * req.Price / s.cfg.Leverage
	if required > s.balance-s.margin {
		return Position{}, fmt.Errorf("%w: insufficient margin", ErrRejected)
	}

	pos := Position{
		Ticket:    uuid.NewString(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		OpenPrice: req.Price,
		Volume:    req.Volume,
		Stop:      req.Stop,
		Target:    req.Target,
	}
	s.pos = &pos
	s.margin = required

	metrics.OrdersSubmitted.WithLabelValues(req.Side.String()).Inc()
	s.log.Info().
		Str("ticket", pos.Ticket).
		Str("side", req.Side.String()).
		Str("label", req.Label).
		Float64("volume", req.Volume).
		Float64("price", req.Price).
		Float64("stop", req.Stop).
		Float64("target", req.Target).
		Msg("sim order filled")
	s.journal.Record(Entry{Kind: "open", Ticket: pos.Ticket, Symbol: req.Symbol, Side: req.Side.String(), Volume: req.Volume, Price: req.Price, Stop: req.Stop, Target: req.Target})
	return pos, nil
}

// ModifyStop moves the protective stop, refusing moves through the mark.
func (s *Sim) ModifyStop(ticket string, stop float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == nil || s.pos.Ticket != ticket {
		return fmt.Errorf("%w: unknown ticket %s", ErrRejected, ticket)
	}
	mark := s.exitPrice(s.pos.Side)
	if s.pos.Side.Sign()*(mark-stop) <= 0 {
		return fmt.Errorf("%w: stop %.5f through market %.5f", ErrRejected, stop, mark)
	}
	s.pos.Stop = stop
	metrics.StopModifies.Inc()
	s.journal.Record(Entry{Kind: "modify", Ticket: ticket, Stop: stop})
	return nil
}

// PartialClose realizes profit on part of the volume at the current mark.
func (s *Sim) PartialClose(ticket string, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == nil || s.pos.Ticket != ticket {
		return fmt.Errorf("%w: unknown ticket %s", ErrRejected, ticket)
	}
	if volume <= 0 || volume > s.pos.Volume {
		return fmt.Errorf("%w: partial volume %.4f out of range", ErrRejected, volume)
	}

	mark := s.exitPrice(s.pos.Side)
	pnl := s.pos.Side.Sign() * (mark - s.pos.OpenPrice) / s.cfg.PriceStep * s.cfg.TickValue * volume
	s.balance += pnl
	s.margin *= (s.pos.Volume - volume) / s.pos.Volume
	s.pos.Volume -= volume
	s.pos.FloatingPnL = s.unrealized(mark)

	metrics.PartialCloses.Inc()
	s.log.Info().
		Str("ticket", ticket).
		Float64("closed", volume).
		Float64("remaining", s.pos.Volume).
		Float64("pnl", pnl).
		Msg("sim partial close")
	s.journal.Record(Entry{Kind: "partial_close", Ticket: ticket, Volume: volume, Price: mark, PnL: pnl})

	if s.pos.Volume <= 0 {
		s.pos = nil
		s.margin = 0
	}
	return nil
}

// OpenPosition returns a copy of the open position for the symbol, if any.
func (s *Sim) OpenPosition(symbol string) (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == nil || s.pos.Symbol != symbol {
		return Position{}, false
	}
	return *s.pos, true
}
