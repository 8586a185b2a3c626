package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Monte-Ntuli/trading-bot-3/internal/broker"
	"github.com/Monte-Ntuli/trading-bot-3/internal/indicator"
	"github.com/Monte-Ntuli/trading-bot-3/internal/market"
	"github.com/Monte-Ntuli/trading-bot-3/internal/risk"
)

// Manager adjusts the open position every cycle: a trailing stop throttled
// to one move per closed bar, and a one-shot partial close once floating
// profit clears the ATR threshold. Both actions are best effort; a failed
// venue call is logged and re-evaluated from fresh state next cycle.
type Manager struct {
	trailEnabled   bool
	trailMult      float64
	partialEnabled bool
	partialMult    float64
	account        broker.Account
	gateway        broker.Gateway
	log            zerolog.Logger

	lastTrailBar  time.Time
	partialTicket string // ticket already partially closed, once per position
}

// NewManager builds a position manager.
func NewManager(cfg ManageConfig, account broker.Account, gateway broker.Gateway, log zerolog.Logger) *Manager {
	return &Manager{
		trailEnabled:   cfg.TrailingEnabled,
		trailMult:      cfg.TrailingMult,
		partialEnabled: cfg.PartialEnabled,
		partialMult:    cfg.PartialMult,
		account:        account,
		gateway:        gateway,
		log:            log,
	}
}

// ManageConfig carries the management knobs.
type ManageConfig struct {
	TrailingEnabled bool
	TrailingMult    float64
	PartialEnabled  bool
	PartialMult     float64
}

// Manage runs one management cycle against the open position. lastBar is the
// timestamp of the most recent closed bar, the unit the trailing throttle
// counts in.
func (m *Manager) Manage(pos broker.Position, q market.Quote, snap indicator.Snapshot, lastBar time.Time) {
	m.trail(pos, q, snap, lastBar)
	m.partial(pos, snap)
}

func (m *Manager) trail(pos broker.Position, q market.Quote, snap indicator.Snapshot, lastBar time.Time) {
	if !m.trailEnabled {
		return
	}
	// One modify per closed bar; intra-bar cycles between bar closes are
	// exactly the redundant calls this throttle exists to avoid.
	if !lastBar.After(m.lastTrailBar) {
		return
	}

	sign := pos.Side.Sign()
	candidate := pos.OpenPrice - sign*snap.ATR*m.trailMult
	if sign*(candidate-pos.Stop) <= q.MinStep {
		return
	}

	if err := m.gateway.ModifyStop(pos.Ticket, candidate); err != nil {
		m.log.Warn().Err(err).
			Str("ticket", pos.Ticket).
			Float64("stop", candidate).
			Msg("trailing stop modify failed")
		return
	}
	m.lastTrailBar = lastBar
	m.log.Debug().
		Str("ticket", pos.Ticket).
		Float64("from", pos.Stop).
		Float64("to", candidate).
		Msg("trailing stop moved")
}

func (m *Manager) partial(pos broker.Position, snap indicator.Snapshot) {
	if !m.partialEnabled || pos.Ticket == m.partialTicket {
		return
	}
	if pos.FloatingPnL < snap.ATR*m.partialMult {
		return
	}

	_, _, lotStep := m.account.Lots()
	half := risk.QuantizeDown(pos.Volume/2, lotStep)
	if half <= 0 {
		return
	}

	if err := m.gateway.PartialClose(pos.Ticket, half); err != nil {
		m.log.Warn().Err(err).
			Str("ticket", pos.Ticket).
			Float64("volume", half).
			Msg("partial close failed")
		return
	}
	m.partialTicket = pos.Ticket
	m.log.Info().
		Str("ticket", pos.Ticket).
		Float64("closed", half).
		Msg("partial close executed")
}
