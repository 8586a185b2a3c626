// Package broker defines the venue-facing surfaces: account queries, the
// order gateway, and the position view the engine manages. A simulated venue
// backs paper mode and tests; a live adapter satisfies the same interfaces.
package broker

import (
	"errors"
	"fmt"
)

// ErrRejected is returned when the venue refuses an order outright.
var ErrRejected = errors.New("broker: order rejected")

// Side is the direction of an order or position. The numeric values double
// as the directional sign used in stop/target arithmetic.
type Side int

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Sign returns +1 for buys and -1 for sells as a float factor.
func (s Side) Sign() float64 { return float64(s) }

// OrderRequest is a market order with protective levels attached.
type OrderRequest struct {
	Symbol string  `json:"symbol"`
	Side   Side    `json:"side"`
	Volume float64 `json:"volume"`
	Price  float64 `json:"price"`
	Stop   float64 `json:"stop"`
	Target float64 `json:"target"`
	Label  string  `json:"label"`
}

// Position is the venue's view of the single open position. The engine only
// ever asks the venue to move the stop or close part of the volume.
type Position struct {
	Ticket      string
	Symbol      string
	Side        Side
	OpenPrice   float64
	Volume      float64
	Stop        float64
	Target      float64
	FloatingPnL float64
}

// Account exposes the venue-side numbers sizing depends on.
type Account interface {
	Balance() float64
	FreeMargin() float64
	// Lots returns the venue's min, max, and step volume constraints.
	Lots() (min, max, step float64)
	TickValue() float64
	// MarginRequired prices the margin a hypothetical order would lock up.
	MarginRequired(volume, price float64) (float64, error)
}

// Gateway submits and manages orders. Every call is synchronous and returns
// success or failure immediately; the engine never blocks on it.
type Gateway interface {
	Submit(req OrderRequest) (Position, error)
	ModifyStop(ticket string, stop float64) error
	PartialClose(ticket string, volume float64) error
	// OpenPosition returns the open position for the symbol, if any.
	OpenPosition(symbol string) (Position, bool)
}
