package engine

import (
	"fmt"

	"github.com/Monte-Ntuli/trading-bot-3/internal/broker"
)

type fakeAccount struct {
	balance      float64
	freeMargin   float64
	tickValue    float64
	lotMin       float64
	lotMax       float64
	lotStep      float64
	marginPerLot float64
}

func defaultAccount() *fakeAccount {
	return &fakeAccount{
		balance:      10_000,
		freeMargin:   10_000,
		tickValue:    1,
		lotMin:       0.01,
		lotMax:       50,
		lotStep:      0.01,
		marginPerLot: 10,
	}
}

func (a *fakeAccount) Balance() float64                { return a.balance }
func (a *fakeAccount) FreeMargin() float64             { return a.freeMargin }
func (a *fakeAccount) Lots() (float64, float64, float64) { return a.lotMin, a.lotMax, a.lotStep }
func (a *fakeAccount) TickValue() float64              { return a.tickValue }
func (a *fakeAccount) MarginRequired(volume, price float64) (float64, error) {
	return volume * a.marginPerLot, nil
}

type fakeGateway struct {
	pos        *broker.Position
	trackOpens bool // when set, a successful submit becomes the open position

	submitErr  error
	modifyErr  error
	partialErr error

	submitted []broker.OrderRequest
	modified  []float64
	partials  []float64
}

func (g *fakeGateway) Submit(req broker.OrderRequest) (broker.Position, error) {
	if g.submitErr != nil {
		return broker.Position{}, g.submitErr
	}
	g.submitted = append(g.submitted, req)
	pos := broker.Position{
		Ticket:    fmt.Sprintf("t-%d", len(g.submitted)),
		Symbol:    req.Symbol,
		Side:      req.Side,
		OpenPrice: req.Price,
		Volume:    req.Volume,
		Stop:      req.Stop,
		Target:    req.Target,
	}
	if g.trackOpens {
		g.pos = &pos
	}
	return pos, nil
}

func (g *fakeGateway) ModifyStop(ticket string, stop float64) error {
	if g.modifyErr != nil {
		return g.modifyErr
	}
	g.modified = append(g.modified, stop)
	if g.pos != nil {
		g.pos.Stop = stop
	}
	return nil
}

func (g *fakeGateway) PartialClose(ticket string, volume float64) error {
	if g.partialErr != nil {
		return g.partialErr
	}
	g.partials = append(g.partials, volume)
	if g.pos != nil {
		g.pos.Volume -= volume
	}
	return nil
}

func (g *fakeGateway) OpenPosition(symbol string) (broker.Position, bool) {
	if g.pos == nil || g.pos.Symbol != symbol {
		return broker.Position{}, false
	}
	return *g.pos, true
}
