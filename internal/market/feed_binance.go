package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type binanceEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type binanceKlineEvent struct {
	Kline struct {
		StartTime int64  `json:"t"`
		CloseTime int64  `json:"T"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Closed    bool   `json:"x"`
	} `json:"k"`
}

type binanceBookTicker struct {
	Bid string `json:"b"`
	Ask string `json:"a"`
}

func (f *Feed) runBinance(ctx context.Context, out chan<- Event) error {
	if f.symbol == "" {
		return fmt.Errorf("binance feed requires a symbol")
	}

	sym := strings.ToLower(f.symbol)
	url := fmt.Sprintf("wss://stream.binance.com:9443/stream?streams=%s@kline_1h/%s@bookTicker", sym, sym)
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consumeBinanceStream(ctx, url, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Msg("binance feed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consumeBinanceStream(ctx context.Context, url string, out chan<- Event) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.log.Info().Str("provider", ProviderBinance).Str("symbol", f.symbol).Msg("connected market data feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("binance ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env binanceEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode binance message")
			continue
		}

		var ev Event
		switch {
		case strings.HasSuffix(env.Stream, "@kline_1h"):
			bar, ok := f.parseKline(env.Data)
			if !ok {
				continue
			}
			ev = Event{Bar: bar}
		case strings.HasSuffix(env.Stream, "@bookTicker"):
			q, ok := f.parseBookTicker(env.Data)
			if !ok {
				continue
			}
			ev = Event{Quote: q}
		default:
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// parseKline returns a bar only once the candle has closed; intra-bar kline
// updates must never reach the detector.
func (f *Feed) parseKline(raw json.RawMessage) (*Bar, bool) {
	var ev binanceKlineEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		f.log.Warn().Err(err).Msg("invalid kline payload")
		return nil, false
	}
	if !ev.Kline.Closed {
		return nil, false
	}
	open, err1 := strconv.ParseFloat(ev.Kline.Open, 64)
	high, err2 := strconv.ParseFloat(ev.Kline.High, 64)
	low, err3 := strconv.ParseFloat(ev.Kline.Low, 64)
	cls, err4 := strconv.ParseFloat(ev.Kline.Close, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		f.log.Warn().Msg("invalid kline prices from binance")
		return nil, false
	}
	return &Bar{Open: open, High: high, Low: low, Close: cls, Ts: time.UnixMilli(ev.Kline.StartTime)}, true
}

func (f *Feed) parseBookTicker(raw json.RawMessage) (*Quote, bool) {
	var bt binanceBookTicker
	if err := json.Unmarshal(raw, &bt); err != nil {
		f.log.Warn().Err(err).Msg("invalid book ticker payload")
		return nil, false
	}
	bid, err1 := strconv.ParseFloat(bt.Bid, 64)
	ask, err2 := strconv.ParseFloat(bt.Ask, 64)
	if err1 != nil || err2 != nil {
		f.log.Warn().Msg("invalid quote prices from binance")
		return nil, false
	}
	return &Quote{Bid: bid, Ask: ask, MinStep: f.minStep, Ts: time.Now()}, true
}
