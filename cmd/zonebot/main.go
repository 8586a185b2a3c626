package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Monte-Ntuli/trading-bot-3/internal/broker"
	"github.com/Monte-Ntuli/trading-bot-3/internal/config"
	"github.com/Monte-Ntuli/trading-bot-3/internal/engine"
	"github.com/Monte-Ntuli/trading-bot-3/internal/market"
	"github.com/Monte-Ntuli/trading-bot-3/internal/metrics"
	"github.com/Monte-Ntuli/trading-bot-3/internal/util"
)

func main() {
	_ = godotenv.Load()
	log := util.NewLogger(os.Getenv("ZONEBOT_LOG_LEVEL"))

	configPath := os.Getenv("ZONEBOT_CONFIG")
	if configPath == "" {
		configPath = "internal/config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config, refusing to start")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var journal *broker.Journal
	if cfg.Sim.JournalPath != "" {
		journal, err = broker.NewJournal(cfg.Sim.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open trade journal")
		}
		defer journal.Close()
	}

	venue := broker.NewSim(broker.SimConfig{
		Balance:   cfg.Sim.Balance,
		Leverage:  cfg.Sim.Leverage,
		LotMin:    cfg.Sim.LotMin,
		LotMax:    cfg.Sim.LotMax,
		LotStep:   cfg.Sim.LotStep,
		TickValue: cfg.Sim.TickValue,
		PriceStep: cfg.Feed.MinStep,
	}, log, journal)
	eng := engine.New(cfg, venue, venue, log)

	feed := market.NewFeed(cfg.Feed.Provider, cfg.Feed.Symbol, log, market.WithMinStep(cfg.Feed.MinStep))
	events := make(chan market.Event, 1024)
	go func() {
		if err := feed.Run(ctx, events); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()

	purgeEvery := time.Duration(cfg.Zones.PurgeInterval) * time.Second
	if purgeEvery <= 0 {
		purgeEvery = 5 * time.Minute
	}
	purge := time.NewTicker(purgeEvery)
	defer purge.Stop()

	log.Info().Str("symbol", cfg.Feed.Symbol).Str("provider", cfg.Feed.Provider).Msg("engine started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return
		case ev := <-events:
			switch {
			case ev.Quote != nil:
				venue.SetQuote(*ev.Quote)
				eng.OnQuote(*ev.Quote)
			case ev.Bar != nil:
				eng.OnBarClose(*ev.Bar)
			}
		case now := <-purge.C:
			eng.OnPurgeTimer(now)
		}
	}
}
