package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/iscfl/trading-signals/internal/classify"
	"github.com/iscfl/trading-signals/internal/config"
	"github.com/iscfl/trading-signals/internal/execution"
	"github.com/iscfl/trading-signals/internal/feed"
	"github.com/iscfl/trading-signals/internal/ledger"
	"github.com/iscfl/trading-signals/internal/market"
	"github.com/iscfl/trading-signals/internal/metrics"
	"github.com/iscfl/trading-signals/internal/risk"
	"github.com/iscfl/trading-signals/internal/session"
	"github.com/iscfl/trading-signals/internal/util"
)

func main() {
	_ = godotenv.Load() // best-effort

	cfg, err := config.Load(getEnv("CONFIG_PATH", "internal/config/config.yaml"))
	if err != nil {
		l := util.NewLogger("info")
		l.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	basePrices := make(map[string]float64, len(cfg.Feed.Instruments))
	for _, inst := range cfg.Feed.Instruments {
		basePrices[inst.Symbol] = inst.BasePrice
	}
	src := feed.NewFeed(cfg.Feed.Provider, log,
		feed.WithWSBaseURL(cfg.Feed.WSBaseURL),
		feed.WithConnectDelay(time.Duration(cfg.Feed.ConnectDelayMs)*time.Millisecond),
		feed.WithBasePrices(basePrices),
	)

	classifier := classify.Build(cfg.Signal.Mode, classify.Params{
		Seed:               cfg.Signal.Seed,
		MomentumThreshold:  cfg.Signal.MomentumThreshold,
		MomentumWindowSecs: cfg.Signal.MomentumWindowSecs,
	})
	gen := classify.NewGenerator(classifier, time.Duration(cfg.Signal.MinIntervalSecs)*time.Second)
	exec := execution.NewExecutor(log, execution.FixedSizer{Qty: cfg.Sizing.Quantity})

	var rec session.TradeRecorder
	if cfg.Session.TradesPath != "" {
		journal, err := session.NewJSONLRecorder(cfg.Session.TradesPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open trade journal")
		}
		defer journal.Close()
		rec = journal
	}

	sess := session.New(log, session.Config{
		InitialInvestment: cfg.Session.InitialInvestment,
		HistoryLimit:      cfg.Session.HistoryLimit,
		Policy:            ledger.Policy{AllowShort: cfg.Session.AllowShort},
		Limits: risk.Limits{
			MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade,
			MaxOpenShares:       cfg.Risk.MaxOpenShares,
		},
	}, src, gen, exec, &logSink{log: log}, rec)
	defer sess.Close()

	if err := sess.Select(cfg.Session.Instrument, cfg.Session.Timeframe); err != nil {
		log.Fatal().Err(err).Msg("select instrument")
	}
	log.Info().
		Str("instrument", cfg.Session.Instrument).
		Str("timeframe", cfg.Session.Timeframe).
		Str("classifier", classifier.Name()).
		Msg("paper engine started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
}

// logSink renders session outputs as structured log lines.
type logSink struct{ log zerolog.Logger }

func (s *logSink) OnStatus(st session.Status) {
	s.log.Info().Str("status", string(st)).Msg("session status")
}

func (s *logSink) OnSignal(sig market.Signal) {
	s.log.Info().Str("kind", string(sig.Kind)).Float64("px", sig.Price).Msg("signal")
}

func (s *logSink) OnTrade(tr execution.Trade) {
	s.log.Info().Str("side", string(tr.Side)).Int("qty", tr.Qty).Float64("px", tr.Price).Msg("trade")
}

func (s *logSink) OnSnapshot(sn ledger.Snapshot) {
	s.log.Debug().
		Int("shares", sn.ShareCount).
		Float64("realized", sn.RealizedPL).
		Float64("unrealized", sn.UnrealizedPL).
		Float64("total", sn.TotalPL).
		Float64("pct", sn.TotalPLPercent).
		Msg("pnl")
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
