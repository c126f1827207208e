// Binary feedserver streams simulated quotes over websockets, one
// random-walk stream per /ws/trading/{instrument} connection, and exposes
// the instrument catalog over HTTP for selection UIs.
package main

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/iscfl/trading-signals/internal/classify"
	"github.com/iscfl/trading-signals/internal/config"
	"github.com/iscfl/trading-signals/internal/feed"
	"github.com/iscfl/trading-signals/internal/market"
	"github.com/iscfl/trading-signals/internal/util"
)

type server struct {
	log         zerolog.Logger
	upgrader    websocket.Upgrader
	instruments map[string]config.Instrument
	minInterval time.Duration
}

func main() {
	_ = godotenv.Load() // best-effort

	cfg, err := config.Load(getEnv("CONFIG_PATH", "internal/config/config.yaml"))
	if err != nil {
		l := util.NewLogger("info")
		l.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	srv := newServer(log, cfg)
	log.Info().Str("addr", cfg.Server.ListenAddr).Int("instruments", len(srv.instruments)).Msg("feed server listening")
	if err := http.ListenAndServe(cfg.Server.ListenAddr, srv.routes()); err != nil {
		log.Fatal().Err(err).Msg("feed server stopped")
	}
}

func newServer(log zerolog.Logger, cfg *config.Config) *server {
	instruments := make(map[string]config.Instrument, len(cfg.Feed.Instruments))
	for _, inst := range cfg.Feed.Instruments {
		instruments[inst.Symbol] = inst
	}
	minInterval := classify.DefaultMinInterval
	if cfg.Signal.MinIntervalSecs > 0 {
		minInterval = time.Duration(cfg.Signal.MinIntervalSecs) * time.Second
	}
	return &server{
		log:         log,
		upgrader:    websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		instruments: instruments,
		minInterval: minInterval,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stocks", s.handleStocks)
	mux.HandleFunc("/ws/trading/", s.handleTrading)
	return mux
}

func (s *server) handleStocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	catalog := make([]feed.Instrument, 0, len(s.instruments))
	for _, inst := range s.instruments {
		catalog = append(catalog, feed.Instrument{Symbol: inst.Symbol, Name: inst.Name, BasePrice: inst.BasePrice})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(catalog)
}

func (s *server) handleTrading(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimPrefix(r.URL.Path, "/ws/trading/")
	inst, ok := s.instruments[symbol]
	if symbol == "" || !ok {
		http.NotFound(w, r)
		return
	}
	timeframe := r.URL.Query().Get("timeframe")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	s.log.Info().Str("instrument", symbol).Str("timeframe", timeframe).Msg("stream opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		// Discard inbound frames; a read error means the client went away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	s.stream(ctx, conn, inst, timeframe)
	s.log.Info().Str("instrument", symbol).Msg("stream closed")
}

func (s *server) stream(ctx context.Context, conn *websocket.Conn, inst config.Instrument, timeframe string) {
	ticker := time.NewTicker(feed.TickInterval(timeframe))
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	gen := classify.NewGenerator(classify.NewRandom(0), s.minInterval)
	var last *market.Signal

	px := inst.BasePrice
	if px <= 0 {
		px = 100
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := px
			px *= 1 + (rng.Float64()*2-1)*0.01

			var payload *feed.SignalPayload
			if sig := gen.Generate(market.Tick{Instrument: inst.Symbol, Price: px, Ts: time.Now()}, last); sig != nil {
				last = sig
				payload = &feed.SignalPayload{Kind: string(sig.Kind), Price: sig.Price, Ts: sig.Ts.UnixMilli()}
			}

			env := feed.Envelope{
				StockData: feed.StockData{
					Symbol:        inst.Symbol,
					Name:          inst.Name,
					CurrentPrice:  px,
					PreviousPrice: prev,
					Change:        px - prev,
					ChangePercent: (px - prev) / prev * 100,
				},
				Signal: payload,
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		}
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
