// Package session orchestrates one instrument/timeframe trading session:
// it owns the trade log, the bounded tick history, and the subscription
// lifecycle, and drives the tick → signal → trade → ledger pipeline.
package session

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iscfl/trading-signals/internal/classify"
	"github.com/iscfl/trading-signals/internal/execution"
	"github.com/iscfl/trading-signals/internal/feed"
	"github.com/iscfl/trading-signals/internal/ledger"
	"github.com/iscfl/trading-signals/internal/market"
	"github.com/iscfl/trading-signals/internal/risk"
)

// Status enumerates the session lifecycle states.
type Status string

const (
	Idle         Status = "idle"
	Connecting   Status = "connecting"
	Streaming    Status = "streaming"
	Disconnected Status = "disconnected"
)

// DefaultHistoryLimit bounds the retained tick history.
const DefaultHistoryLimit = 100

// ErrNoInstrument marks timeframe changes requested while no instrument is selected.
var ErrNoInstrument = errors.New("session: no instrument selected")

// Sink receives session outputs as plain data. Implementations must not
// call back into the session from within a notification.
type Sink interface {
	OnStatus(st Status)
	OnSignal(sig market.Signal)
	OnTrade(tr execution.Trade)
	OnSnapshot(sn ledger.Snapshot)
}

// TradeRecorder captures executed trades for later inspection.
type TradeRecorder interface {
	Record(execution.Trade)
}

// Config tunes a session's accounting and guard-rails.
type Config struct {
	InitialInvestment float64
	HistoryLimit      int // 0 means DefaultHistoryLimit
	Policy            ledger.Policy
	Limits            risk.Limits
}

// Session owns all mutable state for one instrument subscription. Each tick
// is handled to completion under the session lock before the next one, so
// every signal observes exactly the trades produced by its predecessors.
type Session struct {
	log    zerolog.Logger
	cfg    Config
	source feed.Source
	gen    *classify.Generator
	exec   *execution.Executor
	sink   Sink
	rec    TradeRecorder

	mu         sync.Mutex
	status     Status
	instrument string
	timeframe  string
	trades     []execution.Trade
	history    []market.Tick
	lastSignal *market.Signal
	cancel     feed.CancelFunc
	epoch      uint64 // invalidates callbacks from stale subscriptions
}

// New builds an idle session. sink is required; rec may be nil.
func New(log zerolog.Logger, cfg Config, source feed.Source, gen *classify.Generator, exec *execution.Executor, sink Sink, rec TradeRecorder) *Session {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	return &Session{
		log:    log,
		cfg:    cfg,
		source: source,
		gen:    gen,
		exec:   exec,
		sink:   sink,
		rec:    rec,
		status: Idle,
	}
}

// Select subscribes to an instrument, clearing all prior session state.
func (s *Session) Select(instrument, timeframe string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unsubscribeLocked()
	s.instrument = instrument
	s.timeframe = timeframe
	s.trades = nil
	s.history = nil
	s.lastSignal = nil
	return s.subscribeLocked()
}

// SelectTimeframe re-subscribes with a new timeframe. The trade log survives
// so P&L continuity is preserved; tick history and last signal are cleared.
func (s *Session) SelectTimeframe(timeframe string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.instrument == "" {
		return ErrNoInstrument
	}
	s.unsubscribeLocked()
	s.timeframe = timeframe
	s.history = nil
	s.lastSignal = nil
	return s.subscribeLocked()
}

// Deselect unsubscribes and clears all session state.
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unsubscribeLocked()
	s.instrument = ""
	s.timeframe = ""
	s.trades = nil
	s.history = nil
	s.lastSignal = nil
	s.setStatusLocked(Idle)
}

// Close is an alias for Deselect, for use with defer at teardown.
func (s *Session) Close() { s.Deselect() }

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Instrument returns the currently selected symbol, empty when idle.
func (s *Session) Instrument() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instrument
}

// Timeframe returns the currently selected timeframe.
func (s *Session) Timeframe() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeframe
}

// Trades returns a copy of the trade log.
func (s *Session) Trades() []execution.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]execution.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

// History returns a copy of the bounded tick history, oldest first.
func (s *Session) History() []market.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]market.Tick, len(s.history))
	copy(out, s.history)
	return out
}

// LastSignal returns the most recently emitted signal, nil if none.
func (s *Session) LastSignal() *market.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSignal == nil {
		return nil
	}
	sig := *s.lastSignal
	return &sig
}

func (s *Session) subscribeLocked() error {
	s.epoch++
	epoch := s.epoch
	s.setStatusLocked(Connecting)

	cancel, err := s.source.Subscribe(s.instrument, s.timeframe, feed.Handlers{
		OnOpen:  func() { s.handleOpen(epoch) },
		OnClose: func() { s.handleDrop(epoch, nil) },
		OnTick:  func(tk market.Tick) { s.handleTick(epoch, tk) },
		OnError: func(err error) { s.handleDrop(epoch, err) },
	})
	if err != nil {
		s.setStatusLocked(Disconnected)
		return err
	}
	s.cancel = cancel
	return nil
}

func (s *Session) unsubscribeLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.epoch++
}

func (s *Session) setStatusLocked(st Status) {
	if s.status == st {
		return
	}
	s.status = st
	s.sink.OnStatus(st)
}

func (s *Session) handleOpen(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.setStatusLocked(Streaming)
}

func (s *Session) handleDrop(epoch uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	if errors.Is(err, feed.ErrMalformedTick) {
		// Bad payload only drops the tick; the stream stays up.
		s.log.Warn().Err(err).Msg("dropped malformed tick")
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Str("instrument", s.instrument).Msg("feed dropped")
	}
	s.setStatusLocked(Disconnected)
}

func (s *Session) handleTick(epoch uint64, tk market.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	if tk.Price <= 0 {
		s.log.Warn().Float64("px", tk.Price).Msg("dropped non-positive tick")
		return
	}

	s.history = append(s.history, tk)
	if len(s.history) > s.cfg.HistoryLimit {
		s.history = s.history[len(s.history)-s.cfg.HistoryLimit:]
	}

	if sig := s.gen.Generate(tk, s.lastSignal); sig != nil {
		s.lastSignal = sig
		s.sink.OnSignal(*sig)
		s.applyTradeLocked(*sig)
	}

	snap, err := ledger.Recompute(s.trades, tk.Price, s.cfg.InitialInvestment, s.cfg.Policy)
	if err != nil {
		s.log.Error().Err(err).Msg("ledger recompute failed")
		return
	}
	s.sink.OnSnapshot(snap)
}

// applyTradeLocked executes a signal and appends the trade when the ledger
// and risk limits accept it.
func (s *Session) applyTradeLocked(sig market.Signal) {
	trade := s.exec.Execute(s.instrument, sig)
	if trade == nil {
		return
	}
	if !s.cfg.Limits.AllowNotional(trade.Notional()) {
		s.log.Warn().Float64("notional", trade.Notional()).Msg("trade rejected by notional limit")
		return
	}

	candidate := make([]execution.Trade, len(s.trades), len(s.trades)+1)
	copy(candidate, s.trades)
	candidate = append(candidate, *trade)

	snap, err := ledger.Recompute(candidate, sig.Price, s.cfg.InitialInvestment, s.cfg.Policy)
	if err != nil {
		s.log.Warn().Err(err).Str("side", string(trade.Side)).Msg("trade rejected by ledger")
		return
	}
	if trade.Side == execution.Buy && !s.cfg.Limits.AllowPosition(snap.ShareCount-trade.Qty, trade.Qty) {
		s.log.Warn().Int("shares", snap.ShareCount).Msg("trade rejected by position limit")
		return
	}

	s.trades = candidate
	if s.rec != nil {
		s.rec.Record(*trade)
	}
	s.sink.OnTrade(*trade)
}
