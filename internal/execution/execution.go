// Package execution converts non-HOLD signals into simulated trades.
package execution

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/iscfl/trading-signals/internal/market"
	"github.com/iscfl/trading-signals/internal/metrics"
)

// Side enumerates trade directions.
type Side string

const (
	// Buy indicates a long entry.
	Buy Side = "BUY"
	// Sell indicates a long exit.
	Sell Side = "SELL"
)

// Trade records a single simulated execution. Immutable once created.
type Trade struct {
	Instrument string    `json:"instrument"`
	Side       Side      `json:"side"`
	Price      float64   `json:"price"`
	Qty        int       `json:"qty"`
	Ts         time.Time `json:"ts"`
}

// Notional returns the cash value of the trade.
func (t Trade) Notional() float64 { return t.Price * float64(t.Qty) }

// Sizer decides how many shares a signal should trade.
type Sizer interface {
	Quantity(sig market.Signal) int
}

// FixedSizer trades a constant quantity per signal.
type FixedSizer struct{ Qty int }

// Quantity returns the configured size, defaulting to a single share.
func (s FixedSizer) Quantity(market.Signal) int {
	if s.Qty <= 0 {
		return 1
	}
	return s.Qty
}

// Executor turns signals into trades at the signalled price.
type Executor struct {
	log   zerolog.Logger
	sizer Sizer
}

// NewExecutor wires a logger and sizing policy; a nil sizer falls back to one share per trade.
func NewExecutor(log zerolog.Logger, sizer Sizer) *Executor {
	if sizer == nil {
		sizer = FixedSizer{Qty: 1}
	}
	return &Executor{log: log, sizer: sizer}
}

// Execute converts a signal into a trade. HOLD signals produce no trade.
func (e *Executor) Execute(instrument string, sig market.Signal) *Trade {
	if sig.Kind == market.Hold {
		return nil
	}
	side := Buy
	if sig.Kind == market.Sell {
		side = Sell
	}
	trade := &Trade{
		Instrument: instrument,
		Side:       side,
		Price:      sig.Price,
		Qty:        e.sizer.Quantity(sig),
		Ts:         sig.Ts,
	}
	metrics.TradesTotal.WithLabelValues(instrument, string(side)).Inc()
	e.log.Info().Str("instrument", instrument).Str("side", string(side)).Int("qty", trade.Qty).Float64("px", trade.Price).Msg("execute trade")
	return trade
}
