// Package market standardizes payloads shared between the feed, classifier, and accounting layers.
package market

import "time"

// SignalKind enumerates the directional recommendations a classifier can produce.
type SignalKind string

const (
	// Buy recommends opening or adding to a long position.
	Buy SignalKind = "BUY"
	// Sell recommends reducing or closing a long position.
	Sell SignalKind = "SELL"
	// Hold recommends no action; informational only, never executed.
	Hold SignalKind = "HOLD"
)

// Tick models one observed price update for an instrument.
type Tick struct {
	Instrument string
	Price      float64
	Ts         time.Time
}

// Signal expresses a directional recommendation derived from a tick.
type Signal struct {
	Kind  SignalKind
	Price float64 // price at emission
	Ts    time.Time
}
