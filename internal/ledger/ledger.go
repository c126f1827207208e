// Package ledger derives position state and P&L by replaying a session's trade log.
package ledger

import (
	"errors"
	"fmt"

	"github.com/iscfl/trading-signals/internal/execution"
)

var (
	// ErrInvalidConfig marks a recompute call with a non-positive investment,
	// price, or trade field that would otherwise poison the arithmetic.
	ErrInvalidConfig = errors.New("invalid ledger configuration")
	// ErrInsufficientPosition marks a SELL that would take the share count
	// below zero under the default policy.
	ErrInsufficientPosition = errors.New("insufficient position")
)

// Policy controls how oversells are treated. The default rejects them;
// AllowShort lets the replayed share count go negative instead.
type Policy struct {
	AllowShort bool
}

// Snapshot is an absolute view of the position after replaying the full trade
// log. Callers must replace, never accumulate, successive snapshots.
type Snapshot struct {
	ShareCount     int
	AvgEntryPrice  float64 // defined only while ShareCount > 0
	TotalInvested  float64
	TotalReturned  float64
	RealizedPL     float64
	UnrealizedPL   float64
	TotalPL        float64
	TotalValue     float64
	TotalPLPercent float64
}

// Recompute replays the time-ordered trade log from scratch and marks any
// open position to currentPrice. The full replay is deliberate: correctness
// over speed, and it keeps the ledger stateless and safe to call from any
// read path.
func Recompute(trades []execution.Trade, currentPrice, initialInvestment float64, policy Policy) (Snapshot, error) {
	if initialInvestment <= 0 {
		return Snapshot{}, fmt.Errorf("%w: initial investment must be positive, got %.2f", ErrInvalidConfig, initialInvestment)
	}
	if currentPrice <= 0 {
		return Snapshot{}, fmt.Errorf("%w: current price must be positive, got %.2f", ErrInvalidConfig, currentPrice)
	}

	var snap Snapshot
	for i, trade := range trades {
		if trade.Price <= 0 || trade.Qty <= 0 {
			return Snapshot{}, fmt.Errorf("%w: trade %d has price %.2f qty %d", ErrInvalidConfig, i, trade.Price, trade.Qty)
		}
		switch trade.Side {
		case execution.Buy:
			cost := trade.Notional()
			snap.TotalInvested += cost
			snap.AvgEntryPrice = (snap.AvgEntryPrice*float64(snap.ShareCount) + cost) / float64(snap.ShareCount+trade.Qty)
			snap.ShareCount += trade.Qty
		case execution.Sell:
			if snap.ShareCount < trade.Qty && !policy.AllowShort {
				return Snapshot{}, fmt.Errorf("%w: trade %d sells %d of %d held", ErrInsufficientPosition, i, trade.Qty, snap.ShareCount)
			}
			proceeds := trade.Notional()
			snap.TotalReturned += proceeds
			snap.RealizedPL += proceeds - snap.AvgEntryPrice*float64(trade.Qty)
			snap.ShareCount -= trade.Qty
		default:
			return Snapshot{}, fmt.Errorf("%w: trade %d has side %q", ErrInvalidConfig, i, trade.Side)
		}
	}

	if snap.ShareCount > 0 {
		snap.UnrealizedPL = (currentPrice - snap.AvgEntryPrice) * float64(snap.ShareCount)
	} else if snap.ShareCount == 0 {
		snap.AvgEntryPrice = 0
	}
	snap.TotalPL = snap.RealizedPL + snap.UnrealizedPL
	snap.TotalValue = snap.TotalReturned + float64(snap.ShareCount)*currentPrice
	snap.TotalPLPercent = (snap.TotalValue - initialInvestment) / initialInvestment * 100
	return snap, nil
}
